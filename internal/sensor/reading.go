package sensor

import (
	"encoding/json"
	"time"
)

// readableTimeLayout matches the human-readable time format the web
// frontend expects.
const readableTimeLayout = "2006-01-02 15:04:05"

// Reading is a value snapshot of one sensor's last successful reading.
//
// Nil pointer fields mean the sensor has never been read successfully;
// they serialize as JSON null so clients can distinguish "registered
// but unknown" from "absent from the system". Readings are copies: a
// Reading handed out by Snapshot() shares no storage with the unit.
type Reading struct {
	Name        string
	Location    string
	Temperature *float64
	Humidity    *float64
	Timestamp   *time.Time

	// hasHumidity records whether the unit's family measures humidity
	// at all. It controls whether the humidity key appears in JSON.
	hasHumidity bool
}

// MarshalJSON serializes the reading with epoch-seconds timestamp and a
// readable_time companion field. Families without a humidity capability
// omit the humidity key entirely rather than reporting null.
func (r Reading) MarshalJSON() ([]byte, error) {
	var ts *float64
	var readable *string
	if r.Timestamp != nil {
		seconds := float64(r.Timestamp.UnixNano()) / float64(time.Second)
		ts = &seconds
		formatted := r.Timestamp.Format(readableTimeLayout)
		readable = &formatted
	}

	if r.hasHumidity {
		return json.Marshal(struct {
			Name         string   `json:"name"`
			Location     string   `json:"location"`
			Temperature  *float64 `json:"temperature"`
			Humidity     *float64 `json:"humidity"`
			Timestamp    *float64 `json:"timestamp"`
			ReadableTime *string  `json:"readable_time"`
		}{r.Name, r.Location, r.Temperature, r.Humidity, ts, readable})
	}

	return json.Marshal(struct {
		Name         string   `json:"name"`
		Location     string   `json:"location"`
		Temperature  *float64 `json:"temperature"`
		Timestamp    *float64 `json:"timestamp"`
		ReadableTime *string  `json:"readable_time"`
	}{r.Name, r.Location, r.Temperature, ts, readable})
}
