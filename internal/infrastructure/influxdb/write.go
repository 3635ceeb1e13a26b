package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSensorMetric records one sensor value: family and key as tags,
// the field name (temperature or humidity) and value as the data.
//
// The write is non-blocking; points are batched and flushed by the
// write API.
//
// Example:
//
//	client.WriteSensorMetric("dht22", "4", "temperature", 21.5)
func (c *Client) WriteSensorMetric(family, key, field string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor_readings",
		map[string]string{
			"family": family,
			"key":    key,
		},
		map[string]interface{}{
			field: value,
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WriteRelayState records a relay transition as a 0/1 value so state
// timelines can be graphed alongside sensor data.
func (c *Client) WriteRelayState(id string, on bool) {
	if !c.IsConnected() {
		return
	}

	state := 0
	if on {
		state = 1
	}

	point := write.NewPoint(
		"relay_states",
		map[string]string{
			"relay": id,
		},
		map[string]interface{}{
			"state": state,
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}
