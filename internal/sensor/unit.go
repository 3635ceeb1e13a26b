package sensor

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/pihub/internal/hardware"
)

// Logger defines the logging interface used by the sensor package.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// TemperatureReader is the hardware capability to read degrees Celsius.
type TemperatureReader interface {
	ReadTemperature(ctx context.Context) (float64, error)
}

// HumidityReader is the hardware capability to read relative humidity.
type HumidityReader interface {
	ReadHumidity(ctx context.Context) (float64, error)
}

// Config describes one sensor unit.
type Config struct {
	// Key is the unit's stable identity within its family: the BCM pin
	// number for DHT22 sensors, the 1-wire id for DS18B20 sensors.
	Key string

	// Name is the human-friendly name. Defaults to <family>_<key>.
	Name string

	// Location is free-form placement text ("greenhouse", "loft").
	Location string

	// Interval is the polling cadence. Typical values are 5-15s.
	Interval time.Duration
}

// Unit owns one physical sensor's state: the last successful reading,
// its timestamp, and the unit metadata, all behind a readers-writer
// lock.
//
// The reading is mutated only by the unit's own polling loop (Run).
// Everyone else reads through Snapshot(), which copies under the shared
// lock and never blocks the writer for longer than the copy takes.
type Unit struct {
	key      string
	interval time.Duration
	temp     TemperatureReader
	humidity HumidityReader // nil for temperature-only families

	mu          sync.RWMutex
	name        string
	location    string
	temperature *float64
	humValue    *float64
	readAt      *time.Time

	logger Logger
}

// NewUnit creates a unit for the given hardware readers. The humidity
// reader may be nil for families that only measure temperature.
func NewUnit(cfg Config, temp TemperatureReader, humidity HumidityReader) *Unit {
	return &Unit{
		key:      cfg.Key,
		interval: cfg.Interval,
		temp:     temp,
		humidity: humidity,
		name:     cfg.Name,
		location: cfg.Location,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the unit.
func (u *Unit) SetLogger(logger Logger) {
	u.logger = logger
}

// Key returns the unit's stable identity.
func (u *Unit) Key() string {
	return u.key
}

// Snapshot returns a copy of the current reading, taken under the
// shared lock. Pointer fields are re-pointed at fresh values so the
// caller shares no storage with the unit.
func (u *Unit) Snapshot() Reading {
	u.mu.RLock()
	defer u.mu.RUnlock()

	return Reading{
		Name:        u.name,
		Location:    u.location,
		Temperature: copyFloat(u.temperature),
		Humidity:    copyFloat(u.humValue),
		Timestamp:   copyTime(u.readAt),
		hasHumidity: u.humidity != nil,
	}
}

// SetName updates the unit's display name.
func (u *Unit) SetName(name string) {
	u.mu.Lock()
	u.name = name
	u.mu.Unlock()
}

// SetLocation updates the unit's location text.
func (u *Unit) SetLocation(location string) {
	u.mu.Lock()
	u.location = location
	u.mu.Unlock()
}

// Run is the unit's polling loop. It reads immediately, then on every
// interval tick, until ctx is cancelled. Errors never terminate the
// loop: transient hardware conditions keep the previous reading and are
// logged at debug level, anything else is logged with full context.
func (u *Unit) Run(ctx context.Context) {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		u.read(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// read attempts one hardware read and, if every value arrives intact,
// atomically replaces the reading under the exclusive lock. On failure
// the previous reading stays untouched; stale data beats no data.
//
// The lock is held only for the in-memory swap, never across the
// hardware call, so a slow sensor cannot block Snapshot callers.
func (u *Unit) read(ctx context.Context) {
	temp, err := u.temp.ReadTemperature(ctx)
	if err != nil {
		u.logReadError("temperature", err)
		return
	}

	var hum *float64
	if u.humidity != nil {
		h, err := u.humidity.ReadHumidity(ctx)
		if err != nil {
			// A reading is only published when all of its values
			// arrive in one pass; no mixing across attempts.
			u.logReadError("humidity", err)
			return
		}
		hum = &h
	}

	now := time.Now()
	u.mu.Lock()
	u.temperature = &temp
	u.humValue = hum
	u.readAt = &now
	u.mu.Unlock()

	u.logger.Debug("sensor read ok", "unit", u.key, "temperature", temp)
}

// logReadError classifies and logs a failed hardware read.
func (u *Unit) logReadError(what string, err error) {
	if hardware.IsTransient(err) {
		u.logger.Debug("sensor busy, keeping previous reading",
			"unit", u.key,
			"value", what,
			"error", err,
		)
		return
	}
	u.logger.Error("unexpected sensor read failure",
		"unit", u.key,
		"value", what,
		"error", err,
	)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
