package hardware

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Simulated jitter bounds.
const (
	simTempJitter = 0.4 // degrees C either side of the base value
	simHumJitter  = 2.0 // percent either side of the base value
)

// SimSensor is the simulated temperature/humidity sensor. It returns
// the configured base values with a small random walk so the dashboard
// shows live-looking data on machines without hardware.
//
// Safe for concurrent use.
type SimSensor struct {
	mu       sync.Mutex
	temp     float64
	humidity float64
}

// NewSimSensor creates a simulated sensor around the given base values.
func NewSimSensor(baseTemp, baseHumidity float64) *SimSensor {
	return &SimSensor{temp: baseTemp, humidity: baseHumidity}
}

// ReadTemperature returns the next simulated temperature.
func (s *SimSensor) ReadTemperature(_ context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temp += (rand.Float64() - 0.5) * simTempJitter
	return s.temp, nil
}

// ReadHumidity returns the next simulated relative humidity.
func (s *SimSensor) ReadHumidity(_ context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.humidity += (rand.Float64() - 0.5) * simHumJitter
	if s.humidity < 0 {
		s.humidity = 0
	}
	if s.humidity > 100 {
		s.humidity = 100
	}
	return s.humidity, nil
}

// SimGPIO is the simulated pin driver. It records levels in memory and
// never fails, mirroring the behaviour of a real pin well enough for
// development and tests.
//
// Safe for concurrent use.
type SimGPIO struct {
	mu     sync.Mutex
	setup  map[int]bool
	levels map[int]bool
}

// NewSimGPIO creates an empty simulated pin driver.
func NewSimGPIO() *SimGPIO {
	return &SimGPIO{
		setup:  make(map[int]bool),
		levels: make(map[int]bool),
	}
}

// SetupPin records the pin as configured at the given initial level.
func (g *SimGPIO) SetupPin(pin int, initialHigh bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setup[pin] = true
	g.levels[pin] = initialHigh
	return nil
}

// SetPinLevel records the pin level. Driving a pin that was never set
// up is a programming error and fails like the real driver would.
func (g *SimGPIO) SetPinLevel(pin int, high bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.setup[pin] {
		return fmt.Errorf("%w: pin %d not set up", ErrWriteFailed, pin)
	}
	g.levels[pin] = high
	return nil
}

// Level reports the last level driven on the pin, and whether the pin
// has ever been set up.
func (g *SimGPIO) Level(pin int) (bool, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	level, ok := g.levels[pin]
	return level, ok
}
