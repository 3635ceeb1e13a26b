package relay

import (
	"fmt"
	"sync"
)

// PinDriver is the hardware capability to configure and drive a GPIO
// pin. Implemented by hardware.SysfsGPIO and hardware.SimGPIO.
type PinDriver interface {
	SetupPin(pin int, initialHigh bool) error
	SetPinLevel(pin int, high bool) error
}

// State is the published view of one relay, as stored in the cache and
// returned by the API.
type State struct {
	Pin        int    `json:"pin"`
	Name       string `json:"name"`
	State      bool   `json:"state"`
	ActiveHigh bool   `json:"active_high"`
}

// Config describes one relay at registration time.
type Config struct {
	// ID is the relay's stable identity. Defaults to relay_<pin>.
	ID string

	// Pin is the BCM pin number driving the optocoupler input.
	Pin int

	// Name is the human-friendly name. Defaults to the id.
	Name string

	// ActiveHigh selects polarity: when true, logical on drives the pin
	// high; when false (common for optocoupler boards) the mapping is
	// inverted.
	ActiveHigh bool

	// Initial is the logical state pushed to hardware at registration.
	Initial bool
}

// Relay owns one relay's logical/physical state mapping behind a lock.
//
// The mutex serializes all hardware writes to the pin: no two writes
// to the same relay are ever in flight at once, while different relays
// operate concurrently.
type Relay struct {
	id         string
	pin        int
	name       string
	activeHigh bool
	driver     PinDriver

	mu sync.Mutex
	on bool
}

// newRelay constructs the relay and pushes the initial state to
// hardware immediately. Fails fast if the pin cannot be configured.
func newRelay(cfg Config, driver PinDriver) (*Relay, error) {
	r := &Relay{
		id:         cfg.ID,
		pin:        cfg.Pin,
		name:       cfg.Name,
		activeHigh: cfg.ActiveHigh,
		driver:     driver,
		on:         cfg.Initial,
	}
	if err := driver.SetupPin(cfg.Pin, r.physical(cfg.Initial)); err != nil {
		return nil, fmt.Errorf("setting up relay %q on pin %d: %w", cfg.ID, cfg.Pin, err)
	}
	return r, nil
}

// physical converts logical on/off to the electrical level for this
// relay's polarity: physicalLevel = activeHigh ? logicalOn : !logicalOn.
func (r *Relay) physical(on bool) bool {
	if r.activeHigh {
		return on
	}
	return !on
}

// Set drives the relay to the requested logical state.
//
// The hardware write happens first; the cached state changes only when
// the write succeeded. On error the previous state is kept, so cache
// and hardware remain consistent.
func (r *Relay) Set(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setLocked(on)
}

// SetAsync applies Set without blocking the caller. The returned
// channel delivers the result exactly once. Calls to the same relay are
// serialized by the relay's lock.
func (r *Relay) SetAsync(on bool) <-chan error {
	result := make(chan error, 1)
	go func() {
		result <- r.Set(on)
	}()
	return result
}

// Toggle flips the relay. Read-current-state and set happen under one
// lock acquisition, so two concurrent toggles can never both observe
// the same starting state.
func (r *Relay) Toggle() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setLocked(!r.on)
}

// setLocked pushes the physical level and commits the logical state.
// Callers must hold r.mu.
func (r *Relay) setLocked(on bool) error {
	if err := r.driver.SetPinLevel(r.pin, r.physical(on)); err != nil {
		return fmt.Errorf("relay %q: %w", r.id, err)
	}
	r.on = on
	return nil
}

// Get returns the cached logical state. Hardware is not queried.
func (r *Relay) Get() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.on
}

// ID returns the relay's stable identity.
func (r *Relay) ID() string {
	return r.id
}

// State returns the published view of the relay.
func (r *Relay) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return State{
		Pin:        r.pin,
		Name:       r.name,
		State:      r.on,
		ActiveHigh: r.activeHigh,
	}
}
