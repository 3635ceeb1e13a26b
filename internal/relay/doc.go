// Package relay implements actuator control: one Relay per
// optocoupler-driven GPIO pin and a Registry that owns the collection,
// applies state changes, and republishes the "relays" cache family
// after every mutation.
//
// The cached logical state is the source of truth; hardware is never
// queried to read a state back. Every mutation drives the pin first and
// only updates the cached state when the hardware write succeeded, so
// the cache and the physical level can never disagree after a failure.
//
// Relays exist for the life of the process; there is no removal.
package relay
