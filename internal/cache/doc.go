// Package cache provides the shared in-process state cache read by the
// HTTP API and written by the sensor aggregators and the relay registry.
//
// State is organised into families (e.g. "dht22", "ds18b20", "relays").
// Each family is guarded by its own readers-writer lock: any number of
// concurrent readers, one writer, writers exclude readers. A publish
// replaces the family's contents wholesale, so a reader always observes
// either the previous or the new generation, never a mix of the two.
//
// Cross-family consistency is deliberately not guaranteed; families are
// published on independent cadences.
package cache
