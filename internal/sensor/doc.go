// Package sensor implements the polling side of the hub: one Unit per
// physical sensor, each with its own goroutine and readers-writer lock,
// and one Aggregator per sensor family that periodically gathers unit
// snapshots and publishes them into the shared cache as a single
// atomic generation.
//
// Ownership rules:
//   - A unit's reading is written only by that unit's own polling loop.
//   - Anyone may read a unit through Snapshot(), which copies under a
//     shared lock.
//   - The cache family is written only by the aggregator.
//
// A slow or failing sensor never blocks another unit's poll loop, an
// aggregation cycle, or a cache read: hardware calls happen on the
// owning unit's goroutine and the unit lock is held only for the
// in-memory swap, never across a hardware call.
package sensor
