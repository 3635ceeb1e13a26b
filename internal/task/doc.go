// Package task supervises the hub's long-running background goroutines:
// sensor poll loops, family aggregation loops, and the relay reconcile
// loop.
//
// A supervised task is restarted after a panic (with a delay) for as
// long as its context is alive; normal return is treated as completion.
// The base design has no per-task stop signal beyond the shared
// context: stopping the process is the expected termination path, and
// context cancellation exists so shutdown is clean rather than abrupt.
package task
