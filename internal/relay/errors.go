package relay

import "errors"

// Domain errors for the relay package. Check with errors.Is().
var (
	// ErrNotFound is returned when a relay id is not registered.
	ErrNotFound = errors.New("relay: not found")

	// ErrExists is returned when registering a relay id twice.
	ErrExists = errors.New("relay: already exists")
)
