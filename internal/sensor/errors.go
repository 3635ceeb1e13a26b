package sensor

import "errors"

// Domain errors for the sensor package. Check with errors.Is().
var (
	// ErrUnitNotFound is returned when a unit key is not registered.
	ErrUnitNotFound = errors.New("sensor: unit not found")

	// ErrUnitExists is returned when registering a unit key twice.
	ErrUnitExists = errors.New("sensor: unit already exists")
)
