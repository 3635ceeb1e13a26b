package hardware

import "errors"

// Driver errors. Use errors.Is() to check for these in calling code.
var (
	// ErrNotReady is returned when a sensor is busy or has not completed
	// a conversion yet. Retrying on the next poll cycle is expected.
	ErrNotReady = errors.New("hardware: sensor not ready")

	// ErrChecksum is returned when a reading fails CRC validation.
	// DHT22 and DS18B20 sensors both fail this way routinely.
	ErrChecksum = errors.New("hardware: checksum mismatch")

	// ErrNoSensor is returned when the sensor device cannot be found.
	ErrNoSensor = errors.New("hardware: sensor not found")

	// ErrWriteFailed is returned when driving a relay pin fails.
	ErrWriteFailed = errors.New("hardware: pin write failed")

	// ErrSetupFailed is returned when configuring a pin for output fails.
	ErrSetupFailed = errors.New("hardware: pin setup failed")
)

// IsTransient reports whether err is a recoverable sensor condition.
// Transient errors are logged at debug level and the previous reading
// is retained; anything else is logged with full context. Neither
// terminates a polling loop.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNotReady) ||
		errors.Is(err, ErrChecksum) ||
		errors.Is(err, ErrNoSensor)
}
