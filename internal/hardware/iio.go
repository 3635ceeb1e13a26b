package hardware

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// DefaultIIODir is the sysfs directory for industrial I/O devices.
const DefaultIIODir = "/sys/bus/iio/devices"

// DHT22 reads one DHT22 sensor through the kernel's industrial I/O
// interface (dtoverlay=dht11 on the Raspberry Pi).
//
// The dht11 kernel driver handles the single-wire bit-banging and
// exposes millidegree / milli-percent values as text files. Reads fail
// with EAGAIN or EIO when the sensor is mid-conversion or the transfer
// was corrupt, which happens on a large fraction of attempts; those are
// surfaced as ErrNotReady and retried on the next poll cycle.
type DHT22 struct {
	dir string
}

// NewDHT22 creates a driver for the iio device directory, e.g.
// /sys/bus/iio/devices/iio:device0.
func NewDHT22(dir string) *DHT22 {
	return &DHT22{dir: dir}
}

// ReadTemperature returns degrees Celsius.
func (s *DHT22) ReadTemperature(_ context.Context) (float64, error) {
	return s.readMilli("in_temp_input")
}

// ReadHumidity returns relative humidity in percent.
func (s *DHT22) ReadHumidity(_ context.Context) (float64, error) {
	return s.readMilli("in_humidityrelative_input")
}

// readMilli reads one iio attribute file and scales milli-units down.
func (s *DHT22) readMilli(attr string) (float64, error) {
	path := filepath.Join(s.dir, attr)
	data, err := os.ReadFile(path)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return 0, fmt.Errorf("%w: %s", ErrNoSensor, path)
		case errors.Is(err, syscall.EAGAIN), errors.Is(err, syscall.EIO), errors.Is(err, syscall.ETIMEDOUT):
			return 0, fmt.Errorf("%w: %v", ErrNotReady, err)
		default:
			return 0, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	milli, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: bad value in %s: %v", ErrChecksum, path, err)
	}
	return float64(milli) / 1000.0, nil
}
