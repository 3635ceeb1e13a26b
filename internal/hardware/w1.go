package hardware

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultW1Dir is the sysfs directory for 1-wire slave devices.
const DefaultW1Dir = "/sys/bus/w1/devices"

// ds18b20FamilyCode is the 1-wire family code prefix for DS18B20 devices.
const ds18b20FamilyCode = "28"

// powerOnResetMilliC is the conversion result a DS18B20 reports before
// its first completed conversion (85.0 C). Treated as not-ready rather
// than published as a real reading.
const powerOnResetMilliC = 85000

// DS18B20 reads one DS18B20 temperature sensor over the 1-wire bus.
//
// The kernel's w1-therm driver exposes each sensor as a directory under
// /sys/bus/w1/devices named <family>-<serial>; reading the w1_slave
// file triggers a conversion and returns the raw scratchpad plus a
// parsed millidegree value.
type DS18B20 struct {
	path string
}

// NewDS18B20 creates a driver for the sensor with the given 1-wire id.
//
// The id may be the bare serial ("000000b239d5") or the full device
// name including family code ("28-000000b239d5").
func NewDS18B20(dir, id string) *DS18B20 {
	device := id
	if !strings.Contains(id, "-") {
		device = ds18b20FamilyCode + "-" + id
	}
	return &DS18B20{path: filepath.Join(dir, device, "w1_slave")}
}

// ReadTemperature performs one conversion and returns degrees Celsius.
//
// The read blocks for the sensor's conversion time (up to ~750ms); the
// caller is expected to run it from its own polling goroutine.
func (s *DS18B20) ReadTemperature(_ context.Context) (float64, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrNoSensor, s.path)
		}
		return 0, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return parseW1Slave(data)
}

// parseW1Slave extracts a temperature from w1_slave file contents:
//
//	4b 46 7f ff 02 10 1c : crc=1c YES
//	4b 46 7f ff 02 10 1c t=23062
//
// A CRC line ending in NO means the bus read was corrupt.
func parseW1Slave(data []byte) (float64, error) {
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) < 2 {
		return 0, fmt.Errorf("%w: short w1_slave payload", ErrNotReady)
	}

	if strings.HasSuffix(strings.TrimSpace(lines[0]), "NO") {
		return 0, ErrChecksum
	}

	idx := strings.LastIndex(lines[1], "t=")
	if idx < 0 {
		return 0, fmt.Errorf("%w: missing t= field", ErrNotReady)
	}

	milli, err := strconv.Atoi(strings.TrimSpace(lines[1][idx+2:]))
	if err != nil {
		return 0, fmt.Errorf("%w: bad t= field: %v", ErrNotReady, err)
	}

	if milli == powerOnResetMilliC {
		return 0, fmt.Errorf("%w: power-on reset value", ErrNotReady)
	}

	return float64(milli) / 1000.0, nil
}
