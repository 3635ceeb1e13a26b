package hardware

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
)

// DefaultGPIODir is the sysfs GPIO root.
const DefaultGPIODir = "/sys/class/gpio"

// gpioFilePerm is the open mode for sysfs attribute writes.
const gpioFilePerm = 0o220

// SysfsGPIO drives relay pins through the sysfs GPIO interface.
//
// Pins use BCM numbering. SetupPin must be called once per pin before
// SetPinLevel; setup exports the pin and configures it as an output
// with a defined initial level in a single direction write, so a relay
// never glitches through an undefined state at boot.
//
// All methods are safe for concurrent use.
type SysfsGPIO struct {
	dir string

	mu       sync.Mutex
	exported map[int]bool
}

// NewSysfsGPIO creates a driver rooted at dir (normally DefaultGPIODir).
func NewSysfsGPIO(dir string) *SysfsGPIO {
	return &SysfsGPIO{
		dir:      dir,
		exported: make(map[int]bool),
	}
}

// SetupPin exports the pin and configures it as an output at the given
// initial level. Calling it again for an already-configured pin is
// harmless.
func (g *SysfsGPIO) SetupPin(pin int, initialHigh bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.exported[pin] {
		err := writeSysfs(filepath.Join(g.dir, "export"), strconv.Itoa(pin))
		// EBUSY means the pin was already exported by a previous run.
		if err != nil && !errors.Is(err, syscall.EBUSY) {
			return fmt.Errorf("%w: exporting pin %d: %v", ErrSetupFailed, pin, err)
		}
		g.exported[pin] = true
	}

	// Writing "high"/"low" to direction sets output mode and the level
	// atomically, unlike writing "out" followed by a value write.
	direction := "low"
	if initialHigh {
		direction = "high"
	}
	dirPath := filepath.Join(g.dir, fmt.Sprintf("gpio%d", pin), "direction")
	if err := writeSysfs(dirPath, direction); err != nil {
		return fmt.Errorf("%w: configuring pin %d: %v", ErrSetupFailed, pin, err)
	}
	return nil
}

// SetPinLevel drives the pin high or low.
func (g *SysfsGPIO) SetPinLevel(pin int, high bool) error {
	g.mu.Lock()
	configured := g.exported[pin]
	g.mu.Unlock()

	if !configured {
		return fmt.Errorf("%w: pin %d not set up", ErrWriteFailed, pin)
	}

	value := "0"
	if high {
		value = "1"
	}
	valuePath := filepath.Join(g.dir, fmt.Sprintf("gpio%d", pin), "value")
	if err := writeSysfs(valuePath, value); err != nil {
		return fmt.Errorf("%w: pin %d: %v", ErrWriteFailed, pin, err)
	}
	return nil
}

// writeSysfs writes a short string to a sysfs attribute file.
func writeSysfs(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, gpioFilePerm)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(value); err != nil {
		return err
	}
	return nil
}
