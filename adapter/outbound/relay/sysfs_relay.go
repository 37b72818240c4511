package relay

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/avigneron/pumphouse/domain/port/outbound"
)

// sysfsRelay drives a single GPIO line through the Linux sysfs interface.
// The line is exported and set to output on construction and driven
// inactive, so the pump never starts as a side effect of process startup.
type sysfsRelay struct {
	pin        int
	activeHigh bool
	valuePath  string
	logger     outbound.Logger

	mu     sync.Mutex
	active bool
}

const sysfsGPIORoot = "/sys/class/gpio"

func NewSysfsRelay(pin int, activeHigh bool, logger outbound.Logger) (outbound.RelayDriver, error) {
	pinDir := filepath.Join(sysfsGPIORoot, fmt.Sprintf("gpio%d", pin))

	if _, err := os.Stat(pinDir); os.IsNotExist(err) {
		exportPath := filepath.Join(sysfsGPIORoot, "export")
		if err := os.WriteFile(exportPath, []byte(strconv.Itoa(pin)), 0200); err != nil {
			return nil, fmt.Errorf("failed to export gpio %d: %w", pin, err)
		}
		// the kernel needs a moment to create the pin directory
		time.Sleep(100 * time.Millisecond)
	}

	directionPath := filepath.Join(pinDir, "direction")
	if err := os.WriteFile(directionPath, []byte("out"), 0644); err != nil {
		return nil, fmt.Errorf("failed to set gpio %d direction: %w", pin, err)
	}

	r := &sysfsRelay{
		pin:        pin,
		activeHigh: activeHigh,
		valuePath:  filepath.Join(pinDir, "value"),
		logger:     logger,
	}

	if err := r.Set(false); err != nil {
		return nil, err
	}

	logger.Info("relay initialized", "pin", pin, "active_high", activeHigh)
	return r, nil
}

func (r *sysfsRelay) Set(active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	level := active == r.activeHigh
	value := []byte("0")
	if level {
		value = []byte("1")
	}

	if err := os.WriteFile(r.valuePath, value, 0644); err != nil {
		return fmt.Errorf("failed to drive gpio %d: %w", r.pin, err)
	}

	r.active = active
	r.logger.Debug("relay set", "pin", r.pin, "active", active)
	return nil
}

func (r *sysfsRelay) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}
