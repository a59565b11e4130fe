//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealLines drives the address lines through the GPIO character device.
type RealLines struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
	n     int
}

// NewRealLines requests pins as outputs, all low, on the named chip.
func NewRealLines(chip string, pins []int) (*RealLines, error) {
	if chip == "" {
		chip = "gpiochip0"
	}
	if len(pins) == 0 {
		pins = DefaultPins
	}

	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	lines, err := c.RequestLines(pins, gpiocdev.AsOutput(make([]int, len(pins))...))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("request address pins %v: %w", pins, err)
	}

	return &RealLines{chip: c, lines: lines, n: len(pins)}, nil
}

// Set drives the lines to id.
func (r *RealLines) Set(id int) error {
	values, err := Encode(id, r.n)
	if err != nil {
		return err
	}
	if err := r.lines.SetValues(values); err != nil {
		return fmt.Errorf("set address lines: %w", err)
	}
	return nil
}

// Channels returns 2^pins.
func (r *RealLines) Channels() int {
	return 1 << r.n
}

// Close releases GPIO resources.
// Reconfigures pins to input with pull-down (matching Pi boot defaults) before
// closing to ensure clean state for system shutdown/reboot.
func (r *RealLines) Close() error {
	var errs []error

	if r.lines != nil {
		if err := r.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure address pins: %w", err))
		}
		if err := r.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close address pins: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
