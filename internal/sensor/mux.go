package sensor

import (
	"fmt"

	"github.com/sweeney/tile-floor/internal/gpio"
)

// ADC samples the multiplexer's common pin.
type ADC interface {
	Convert() (int, error)
	Close() error
}

// MuxDriver addresses a multiplexer through GPIO lines and samples the
// selected input with an ADC.
type MuxDriver struct {
	lines    gpio.AddressLines
	adc      ADC
	selected int
}

// NewMuxDriver combines address lines and a converter into a Driver.
func NewMuxDriver(lines gpio.AddressLines, adc ADC) *MuxDriver {
	return &MuxDriver{lines: lines, adc: adc, selected: -1}
}

// SelectChannel sets the address lines to id.
func (d *MuxDriver) SelectChannel(id int) error {
	if err := d.lines.Set(id); err != nil {
		d.selected = -1
		return err
	}
	d.selected = id
	return nil
}

// ReadChannel converts the selected input.
func (d *MuxDriver) ReadChannel(id int) (int, error) {
	if id != d.selected {
		return 0, ErrNotSelected
	}
	v, err := d.adc.Convert()
	if err != nil {
		return 0, fmt.Errorf("convert: %w", err)
	}
	return v, nil
}

// Close releases the converter and the address lines.
func (d *MuxDriver) Close() error {
	var errs []error
	if err := d.adc.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close adc: %w", err))
	}
	if err := d.lines.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close address lines: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// mcp3208Request is the single-ended conversion command for input ch.
func mcp3208Request(ch int) []byte {
	return []byte{0x06 | byte(ch>>2)&0x01, byte(ch&0x03) << 6, 0}
}

// mcp3208Value extracts the 12-bit result from a response frame.
func mcp3208Value(r []byte) int {
	return int(r[1]&0x0F)<<8 | int(r[2])
}
