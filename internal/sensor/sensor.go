// Package sensor reads the floor's pressure pads through an analog multiplexer.
// The real driver uses the Linux GPIO character device for the mux address lines
// and an SPI ADC for conversion. The fake driver allows testing without hardware.
package sensor

import (
	"errors"
	"fmt"
	"time"
)

// Sample range of the 12-bit ADC.
const (
	MinSample = 0
	MaxSample = 4095
)

// DefaultSettle is the delay between selecting a mux channel and sampling it.
const DefaultSettle = 200 * time.Microsecond

// ErrNotSelected is returned when a channel is read without being selected first.
var ErrNotSelected = errors.New("sensor: channel not selected")

// Driver is the raw peripheral boundary.
type Driver interface {
	// SelectChannel drives the multiplexer address lines. Must precede ReadChannel.
	SelectChannel(id int) error

	// ReadChannel returns one raw sample from the selected channel.
	ReadChannel(id int) (int, error)

	// Close releases hardware resources.
	Close() error
}

// Reader performs settled reads through a Driver.
type Reader struct {
	driver Driver
	settle time.Duration
	sleep  func(time.Duration)
}

// NewReader wraps a driver. A zero settle disables the post-select delay.
func NewReader(d Driver, settle time.Duration) *Reader {
	return &Reader{
		driver: d,
		settle: settle,
		sleep:  time.Sleep,
	}
}

// Select addresses the channel and waits for the mux output to settle.
func (r *Reader) Select(id int) error {
	if err := r.driver.SelectChannel(id); err != nil {
		return fmt.Errorf("select channel %d: %w", id, err)
	}
	if r.settle > 0 {
		r.sleep(r.settle)
	}
	return nil
}

// Sample reads the currently selected channel.
func (r *Reader) Sample(id int) (int, error) {
	v, err := r.driver.ReadChannel(id)
	if err != nil {
		return 0, fmt.Errorf("read channel %d: %w", id, err)
	}
	return v, nil
}

// Read selects a channel and returns one settled sample.
func (r *Reader) Read(id int) (int, error) {
	if err := r.Select(id); err != nil {
		return 0, err
	}
	return r.Sample(id)
}

// ReadAll reads channels[i] into dst[i]. On error dst is partially written.
func (r *Reader) ReadAll(channels []int, dst []int) error {
	if len(dst) < len(channels) {
		return fmt.Errorf("read all: dst has %d slots for %d channels", len(dst), len(channels))
	}
	for i, ch := range channels {
		v, err := r.Read(ch)
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

// Close closes the underlying driver.
func (r *Reader) Close() error {
	return r.driver.Close()
}
