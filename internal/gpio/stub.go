//go:build !linux

package gpio

import "errors"

// RealLines is not available on non-Linux platforms.
type RealLines struct{}

// NewRealLines returns an error on non-Linux platforms.
func NewRealLines(chip string, pins []int) (*RealLines, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Set is not implemented on non-Linux platforms.
func (r *RealLines) Set(id int) error {
	return errors.New("gpio: not supported")
}

// Channels is zero on non-Linux platforms.
func (r *RealLines) Channels() int {
	return 0
}

// Close is not implemented on non-Linux platforms.
func (r *RealLines) Close() error {
	return nil
}
