//go:build !linux || !cgo

package led

import "errors"

// RealConfig describes the WS281x strip.
type RealConfig struct {
	GPIOPin    int
	Count      int
	Brightness int
}

// RealStrip is not available without Linux and cgo.
type RealStrip struct{}

// NewRealStrip returns an error when rpi_ws281x is unavailable.
func NewRealStrip(cfg RealConfig) (*RealStrip, error) {
	return nil, errors.New("led: ws281x requires linux and cgo")
}

// Len is not implemented without Linux and cgo.
func (s *RealStrip) Len() int { return 0 }

// SetPixel is not implemented without Linux and cgo.
func (s *RealStrip) SetPixel(i int, c Color) {}

// Clear is not implemented without Linux and cgo.
func (s *RealStrip) Clear() {}

// Show is not implemented without Linux and cgo.
func (s *RealStrip) Show() error {
	return errors.New("led: not supported")
}

// Close is not implemented without Linux and cgo.
func (s *RealStrip) Close() error {
	return nil
}
