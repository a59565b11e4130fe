//go:build !linux

package sensor

import "errors"

// RealConfig describes the sensor hardware.
type RealConfig struct {
	Chip        string
	AddressPins []int
	SPIPort     string
	ADCChannel  int
}

// NewRealDriver returns an error on non-Linux platforms.
func NewRealDriver(cfg RealConfig) (*MuxDriver, error) {
	return nil, errors.New("sensor: not supported on this platform (requires Linux)")
}
