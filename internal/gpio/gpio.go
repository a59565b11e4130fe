// Package gpio drives the address lines of the floor's analog multiplexer.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "fmt"

// AddressLines selects one input of a binary-addressed multiplexer.
type AddressLines interface {
	// Set drives the lines to the binary encoding of id.
	Set(id int) error

	// Channels returns the number of addressable inputs.
	Channels() int

	// Close releases GPIO resources.
	Close() error
}

// DefaultPins are the CD74HC4067 S0..S3 address lines (BCM numbering).
var DefaultPins = []int{17, 27, 22, 23}

// Encode returns the line values for id, least significant bit first.
func Encode(id, lines int) ([]int, error) {
	if id < 0 || id >= 1<<lines {
		return nil, fmt.Errorf("channel %d out of range (mux has %d)", id, 1<<lines)
	}
	values := make([]int, lines)
	for i := range values {
		values[i] = (id >> i) & 1
	}
	return values, nil
}
