// Package led maps logical floor tiles onto an addressable LED strip.
// The real strip uses the rpi_ws281x library. The fake strip allows testing
// without hardware.
package led

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a 24-bit 0xRRGGBB value.
type Color uint32

// Palette used by the game.
const (
	Off     Color = 0x000000
	Red     Color = 0xFF0000
	Green   Color = 0x00FF00
	Blue    Color = 0x0000FF
	Yellow  Color = 0xFFFF00
	Cyan    Color = 0x00FFFF
	Magenta Color = 0xFF00FF
	Orange  Color = 0xFF8000
	White   Color = 0xFFFFFF
)

// Palette is the default rotation of tile display colors.
var Palette = []Color{Blue, Yellow, Cyan, Magenta, Orange, White}

// String formats c as #RRGGBB.
func (c Color) String() string {
	return fmt.Sprintf("#%06X", uint32(c)&0xFFFFFF)
}

// ParseColor reads "#RRGGBB", "RRGGBB" or "0xRRGGBB".
func ParseColor(s string) (Color, error) {
	h := strings.TrimSpace(s)
	h = strings.TrimPrefix(h, "#")
	h = strings.TrimPrefix(strings.TrimPrefix(h, "0x"), "0X")
	if len(h) != 6 {
		return Off, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Off, fmt.Errorf("color %q: %w", s, err)
	}
	return Color(v), nil
}

// Strip is the LED driver boundary.
type Strip interface {
	// Len returns the number of pixels.
	Len() int

	// SetPixel stages a color. Out-of-range indices are ignored.
	SetPixel(i int, c Color)

	// Clear stages every pixel off.
	Clear()

	// Show pushes the staged frame to the LEDs.
	Show() error

	// Close blanks the strip and releases resources.
	Close() error
}
