//go:build linux && cgo

package led

import (
	"fmt"

	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"
)

// RealConfig describes the WS281x strip.
type RealConfig struct {
	GPIOPin    int
	Count      int
	Brightness int
}

// RealStrip drives a WS281x strip through rpi_ws281x.
type RealStrip struct {
	dev  *ws2811.WS2811
	leds []uint32
}

// NewRealStrip initializes the strip. Requires root for DMA access.
func NewRealStrip(cfg RealConfig) (*RealStrip, error) {
	opt := ws2811.DefaultOptions
	opt.Channels[0].GpioPin = cfg.GPIOPin
	opt.Channels[0].LedCount = cfg.Count
	opt.Channels[0].Brightness = cfg.Brightness

	dev, err := ws2811.MakeWS2811(&opt)
	if err != nil {
		return nil, fmt.Errorf("make ws2811: %w", err)
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("init ws2811: %w", err)
	}
	return &RealStrip{dev: dev, leds: dev.Leds(0)}, nil
}

// Len returns the number of pixels.
func (s *RealStrip) Len() int { return len(s.leds) }

// SetPixel stages a color.
func (s *RealStrip) SetPixel(i int, c Color) {
	if i < 0 || i >= len(s.leds) {
		return
	}
	s.leds[i] = uint32(c)
}

// Clear stages every pixel off.
func (s *RealStrip) Clear() {
	for i := range s.leds {
		s.leds[i] = 0
	}
}

// Show renders the staged frame.
func (s *RealStrip) Show() error {
	if err := s.dev.Render(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// Close blanks the strip and releases the DMA channel.
func (s *RealStrip) Close() error {
	s.Clear()
	err := s.dev.Render()
	s.dev.Fini()
	if err != nil {
		return fmt.Errorf("blank on close: %w", err)
	}
	return nil
}
