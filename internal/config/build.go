package config

import (
	"fmt"
	"math/rand/v2"

	"github.com/sweeney/tile-floor/internal/floor"
	"github.com/sweeney/tile-floor/internal/game"
	"github.com/sweeney/tile-floor/internal/led"
	"github.com/sweeney/tile-floor/internal/logic"
	"github.com/sweeney/tile-floor/internal/sensor"
)

// CalibrationConfig returns the calibration settings.
func (c *Config) CalibrationConfig() logic.CalibrationConfig {
	return logic.CalibrationConfig{
		Samples:       c.Sensor.Calibration.Samples,
		PressFactor:   c.Sensor.Calibration.PressFactor,
		ReleaseFactor: c.Sensor.Calibration.ReleaseFactor,
		Polarity:      logic.Polarity(c.Sensor.Polarity),
	}
}

// DebounceConfig returns the filter and dwell settings.
func (c *Config) DebounceConfig() logic.DebounceConfig {
	return logic.DebounceConfig{
		Alpha:           c.Sensor.Alpha,
		Polarity:        logic.Polarity(c.Sensor.Polarity),
		MinPressDwell:   c.Sensor.PressDwell,
		MinReleaseDwell: c.Sensor.ReleaseDwell,
	}
}

// FloorConfig returns the controller settings.
func (c *Config) FloorConfig() floor.Config {
	fc := floor.Config{
		Channels:    append([]int(nil), c.Sensor.Channels...),
		Calibration: c.CalibrationConfig(),
		Debounce:    c.DebounceConfig(),
		Autostart:   c.Game.Autostart,
	}
	if c.Sensor.Static.Enabled {
		fc.Static = &floor.StaticThresholds{Press: c.Sensor.Static.Press, Release: c.Sensor.Static.Release}
	}
	return fc
}

// GameConfig returns the engine settings with colors parsed.
func (c *Config) GameConfig() (game.Config, error) {
	g := game.DefaultConfig(c.Tiles)
	g.Policy = game.Policy(c.Game.Policy)
	g.ShowDuration = c.Game.Show
	g.SuccessDuration = c.Game.Success
	g.FailureDuration = c.Game.Failure

	var err error
	for _, f := range []struct {
		src string
		dst *led.Color
	}{
		{c.Game.Colors.Hit, &g.HitColor},
		{c.Game.Colors.Wrong, &g.WrongColor},
		{c.Game.Colors.Success, &g.SuccessColor},
		{c.Game.Colors.Failure, &g.FailureColor},
	} {
		if *f.dst, err = led.ParseColor(f.src); err != nil {
			return game.Config{}, err
		}
	}
	for _, s := range c.Game.Colors.Tiles {
		col, err := led.ParseColor(s)
		if err != nil {
			return game.Config{}, err
		}
		g.TileColors = append(g.TileColors, col)
	}
	return g, nil
}

// Source builds the configured sequence source. rng may be nil.
func (c *Config) Source(rng *rand.Rand) (game.Source, error) {
	seq := c.Game.Sequence
	switch seq.Mode {
	case SequenceFixed:
		f, err := game.NewFixedRotation(seq.Sets, c.Tiles)
		if err != nil {
			return nil, err
		}
		return f, nil
	case SequenceRandom:
		r, err := game.NewRandomSet(c.Tiles, seq.Min, seq.Max, rng)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, fmt.Errorf("%w: sequence mode %q", ErrInvalid, seq.Mode)
}

func (c *Config) requiredPixels() int {
	if c.Layout.Scheme == LayoutGrid {
		return c.Layout.Width * c.Layout.Height
	}
	if len(c.Layout.Segments) > 0 {
		n := 0
		for _, s := range c.Layout.Segments {
			n = max(n, s.End)
		}
		return n
	}
	return c.Tiles * c.Layout.PixelsPerTile
}

// LEDCount is the strip length to drive.
func (c *Config) LEDCount() int {
	if c.LED.Count > 0 {
		return c.LED.Count
	}
	return c.requiredPixels()
}

// Mapper builds the tile mapper for strip.
func (c *Config) Mapper(strip led.Strip) (led.Mapper, error) {
	if c.Layout.Scheme == LayoutGrid {
		return led.NewGridMapper(strip, c.Layout.Width, c.Layout.Height)
	}
	if len(c.Layout.Segments) == 0 {
		return led.NewSegmentMapper(strip, led.UniformSegments(c.Tiles, c.Layout.PixelsPerTile))
	}
	ranges := make([]led.Range, len(c.Layout.Segments))
	for i, s := range c.Layout.Segments {
		ranges[i] = led.Range{Start: s.Start, End: s.End}
	}
	return led.NewSegmentMapper(strip, ranges)
}

// SensorHardware returns the mux/ADC settings for the real driver.
func (c *Config) SensorHardware() sensor.RealConfig {
	return sensor.RealConfig{
		Chip:        c.Sensor.GPIOChip,
		AddressPins: append([]int(nil), c.Sensor.MuxPins...),
		SPIPort:     c.Sensor.SPIPort,
		ADCChannel:  c.Sensor.ADCChannel,
	}
}

// StripHardware returns the WS281x settings for the real strip.
func (c *Config) StripHardware() led.RealConfig {
	return led.RealConfig{
		GPIOPin:    c.LED.Pin,
		Count:      c.LEDCount(),
		Brightness: c.LED.Brightness,
	}
}
