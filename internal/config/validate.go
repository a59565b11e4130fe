package config

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"

	"github.com/sweeney/tile-floor/internal/game"
	"github.com/sweeney/tile-floor/internal/gpio"
	"github.com/sweeney/tile-floor/internal/led"
	"github.com/sweeney/tile-floor/internal/logic"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks every field the controller depends on.
func (c *Config) Validate() error {
	if c.Tiles < 1 || c.Tiles > game.MaxTiles {
		return invalid("tiles must be in 1..%d, got %d", game.MaxTiles, c.Tiles)
	}
	if c.Poll <= 0 {
		return invalid("poll must be > 0")
	}
	if c.Heartbeat < 0 {
		return invalid("heartbeat must be >= 0")
	}
	if err := c.validateLayout(); err != nil {
		return err
	}
	if err := c.validateSensor(); err != nil {
		return err
	}
	return c.validateGame()
}

func (c *Config) validateLayout() error {
	switch c.Layout.Scheme {
	case LayoutSegment:
		if len(c.Layout.Segments) == 0 && c.Layout.PixelsPerTile < 1 {
			return invalid("layout.pixels_per_tile must be >= 1")
		}
		if n := len(c.Layout.Segments); n != 0 && n != c.Tiles {
			return invalid("layout.segments has %d entries for %d tiles", n, c.Tiles)
		}
	case LayoutGrid:
		if c.Layout.Width < 1 || c.Layout.Height < 1 {
			return invalid("layout grid %dx%d", c.Layout.Width, c.Layout.Height)
		}
		if c.Layout.Width*c.Layout.Height < c.Tiles {
			return invalid("layout grid %dx%d cannot hold %d tiles", c.Layout.Width, c.Layout.Height, c.Tiles)
		}
	default:
		return invalid("layout.scheme must be %q or %q, got %q", LayoutSegment, LayoutGrid, c.Layout.Scheme)
	}
	if c.LED.Count != 0 && c.LED.Count < c.requiredPixels() {
		return invalid("led.count %d is smaller than the layout (%d pixels)", c.LED.Count, c.requiredPixels())
	}
	if c.LED.Brightness < 0 || c.LED.Brightness > 255 {
		return invalid("led.brightness must be in 0..255")
	}
	return nil
}

func (c *Config) validateSensor() error {
	s := c.Sensor
	if !logic.Polarity(s.Polarity).Valid() {
		return invalid("sensor.polarity must be %q or %q, got %q", logic.PressedLower, logic.PressedHigher, s.Polarity)
	}
	if len(s.Channels) != c.Tiles {
		return invalid("sensor.channels has %d entries for %d tiles", len(s.Channels), c.Tiles)
	}
	pins := len(s.MuxPins)
	if pins == 0 {
		pins = len(gpio.DefaultPins)
	}
	if pins > 6 {
		return invalid("sensor.mux_pins has %d lines, at most 6 are supported", pins)
	}
	seen := mapset.New[int]()
	for _, ch := range s.Channels {
		if ch < 0 {
			return invalid("sensor channel %d is negative", ch)
		}
		if ch >= 1<<pins {
			return invalid("sensor channel %d needs more than %d mux address lines", ch, pins)
		}
		if seen.Has(ch) {
			return invalid("sensor channel %d assigned twice", ch)
		}
		seen.Put(ch)
	}
	if !(s.Alpha > 0 && s.Alpha <= 1) {
		return invalid("sensor.alpha must be in (0,1], got %v", s.Alpha)
	}
	if s.PressDwell < 0 || s.ReleaseDwell < 0 || s.Settle < 0 {
		return invalid("sensor durations must be >= 0")
	}
	if s.Static.Enabled {
		if _, err := logic.StaticCalibration(s.Static.Press, s.Static.Release, logic.Polarity(s.Polarity)); err != nil {
			return invalid("sensor.static: %v", err)
		}
		return nil
	}
	if err := c.CalibrationConfig().Validate(); err != nil {
		return invalid("sensor.calibration: %v", err)
	}
	return nil
}

func (c *Config) validateGame() error {
	g := c.Game
	if p := game.Policy(g.Policy); p != game.PolicyHold && p != game.PolicyReset {
		return invalid("game.policy must be %q or %q, got %q", game.PolicyHold, game.PolicyReset, g.Policy)
	}
	if g.Show < 0 || g.Success < 0 || g.Failure < 0 {
		return invalid("game durations must be >= 0")
	}
	for _, s := range append([]string{g.Colors.Hit, g.Colors.Wrong, g.Colors.Success, g.Colors.Failure}, g.Colors.Tiles...) {
		if _, err := led.ParseColor(s); err != nil {
			return invalid("game.colors: %v", err)
		}
	}
	seq := g.Sequence
	switch seq.Mode {
	case SequenceRandom:
		if seq.Min < 1 || seq.Min > seq.Max || seq.Max > c.Tiles {
			return invalid("need 1 <= sequence.min (%d) <= sequence.max (%d) <= tiles (%d)", seq.Min, seq.Max, c.Tiles)
		}
	case SequenceFixed:
		if _, err := game.NewFixedRotation(seq.Sets, c.Tiles); err != nil {
			return invalid("game.sequence.sets: %v", err)
		}
	default:
		return invalid("game.sequence.mode must be %q or %q, got %q", SequenceFixed, SequenceRandom, seq.Mode)
	}
	return nil
}
