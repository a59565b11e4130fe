package logic

import (
	"fmt"
	"math"
)

// Sampler is the view of the sensor reader calibration needs.
type Sampler interface {
	Select(id int) error
	Sample(id int) (int, error)
}

// CalibrationConfig controls baseline capture and threshold derivation.
type CalibrationConfig struct {
	Samples       int
	PressFactor   float64
	ReleaseFactor float64
	Polarity      Polarity
}

// Calibration is the result for one channel.
type Calibration struct {
	Baseline   float64
	ThrPress   float64
	ThrRelease float64

	// Degenerate is set when the baseline sits on a rail or clamping
	// closed the hysteresis gap. The pad may never register presses.
	Degenerate bool
}

// Validate checks the factor ordering pressFactor < releaseFactor < 1.
func (c CalibrationConfig) Validate() error {
	if c.Samples < 1 {
		return fmt.Errorf("calibration samples must be >= 1, got %d", c.Samples)
	}
	if !c.Polarity.Valid() {
		return fmt.Errorf("unknown polarity %q", c.Polarity)
	}
	if !(c.PressFactor > 0 && c.PressFactor < c.ReleaseFactor && c.ReleaseFactor < 1) {
		return fmt.Errorf("need 0 < press_factor (%v) < release_factor (%v) < 1", c.PressFactor, c.ReleaseFactor)
	}
	return nil
}

// Calibrate captures an idle baseline on each channel and derives thresholds.
// Every pad must be unoccupied while this runs.
func Calibrate(s Sampler, channels []int, cfg CalibrationConfig) ([]Calibration, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	out := make([]Calibration, len(channels))
	for i, ch := range channels {
		if err := s.Select(ch); err != nil {
			return nil, fmt.Errorf("calibrate channel %d: %w", ch, err)
		}
		// First sample after switching the mux is discarded.
		if _, err := s.Sample(ch); err != nil {
			return nil, fmt.Errorf("calibrate channel %d: %w", ch, err)
		}

		var sum float64
		for n := 0; n < cfg.Samples; n++ {
			v, err := s.Sample(ch)
			if err != nil {
				return nil, fmt.Errorf("calibrate channel %d: %w", ch, err)
			}
			sum += float64(v)
		}
		out[i] = Thresholds(sum/float64(cfg.Samples), cfg)
	}
	return out, nil
}

// Thresholds derives clamped press/release thresholds from a baseline.
func Thresholds(baseline float64, cfg CalibrationConfig) Calibration {
	c := Calibration{Baseline: baseline}

	switch cfg.Polarity {
	case PressedHigher:
		c.ThrPress = baseline / cfg.PressFactor
		c.ThrRelease = baseline / cfg.ReleaseFactor
	default:
		c.ThrPress = baseline * cfg.PressFactor
		c.ThrRelease = baseline * cfg.ReleaseFactor
	}
	c.ThrPress = clamp(c.ThrPress)
	c.ThrRelease = clamp(c.ThrRelease)

	c.Degenerate = baseline <= SampleMin || baseline >= SampleMax || c.ThrPress == c.ThrRelease
	return c
}

// StaticCalibration builds a calibration from fixed thresholds. The nominal
// baseline sits one hysteresis gap beyond thrRelease on the released side.
func StaticCalibration(thrPress, thrRelease float64, polarity Polarity) (Calibration, error) {
	if !polarity.Valid() {
		return Calibration{}, fmt.Errorf("unknown polarity %q", polarity)
	}
	c := Calibration{ThrPress: clamp(thrPress), ThrRelease: clamp(thrRelease)}
	if c.ThrPress == c.ThrRelease {
		return Calibration{}, fmt.Errorf("press (%v) and release (%v) thresholds must differ within %d..%d", thrPress, thrRelease, SampleMin, SampleMax)
	}
	switch polarity {
	case PressedHigher:
		if c.ThrPress < c.ThrRelease {
			return Calibration{}, fmt.Errorf("pressed-higher needs press (%v) > release (%v)", thrPress, thrRelease)
		}
	default:
		if c.ThrPress > c.ThrRelease {
			return Calibration{}, fmt.Errorf("pressed-lower needs press (%v) < release (%v)", thrPress, thrRelease)
		}
	}
	c.Baseline = clamp(c.ThrRelease + (c.ThrRelease - c.ThrPress))
	return c, nil
}

func clamp(v float64) float64 {
	return math.Max(SampleMin, math.Min(SampleMax, v))
}
