package logic

import (
	"fmt"
	"time"
)

// DebounceConfig parameterizes the per-channel hysteresis state machine.
type DebounceConfig struct {
	Alpha           float64
	Polarity        Polarity
	MinPressDwell   time.Duration
	MinReleaseDwell time.Duration
}

// Debouncer filters raw samples and converts them into stable press states.
// It owns one Channel record per pad, indexed by tile.
type Debouncer struct {
	cfg      DebounceConfig
	smoother Smoother
	channels []Channel
}

// NewDebouncer creates a debouncer for the given calibrations.
func NewDebouncer(cals []Calibration, cfg DebounceConfig) (*Debouncer, error) {
	sm := Smoother{Alpha: cfg.Alpha}
	if err := sm.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Polarity.Valid() {
		return nil, fmt.Errorf("unknown polarity %q", cfg.Polarity)
	}
	if cfg.MinPressDwell < 0 || cfg.MinReleaseDwell < 0 {
		return nil, fmt.Errorf("dwell times must be >= 0")
	}

	chs := make([]Channel, len(cals))
	for i, c := range cals {
		chs[i] = Channel{
			ID:         i,
			Baseline:   c.Baseline,
			ThrPress:   c.ThrPress,
			ThrRelease: c.ThrRelease,
			Degenerate: c.Degenerate,
			Filtered:   c.Baseline,
			Stable:     Released,
			Previous:   Released,
		}
	}
	return &Debouncer{cfg: cfg, smoother: sm, channels: chs}, nil
}

// Process consumes one raw sample per channel and returns committed edges.
// Samples outside the ADC range are filtered like any other sample.
func (d *Debouncer) Process(raw []int, now time.Time) []Edge {
	var edges []Edge
	for i := range d.channels {
		ch := &d.channels[i]
		ch.Previous = ch.Stable
		if i >= len(raw) {
			continue
		}
		ch.Filtered = d.smoother.Apply(ch.Filtered, raw[i])
		if e := d.processChannel(ch, now); e != nil {
			edges = append(edges, *e)
		}
	}
	return edges
}

// Hold advances a cycle without new samples: previous states catch up so no
// edge is reported twice, and pending candidates are left as they are.
func (d *Debouncer) Hold() {
	for i := range d.channels {
		d.channels[i].Previous = d.channels[i].Stable
	}
}

func (d *Debouncer) processChannel(ch *Channel, now time.Time) *Edge {
	// A pad calibrated onto a rail has no usable threshold; it stays inert.
	if ch.Degenerate {
		ch.Pending = false
		return nil
	}

	var crossing bool
	var dwell time.Duration
	var target PressState

	if ch.Stable == Released {
		crossing = d.pressedSide(ch.Filtered, ch.ThrPress)
		dwell = d.cfg.MinPressDwell
		target = Pressed
	} else {
		crossing = d.releasedSide(ch.Filtered, ch.ThrRelease)
		dwell = d.cfg.MinReleaseDwell
		target = Released
	}

	if !crossing {
		// Reversal cancels any candidate.
		ch.Pending = false
		return nil
	}

	if !ch.Pending {
		ch.Pending = true
		ch.PendingSince = now
	}
	if now.Sub(ch.PendingSince) < dwell {
		return nil
	}

	ch.Stable = target
	ch.Pending = false
	ch.LastEdge = now
	return &Edge{Channel: ch.ID, State: target, Time: now}
}

func (d *Debouncer) pressedSide(v, thr float64) bool {
	if d.cfg.Polarity == PressedHigher {
		return v >= thr
	}
	return v <= thr
}

func (d *Debouncer) releasedSide(v, thr float64) bool {
	if d.cfg.Polarity == PressedHigher {
		return v < thr
	}
	return v > thr
}

// Pressed returns the committed state of every channel for this cycle.
func (d *Debouncer) Pressed() []bool {
	out := make([]bool, len(d.channels))
	for i, ch := range d.channels {
		out[i] = ch.Stable == Pressed
	}
	return out
}

// Previous returns the committed state of every channel for the prior cycle.
func (d *Debouncer) Previous() []bool {
	out := make([]bool, len(d.channels))
	for i, ch := range d.channels {
		out[i] = ch.Previous == Pressed
	}
	return out
}

// AllReleased reports whether no channel is pressed.
func (d *Debouncer) AllReleased() bool {
	for _, ch := range d.channels {
		if ch.Stable == Pressed {
			return false
		}
	}
	return true
}

// Channels returns a copy of the channel records.
func (d *Debouncer) Channels() []Channel {
	out := make([]Channel, len(d.channels))
	copy(out, d.channels)
	return out
}

// Len returns the number of channels.
func (d *Debouncer) Len() int {
	return len(d.channels)
}
