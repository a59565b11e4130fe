package logic

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func scenarioDebouncer(t *testing.T, alpha float64) *Debouncer {
	t.Helper()
	cal := Thresholds(2000, CalibrationConfig{Samples: 1, PressFactor: 0.70, ReleaseFactor: 0.85, Polarity: PressedLower})
	d, err := NewDebouncer([]Calibration{cal}, DebounceConfig{
		Alpha:           alpha,
		Polarity:        PressedLower,
		MinPressDwell:   60 * time.Millisecond,
		MinReleaseDwell: 40 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewDebouncer: %v", err)
	}
	return d
}

// feed drives the debouncer every 10ms from start and returns edges with their offsets.
func feed(d *Debouncer, start time.Time, from, to time.Duration, raw int) []Edge {
	var edges []Edge
	for off := from; off < to; off += 10 * time.Millisecond {
		edges = append(edges, d.Process([]int{raw}, start.Add(off))...)
	}
	return edges
}

func TestNewDebouncerSeedsFromBaseline(t *testing.T) {
	d := scenarioDebouncer(t, 0.5)
	chs := d.Channels()
	if len(chs) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(chs))
	}
	if chs[0].Filtered != 2000 {
		t.Errorf("filtered seed: got %v, want 2000", chs[0].Filtered)
	}
	if chs[0].Stable != Released {
		t.Errorf("initial state: got %s, want RELEASED", chs[0].Stable)
	}
}

func TestNewDebouncerRejectsBadConfig(t *testing.T) {
	cals := []Calibration{{Baseline: 2000, ThrPress: 1400, ThrRelease: 1700}}
	bad := []DebounceConfig{
		{Alpha: 0, Polarity: PressedLower},
		{Alpha: 1.5, Polarity: PressedLower},
		{Alpha: 1},
		{Alpha: 1, Polarity: PressedLower, MinPressDwell: -time.Millisecond},
	}
	for i, cfg := range bad {
		if _, err := NewDebouncer(cals, cfg); err == nil {
			t.Errorf("config %d: expected error", i)
		}
	}
}

func TestScenarioACommitsAtDwell(t *testing.T) {
	d := scenarioDebouncer(t, 1)

	// Sustained 1000 for 80ms: pending at 0ms, commit at 60ms.
	for off := time.Duration(0); off < 80*time.Millisecond; off += 10 * time.Millisecond {
		edges := d.Process([]int{1000}, t0.Add(off))
		pressed := d.Pressed()[0]
		if off < 60*time.Millisecond {
			if len(edges) != 0 || pressed {
				t.Fatalf("at %v: committed before dwell elapsed", off)
			}
			continue
		}
		if off == 60*time.Millisecond {
			if len(edges) != 1 || edges[0].State != Pressed {
				t.Fatalf("at %v: expected press edge, got %v", off, edges)
			}
			if !edges[0].Time.Equal(t0.Add(60 * time.Millisecond)) {
				t.Errorf("edge time: got %v", edges[0].Time)
			}
		}
		if !pressed {
			t.Errorf("at %v: expected pressed", off)
		}
	}
}

func TestTransientPressRejected(t *testing.T) {
	d := scenarioDebouncer(t, 1)

	// 50ms below threshold then back to idle: shorter than 60ms dwell.
	edges := feed(d, t0, 0, 50*time.Millisecond, 1000)
	edges = append(edges, feed(d, t0, 50*time.Millisecond, 300*time.Millisecond, 2000)...)
	if len(edges) != 0 {
		t.Errorf("expected no edges from transient, got %v", edges)
	}
	if d.Pressed()[0] {
		t.Error("transient must not commit a press")
	}
}

func TestReversalRestartsTimer(t *testing.T) {
	d := scenarioDebouncer(t, 1)

	// 40ms pressed, one idle sample, then pressed again.
	feed(d, t0, 0, 40*time.Millisecond, 1000)
	d.Process([]int{2000}, t0.Add(40*time.Millisecond))
	edges := feed(d, t0, 50*time.Millisecond, 110*time.Millisecond, 1000)
	if len(edges) != 0 {
		t.Fatalf("timer should restart at 50ms, got early edge %v", edges)
	}
	edges = d.Process([]int{1000}, t0.Add(110*time.Millisecond))
	if len(edges) != 1 {
		t.Fatalf("expected commit 60ms after restart, got %v", edges)
	}
}

func TestHysteresisGapHoldsPressed(t *testing.T) {
	d := scenarioDebouncer(t, 1)
	feed(d, t0, 0, 70*time.Millisecond, 1000)
	if !d.Pressed()[0] {
		t.Fatal("expected pressed")
	}

	// Noise between thrPress (1400) and thrRelease (1700) never releases.
	start := t0.Add(70 * time.Millisecond)
	for i := 0; i < 50; i++ {
		v := 1450
		if i%2 == 0 {
			v = 1650
		}
		if edges := d.Process([]int{v}, start.Add(time.Duration(i)*10*time.Millisecond)); len(edges) != 0 {
			t.Fatalf("sample %d (%d): unexpected edge %v", i, v, edges)
		}
	}
	if !d.Pressed()[0] {
		t.Error("noise inside the gap must not release")
	}
}

func TestReleaseDwell(t *testing.T) {
	d := scenarioDebouncer(t, 1)
	feed(d, t0, 0, 70*time.Millisecond, 1000)

	start := t0.Add(100 * time.Millisecond)
	var got []Edge
	for off := time.Duration(0); off <= 40*time.Millisecond; off += 10 * time.Millisecond {
		got = append(got, d.Process([]int{2000}, start.Add(off))...)
		if off < 40*time.Millisecond && len(got) != 0 {
			t.Fatalf("released before dwell at %v", off)
		}
	}
	if len(got) != 1 || got[0].State != Released {
		t.Fatalf("expected one release edge, got %v", got)
	}
	if d.Pressed()[0] {
		t.Error("expected released")
	}
}

func TestPreviousTracksLastCycle(t *testing.T) {
	d := scenarioDebouncer(t, 1)
	feed(d, t0, 0, 60*time.Millisecond, 1000)
	d.Process([]int{1000}, t0.Add(60*time.Millisecond))

	if !d.Pressed()[0] || d.Previous()[0] {
		t.Fatalf("commit cycle: pressed=%v previous=%v", d.Pressed()[0], d.Previous()[0])
	}

	d.Process([]int{1000}, t0.Add(70*time.Millisecond))
	if !d.Previous()[0] {
		t.Error("next cycle should see previous=true")
	}

	d.Hold()
	if !d.Previous()[0] || !d.Pressed()[0] {
		t.Error("Hold should keep state and catch previous up")
	}
}

func TestSmoothingDelaysCrossing(t *testing.T) {
	d := scenarioDebouncer(t, 0.5)

	// 2000 -> 1500 -> 1250: crosses 1400 on the second sample.
	d.Process([]int{1000}, t0)
	if got := d.Channels()[0].Filtered; got != 1500 {
		t.Fatalf("filtered after one step: got %v, want 1500", got)
	}
	d.Process([]int{1000}, t0.Add(10*time.Millisecond))
	ch := d.Channels()[0]
	if !ch.Pending {
		t.Fatal("expected pending candidate once filtered value crossed")
	}
	if !ch.PendingSince.Equal(t0.Add(10 * time.Millisecond)) {
		t.Errorf("pending since: got %v", ch.PendingSince)
	}
}

func TestOutOfRangeSampleAttenuated(t *testing.T) {
	d := scenarioDebouncer(t, 0.05)

	// One wild sample is smoothed and never reaches the press threshold.
	edges := d.Process([]int{-5000}, t0)
	edges = append(edges, feed(d, t0, 10*time.Millisecond, 500*time.Millisecond, 2000)...)
	if len(edges) != 0 || d.Pressed()[0] {
		t.Errorf("single bad sample must not press: edges=%v", edges)
	}
}

func TestPressedHigherPolarity(t *testing.T) {
	cal := Thresholds(1000, CalibrationConfig{Samples: 1, PressFactor: 0.5, ReleaseFactor: 0.8, Polarity: PressedHigher})
	d, err := NewDebouncer([]Calibration{cal}, DebounceConfig{Alpha: 1, Polarity: PressedHigher, MinPressDwell: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewDebouncer: %v", err)
	}

	edges := feed(d, t0, 0, 30*time.Millisecond, 2500)
	if len(edges) != 1 || edges[0].State != Pressed {
		t.Fatalf("expected press edge, got %v", edges)
	}
	edges = feed(d, t0, 30*time.Millisecond, 40*time.Millisecond, 1000)
	if len(edges) != 1 || edges[0].State != Released {
		t.Fatalf("expected immediate release with zero dwell, got %v", edges)
	}
	if !d.AllReleased() {
		t.Error("expected all released")
	}
}

func TestSmootherValidate(t *testing.T) {
	for _, a := range []float64{0.01, 0.5, 1} {
		if err := (Smoother{Alpha: a}).Validate(); err != nil {
			t.Errorf("alpha %v: unexpected error %v", a, err)
		}
	}
	for _, a := range []float64{0, -0.1, 1.01} {
		if err := (Smoother{Alpha: a}).Validate(); err == nil {
			t.Errorf("alpha %v: expected error", a)
		}
	}
	if got := (Smoother{Alpha: 0.25}).Apply(100, 200); got != 125 {
		t.Errorf("Apply: got %v, want 125", got)
	}
}

func TestDegenerateChannelNeverPresses(t *testing.T) {
	tests := []struct {
		name     string
		polarity Polarity
		level    int
	}{
		{"lower at ground", PressedLower, SampleMin},
		{"higher at ground", PressedHigher, SampleMin},
		{"higher at rail", PressedHigher, SampleMax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := CalibrationConfig{Samples: 1, PressFactor: 0.70, ReleaseFactor: 0.85, Polarity: tt.polarity}
			stuck := Thresholds(float64(tt.level), cfg)
			if !stuck.Degenerate {
				t.Fatalf("baseline %d should be degenerate: %+v", tt.level, stuck)
			}
			d, err := NewDebouncer([]Calibration{stuck, Thresholds(2000, cfg)}, DebounceConfig{
				Alpha:         1,
				Polarity:      tt.polarity,
				MinPressDwell: 20 * time.Millisecond,
			})
			if err != nil {
				t.Fatalf("NewDebouncer: %v", err)
			}

			for off := time.Duration(0); off < 500*time.Millisecond; off += 10 * time.Millisecond {
				for _, e := range d.Process([]int{tt.level, 2000}, t0.Add(off)) {
					t.Fatalf("at %v: unexpected edge %+v", off, e)
				}
			}
			if d.Pressed()[0] || d.Channels()[0].Pending {
				t.Error("stuck channel must stay released with nothing pending")
			}
			if !d.AllReleased() {
				t.Error("a stuck channel must not block AllReleased")
			}
		})
	}
}
