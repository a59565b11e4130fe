package logic

import "time"

// PressState is the debounced state of one pad.
type PressState string

const (
	Released PressState = "RELEASED"
	Pressed  PressState = "PRESSED"
)

// Polarity says which way a pad's reading moves when it is stepped on.
// It is a wiring property of each build and has no default.
type Polarity string

const (
	PressedLower  Polarity = "lower"
	PressedHigher Polarity = "higher"
)

// Valid reports whether p is a known polarity.
func (p Polarity) Valid() bool {
	return p == PressedLower || p == PressedHigher
}

// Sample range the thresholds are clamped to.
const (
	SampleMin = 0
	SampleMax = 4095
)

// Channel is the per-pad record owned by a Debouncer.
type Channel struct {
	ID         int
	Baseline   float64
	ThrPress   float64
	ThrRelease float64
	Degenerate bool

	Filtered float64
	Stable   PressState
	Previous PressState

	// Candidate transition and when its condition first held.
	Pending      bool
	PendingSince time.Time

	LastEdge time.Time
}

// Edge is a committed state change.
type Edge struct {
	Channel int
	State   PressState
	Time    time.Time
}
