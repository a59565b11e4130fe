// Package game contains the floor game's sequence engine.
// The transition function is pure apart from drawing target sets from the
// Source. Time is always injected via Event.Time.
package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/tile-floor/internal/led"
)

// Phase is the engine's state.
type Phase string

const (
	PhaseIdle      Phase = "IDLE"
	PhaseShowing   Phase = "SHOWING"
	PhaseWaiting   Phase = "WAITING"
	PhaseWrongHeld Phase = "WRONG_HELD"
	PhaseSuccess   Phase = "SUCCESS"
	PhaseFailure   Phase = "FAILURE"
)

// Policy selects what a wrong press does.
type Policy string

const (
	// PolicyHold freezes the board until every tile is released.
	PolicyHold Policy = "hold"
	// PolicyReset flashes a failure and loads a new target without waiting.
	PolicyReset Policy = "reset"
)

// Config parameterizes the engine.
type Config struct {
	Tiles  int
	Policy Policy

	ShowDuration    time.Duration
	SuccessDuration time.Duration
	FailureDuration time.Duration

	// TileColors assigns each tile its display color while a target is
	// shown. Tiles past the end cycle through led.Palette.
	TileColors []led.Color

	HitColor     led.Color
	WrongColor   led.Color
	SuccessColor led.Color
	FailureColor led.Color
}

// DefaultConfig returns a config for a floor of the given size.
func DefaultConfig(tiles int) Config {
	return Config{
		Tiles:           tiles,
		Policy:          PolicyHold,
		ShowDuration:    2 * time.Second,
		SuccessDuration: 600 * time.Millisecond,
		FailureDuration: 600 * time.Millisecond,
		HitColor:        led.Green,
		WrongColor:      led.Red,
		SuccessColor:    led.Green,
		FailureColor:    led.Red,
	}
}

// Validate checks the config can drive a game.
func (c Config) Validate() error {
	if c.Tiles < 1 || c.Tiles > MaxTiles {
		return fmt.Errorf("tiles must be in 1..%d, got %d", MaxTiles, c.Tiles)
	}
	if c.Policy != PolicyHold && c.Policy != PolicyReset {
		return fmt.Errorf("unknown wrong-press policy %q", c.Policy)
	}
	if c.ShowDuration < 0 || c.SuccessDuration < 0 || c.FailureDuration < 0 {
		return errors.New("durations must be >= 0")
	}
	return nil
}

// TileColor returns the display color for tile i.
func (c Config) TileColor(i int) led.Color {
	if i >= 0 && i < len(c.TileColors) {
		return c.TileColors[i]
	}
	return led.Palette[i%len(led.Palette)]
}

// State is a snapshot of the engine.
type State struct {
	Phase Phase
	Since time.Time
	Round int

	// Target is the current set as 1-based labels in source order.
	Target   []int
	Required TileSet
	Progress TileSet
}

// EventKind distinguishes lifecycle commands from poll ticks.
type EventKind string

const (
	EventStart EventKind = "START"
	EventReset EventKind = "RESET"
	EventStop  EventKind = "STOP"
	EventTick  EventKind = "TICK"
)

// Event is one input to the transition function.
type Event struct {
	Kind EventKind
	Time time.Time

	// Pressed and Previous are the debounced press states for this cycle
	// and the one before. Tick only.
	Pressed  []bool
	Previous []bool
}

// EffectKind names a display side effect.
type EffectKind string

const (
	EffectClear EffectKind = "CLEAR"
	EffectFill  EffectKind = "FILL"
	EffectTile  EffectKind = "TILE"
)

// Effect is a display command for the LED mapper.
type Effect struct {
	Kind  EffectKind
	Tile  int
	Color led.Color
}

// NoticeType names a gameplay event worth publishing.
type NoticeType string

const (
	NoticeRoundStarted  NoticeType = "ROUND_STARTED"
	NoticeTileHit       NoticeType = "TILE_HIT"
	NoticeWrongPress    NoticeType = "WRONG_PRESS"
	NoticeRoundComplete NoticeType = "ROUND_COMPLETE"
	NoticeGameStopped   NoticeType = "GAME_STOPPED"
)

// Notice is a gameplay event.
type Notice struct {
	Type    NoticeType
	Time    time.Time
	Round   int
	RoundID string
	Tile    int // 1-based label, 0 when not tile specific
	Target  []int
}

// Output carries the side effects of one transition.
type Output struct {
	Effects []Effect
	Notices []Notice
}

func (o *Output) effect(e Effect) {
	o.Effects = append(o.Effects, e)
}

func (o *Output) notice(n Notice) {
	o.Notices = append(o.Notices, n)
}
