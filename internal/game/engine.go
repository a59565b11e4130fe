package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/tile-floor/internal/led"
)

// Engine owns the game state and applies transition effects to the floor.
// It is not safe for concurrent use; the poll loop is its only caller.
type Engine struct {
	cfg     Config
	src     Source
	mapper  led.Mapper
	state   State
	roundID string
	newID   func() string
}

// NewEngine creates an idle engine.
func NewEngine(cfg Config, src Source, mapper led.Mapper) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: no sequence source", ErrInvalidSequence)
	}
	if mapper.Tiles() < cfg.Tiles {
		return nil, fmt.Errorf("mapper has %d tiles, game needs %d", mapper.Tiles(), cfg.Tiles)
	}
	return &Engine{
		cfg:    cfg,
		src:    src,
		mapper: mapper,
		state:  State{Phase: PhaseIdle},
		newID:  uuid.NewString,
	}, nil
}

// Start loads the first target set.
func (e *Engine) Start(now time.Time) (Output, error) {
	return e.Handle(Event{Kind: EventStart, Time: now})
}

// Reset abandons the current round and loads a fresh target.
func (e *Engine) Reset(now time.Time) (Output, error) {
	return e.Handle(Event{Kind: EventReset, Time: now})
}

// Stop returns the engine to idle and clears the floor.
func (e *Engine) Stop(now time.Time) (Output, error) {
	return e.Handle(Event{Kind: EventStop, Time: now})
}

// Tick advances the engine by one poll cycle.
func (e *Engine) Tick(now time.Time, pressed, previous []bool) (Output, error) {
	return e.Handle(Event{Kind: EventTick, Time: now, Pressed: pressed, Previous: previous})
}

// Handle runs one transition, applies its effects and shows the frame.
// The returned error only reports a failed frame push; state has advanced.
func (e *Engine) Handle(ev Event) (Output, error) {
	prevRound, prevID := e.state.Round, e.roundID
	next, out := Transition(e.cfg, e.src, e.state, ev)

	if next.Round != prevRound {
		e.roundID = e.newID()
	}
	for i := range out.Notices {
		if out.Notices[i].Round == prevRound {
			out.Notices[i].RoundID = prevID
		} else {
			out.Notices[i].RoundID = e.roundID
		}
	}
	e.state = next

	if len(out.Effects) == 0 {
		return out, nil
	}
	for _, eff := range out.Effects {
		switch eff.Kind {
		case EffectClear:
			e.mapper.ClearAll()
		case EffectFill:
			e.mapper.Fill(eff.Color)
		case EffectTile:
			e.mapper.SetTileColor(eff.Tile, eff.Color)
		}
	}
	if err := e.mapper.Show(); err != nil {
		return out, fmt.Errorf("show frame: %w", err)
	}
	return out, nil
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	s := e.state
	s.Target = append([]int(nil), e.state.Target...)
	return s
}

// RoundID returns the id of the current round, empty before the first.
func (e *Engine) RoundID() string {
	return e.roundID
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}
