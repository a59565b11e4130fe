package game

import (
	"time"

	"github.com/sweeney/tile-floor/internal/led"
)

// Transition computes the next state for ev. It draws from src only when a
// new target is loaded.
func Transition(cfg Config, src Source, s State, ev Event) (State, Output) {
	switch ev.Kind {
	case EventStop:
		return stop(s, ev.Time)
	case EventStart, EventReset:
		if r, ok := src.(Rewinder); ok {
			r.Rewind()
		}
		return load(cfg, src, s, ev.Time, Output{})
	case EventTick:
		return tick(cfg, src, s, ev)
	}
	return s, Output{}
}

func stop(s State, now time.Time) (State, Output) {
	var out Output
	out.effect(Effect{Kind: EffectClear})
	if s.Phase != PhaseIdle && s.Phase != "" {
		out.notice(Notice{Type: NoticeGameStopped, Time: now, Round: s.Round})
	}
	return State{Phase: PhaseIdle, Since: now, Round: s.Round}, out
}

func tick(cfg Config, src Source, s State, ev Event) (State, Output) {
	if s.Phase == PhaseIdle || s.Phase == "" {
		return s, Output{}
	}
	if len(ev.Pressed) != cfg.Tiles || len(ev.Previous) != cfg.Tiles {
		// Unusable input: blank the floor and hold state.
		return s, Output{Effects: []Effect{{Kind: EffectClear}}}
	}

	elapsed := ev.Time.Sub(s.Since)
	switch s.Phase {
	case PhaseShowing:
		if elapsed < cfg.ShowDuration {
			return s, Output{}
		}
		s.Phase = PhaseWaiting
		s.Since = ev.Time
		return s, Output{Effects: []Effect{{Kind: EffectClear}}}

	case PhaseWaiting:
		return waiting(cfg, src, s, ev)

	case PhaseWrongHeld:
		for _, p := range ev.Pressed {
			if p {
				return s, Output{}
			}
		}
		return load(cfg, src, s, ev.Time, Output{})

	case PhaseSuccess:
		if elapsed < cfg.SuccessDuration {
			return s, Output{}
		}
		return load(cfg, src, s, ev.Time, Output{})

	case PhaseFailure:
		if elapsed < cfg.FailureDuration {
			return s, Output{}
		}
		return load(cfg, src, s, ev.Time, Output{})
	}
	return s, Output{}
}

func waiting(cfg Config, src Source, s State, ev Event) (State, Output) {
	var out Output
	wrong := false

	for i := 0; i < cfg.Tiles; i++ {
		if !ev.Pressed[i] || ev.Previous[i] {
			continue
		}
		if !s.Required.Has(i) {
			wrong = true
			out.notice(Notice{Type: NoticeWrongPress, Time: ev.Time, Round: s.Round, Tile: i + 1, Target: s.Target})
			continue
		}
		if !s.Progress.Has(i) {
			s.Progress = s.Progress.Add(i)
			out.notice(Notice{Type: NoticeTileHit, Time: ev.Time, Round: s.Round, Tile: i + 1, Target: s.Target})
		}
	}

	for i := 0; i < cfg.Tiles; i++ {
		c := cfg.HitColor
		switch {
		case !ev.Pressed[i]:
			c = led.Off
		case !s.Required.Has(i):
			c = cfg.WrongColor
		}
		out.effect(Effect{Kind: EffectTile, Tile: i, Color: c})
	}

	// A wrong press outranks a completing press in the same cycle.
	if wrong {
		s.Since = ev.Time
		if cfg.Policy == PolicyHold {
			s.Phase = PhaseWrongHeld
			return s, out
		}
		s.Phase = PhaseFailure
		out.effect(Effect{Kind: EffectFill, Color: cfg.FailureColor})
		if cfg.FailureDuration <= 0 {
			return load(cfg, src, s, ev.Time, out)
		}
		return s, out
	}

	if s.Progress != s.Required {
		return s, out
	}

	s.Phase = PhaseSuccess
	s.Since = ev.Time
	out.effect(Effect{Kind: EffectFill, Color: cfg.SuccessColor})
	out.notice(Notice{Type: NoticeRoundComplete, Time: ev.Time, Round: s.Round, Target: s.Target})
	if cfg.SuccessDuration <= 0 {
		return load(cfg, src, s, ev.Time, out)
	}
	return s, out
}

// load draws the next target and shows it. Labels outside the floor or
// repeated are dropped; an empty result leaves the floor idle and blank.
func load(cfg Config, src Source, s State, now time.Time, out Output) (State, Output) {
	labels := src.NextSet()

	var required TileSet
	target := make([]int, 0, len(labels))
	for _, label := range labels {
		i := label - 1
		if i < 0 || i >= cfg.Tiles || required.Has(i) {
			continue
		}
		required = required.Add(i)
		target = append(target, label)
	}

	out.effect(Effect{Kind: EffectClear})
	if required == 0 {
		return State{Phase: PhaseIdle, Since: now, Round: s.Round}, out
	}

	next := State{
		Phase:    PhaseShowing,
		Since:    now,
		Round:    s.Round + 1,
		Target:   target,
		Required: required,
	}
	for _, i := range required.Indices() {
		out.effect(Effect{Kind: EffectTile, Tile: i, Color: cfg.TileColor(i)})
	}
	out.notice(Notice{Type: NoticeRoundStarted, Time: now, Round: next.Round, Target: target})
	return next, out
}
