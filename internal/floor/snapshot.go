package floor

import (
	"time"

	"github.com/sweeney/tile-floor/internal/game"
	"github.com/sweeney/tile-floor/internal/logic"
)

// Snapshot is a point-in-time copy of controller state, safe to hand to
// other goroutines.
type Snapshot struct {
	Polling      bool
	Game         game.State
	RoundID      string
	Pressed      []bool
	Channels     []logic.Channel
	CalibratedAt time.Time
	Counts       Counts
}

// Snapshot copies the current state. Call it from the cycle goroutine.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Polling:      c.polling,
		Game:         c.engine.State(),
		RoundID:      c.engine.RoundID(),
		CalibratedAt: c.calibratedAt,
		Counts:       c.counts,
	}
	if c.debouncer != nil {
		s.Pressed = c.debouncer.Pressed()
		s.Channels = c.debouncer.Channels()
	}
	return s
}
