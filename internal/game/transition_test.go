package game

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/sweeney/tile-floor/internal/led"
)

var start = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	t       *testing.T
	cfg     Config
	src     Source
	s       State
	now     time.Time
	pressed []bool
	prev    []bool
	notices []Notice
}

func newHarness(t *testing.T, policy Policy, src Source) *harness {
	t.Helper()
	cfg := DefaultConfig(9)
	cfg.Policy = policy
	cfg.ShowDuration = time.Second
	cfg.SuccessDuration = 500 * time.Millisecond
	cfg.FailureDuration = 300 * time.Millisecond
	if src == nil {
		var err error
		src, err = NewFixedRotation([][]int{{2, 5}, {1}, {3}}, 9)
		if err != nil {
			t.Fatalf("NewFixedRotation: %v", err)
		}
	}
	return &harness{
		t:       t,
		cfg:     cfg,
		src:     src,
		s:       State{Phase: PhaseIdle},
		now:     start,
		pressed: make([]bool, 9),
		prev:    make([]bool, 9),
	}
}

func (h *harness) handle(ev Event) Output {
	next, out := Transition(h.cfg, h.src, h.s, ev)
	h.s = next
	h.notices = append(h.notices, out.Notices...)
	return out
}

func (h *harness) start() Output {
	return h.handle(Event{Kind: EventStart, Time: h.now})
}

func (h *harness) tick() Output {
	ev := Event{
		Kind:     EventTick,
		Time:     h.now,
		Pressed:  append([]bool(nil), h.pressed...),
		Previous: append([]bool(nil), h.prev...),
	}
	copy(h.prev, h.pressed)
	return h.handle(ev)
}

// advance moves the clock by d and runs one tick with unchanged presses.
func (h *harness) advance(d time.Duration) Output {
	h.now = h.now.Add(d)
	return h.tick()
}

func (h *harness) press(labels ...int) Output {
	for _, l := range labels {
		h.pressed[l-1] = true
	}
	return h.advance(10 * time.Millisecond)
}

func (h *harness) release(labels ...int) Output {
	for _, l := range labels {
		h.pressed[l-1] = false
	}
	return h.advance(10 * time.Millisecond)
}

func (h *harness) releaseAll() Output {
	for i := range h.pressed {
		h.pressed[i] = false
	}
	return h.advance(10 * time.Millisecond)
}

func (h *harness) toWaiting() {
	h.t.Helper()
	h.start()
	h.advance(h.cfg.ShowDuration)
	if h.s.Phase != PhaseWaiting {
		h.t.Fatalf("expected WAITING after show duration, got %s", h.s.Phase)
	}
}

func (h *harness) expectPhase(p Phase) {
	h.t.Helper()
	if h.s.Phase != p {
		h.t.Fatalf("expected phase %s, got %s", p, h.s.Phase)
	}
}

func countNotices(ns []Notice, typ NoticeType) int {
	n := 0
	for _, x := range ns {
		if x.Type == typ {
			n++
		}
	}
	return n
}

func tileEffect(out Output, tile int) (led.Color, bool) {
	var c led.Color
	found := false
	for _, e := range out.Effects {
		if e.Kind == EffectTile && e.Tile == tile {
			c, found = e.Color, true
		}
	}
	return c, found
}

func TestStartShowsTarget(t *testing.T) {
	h := newHarness(t, PolicyHold, nil)
	out := h.start()

	h.expectPhase(PhaseShowing)
	if h.s.Required != TileSet(0).Add(1).Add(4) {
		t.Errorf("required: got %v, want tiles 1,4", h.s.Required.Indices())
	}
	if h.s.Progress != 0 {
		t.Error("progress must start empty")
	}
	if len(out.Effects) == 0 || out.Effects[0].Kind != EffectClear {
		t.Fatalf("expected clear first, got %+v", out.Effects)
	}
	for _, i := range []int{1, 4} {
		c, ok := tileEffect(out, i)
		if !ok || c != h.cfg.TileColor(i) {
			t.Errorf("tile %d: expected display color %s, got %s (%v)", i, h.cfg.TileColor(i), c, ok)
		}
	}
	if countNotices(out.Notices, NoticeRoundStarted) != 1 || h.s.Round != 1 {
		t.Errorf("expected ROUND_STARTED for round 1, got %+v", out.Notices)
	}
}

func TestShowingClearsAfterDuration(t *testing.T) {
	h := newHarness(t, PolicyHold, nil)
	h.start()

	out := h.advance(h.cfg.ShowDuration - time.Millisecond)
	h.expectPhase(PhaseShowing)
	if len(out.Effects) != 0 {
		t.Errorf("no effects expected while showing, got %+v", out.Effects)
	}

	out = h.advance(time.Millisecond)
	h.expectPhase(PhaseWaiting)
	if len(out.Effects) != 1 || out.Effects[0].Kind != EffectClear {
		t.Errorf("expected single clear, got %+v", out.Effects)
	}
}

func TestPressesDuringShowingIgnored(t *testing.T) {
	h := newHarness(t, PolicyHold, nil)
	h.start()
	h.press(1)
	h.expectPhase(PhaseShowing)
	if countNotices(h.notices, NoticeWrongPress) != 0 {
		t.Error("presses while showing must not count")
	}

	// Still held when input opens: no new edge, so no wrong press.
	h.advance(h.cfg.ShowDuration)
	h.expectPhase(PhaseWaiting)
	h.advance(10 * time.Millisecond)
	h.expectPhase(PhaseWaiting)
}

func TestScenarioBAnyOrder(t *testing.T) {
	orders := map[string][]int{
		"5 then 2": {5, 2},
		"2 then 5": {2, 5},
	}
	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, PolicyHold, nil)
			h.toWaiting()

			out := h.press(order[0])
			h.expectPhase(PhaseWaiting)
			if c, _ := tileEffect(out, order[0]-1); c != led.Green {
				t.Errorf("first press: expected green, got %s", c)
			}
			h.release(order[0])
			if h.s.Progress != TileSet(0).Add(order[0]-1) {
				t.Errorf("progress after first press: %v", h.s.Progress.Labels())
			}

			out = h.press(order[1])
			h.expectPhase(PhaseSuccess)
			if h.s.Progress != TileSet(0).Add(1).Add(4) {
				t.Errorf("progress: got %v, want [2 5]", h.s.Progress.Labels())
			}
			if countNotices(out.Notices, NoticeRoundComplete) != 1 {
				t.Errorf("expected ROUND_COMPLETE, got %+v", out.Notices)
			}
			last := out.Effects[len(out.Effects)-1]
			if last.Kind != EffectFill || last.Color != h.cfg.SuccessColor {
				t.Errorf("expected success flash, got %+v", last)
			}

			h.advance(h.cfg.SuccessDuration)
			h.expectPhase(PhaseShowing)
			if h.s.Round != 2 || h.s.Required != TileSet(0).Add(0) {
				t.Errorf("expected round 2 target [1], got round %d %v", h.s.Round, h.s.Required.Labels())
			}
		})
	}
}

func TestHeldTogetherCompletes(t *testing.T) {
	h := newHarness(t, PolicyHold, nil)
	h.toWaiting()
	h.press(2, 5)
	h.expectPhase(PhaseSuccess)
}

func TestRepeatedPressDoesNotRetrigger(t *testing.T) {
	h := newHarness(t, PolicyHold, nil)
	h.toWaiting()

	for i := 0; i < 3; i++ {
		h.press(2)
		h.release(2)
	}
	h.expectPhase(PhaseWaiting)
	if n := countNotices(h.notices, NoticeTileHit); n != 1 {
		t.Errorf("expected 1 TILE_HIT, got %d", n)
	}
	if h.s.Progress.Count() != 1 {
		t.Errorf("progress count: got %d, want 1", h.s.Progress.Count())
	}
}

func TestHeldTileColors(t *testing.T) {
	h := newHarness(t, PolicyHold, nil)
	h.toWaiting()

	h.press(2)
	out := h.advance(10 * time.Millisecond)
	if c, _ := tileEffect(out, 1); c != led.Green {
		t.Errorf("held required tile: expected green, got %s", c)
	}
	out = h.release(2)
	if c, ok := tileEffect(out, 1); !ok || c != led.Off {
		t.Errorf("released tile: expected cleared, got %s (%v)", c, ok)
	}
}

func TestScenarioCHoldUntilRelease(t *testing.T) {
	h := newHarness(t, PolicyHold, nil)
	h.toWaiting()

	out := h.press(1)
	h.expectPhase(PhaseWrongHeld)
	if c, _ := tileEffect(out, 0); c != led.Red {
		t.Errorf("wrong tile: expected red, got %s", c)
	}
	if countNotices(out.Notices, NoticeWrongPress) != 1 || out.Notices[0].Tile != 1 {
		t.Errorf("expected WRONG_PRESS for tile 1, got %+v", out.Notices)
	}

	// Frozen while anything is held, even long after.
	for i := 0; i < 5; i++ {
		out = h.advance(time.Second)
		h.expectPhase(PhaseWrongHeld)
		if len(out.Effects) != 0 {
			t.Fatalf("display must stay frozen, got %+v", out.Effects)
		}
	}
	h.press(2)
	h.expectPhase(PhaseWrongHeld)
	h.release(1)
	h.expectPhase(PhaseWrongHeld)

	h.release(2)
	h.expectPhase(PhaseShowing)
	if h.s.Round != 2 {
		t.Errorf("expected new round, got %d", h.s.Round)
	}
}

func TestScenarioDImmediateReset(t *testing.T) {
	h := newHarness(t, PolicyReset, nil)
	h.toWaiting()

	out := h.press(1)
	h.expectPhase(PhaseFailure)
	last := out.Effects[len(out.Effects)-1]
	if last.Kind != EffectFill || last.Color != h.cfg.FailureColor {
		t.Errorf("expected failure flash, got %+v", last)
	}

	// New target while the wrong tile is still held.
	h.advance(h.cfg.FailureDuration)
	h.expectPhase(PhaseShowing)
	if !h.pressed[0] {
		t.Fatal("test setup: tile 1 should still be held")
	}
	if h.s.Round != 2 {
		t.Errorf("expected round 2, got %d", h.s.Round)
	}
}

func TestImmediateResetZeroFailureDuration(t *testing.T) {
	h := newHarness(t, PolicyReset, nil)
	h.cfg.FailureDuration = 0
	h.toWaiting()

	out := h.press(3)
	h.expectPhase(PhaseShowing)
	if countNotices(out.Notices, NoticeRoundStarted) != 1 {
		t.Errorf("expected new round in the same cycle, got %+v", out.Notices)
	}
}

func TestZeroSuccessDurationLoadsSameCycle(t *testing.T) {
	h := newHarness(t, PolicyHold, nil)
	h.cfg.SuccessDuration = 0
	h.toWaiting()

	h.press(2)
	out := h.press(5)
	h.expectPhase(PhaseShowing)
	if countNotices(out.Notices, NoticeRoundComplete) != 1 || countNotices(out.Notices, NoticeRoundStarted) != 1 {
		t.Errorf("expected complete + start notices, got %+v", out.Notices)
	}
}

func TestWrongPressOutranksCompletion(t *testing.T) {
	src, _ := NewFixedRotation([][]int{{1}}, 9)
	h := newHarness(t, PolicyHold, src)
	h.toWaiting()

	h.press(1, 2)
	h.expectPhase(PhaseWrongHeld)
	if countNotices(h.notices, NoticeRoundComplete) != 0 {
		t.Error("round must not complete on a cycle with a wrong press")
	}
}

func TestStopFromAnyPhase(t *testing.T) {
	h := newHarness(t, PolicyHold, nil)
	h.toWaiting()
	h.press(2)

	out := h.handle(Event{Kind: EventStop, Time: h.now})
	h.expectPhase(PhaseIdle)
	if len(out.Effects) != 1 || out.Effects[0].Kind != EffectClear {
		t.Errorf("expected clear, got %+v", out.Effects)
	}
	if countNotices(out.Notices, NoticeGameStopped) != 1 {
		t.Errorf("expected GAME_STOPPED, got %+v", out.Notices)
	}
	if h.s.Required != 0 || h.s.Progress != 0 {
		t.Error("stop must drop the target")
	}

	out = h.advance(time.Minute)
	if len(out.Effects) != 0 || len(out.Notices) != 0 {
		t.Errorf("idle ticks must do nothing, got %+v", out)
	}

	out = h.handle(Event{Kind: EventStop, Time: h.now})
	if countNotices(out.Notices, NoticeGameStopped) != 0 {
		t.Error("stopping an idle game must not notify")
	}
}

func TestStartRewindsFixedRotation(t *testing.T) {
	h := newHarness(t, PolicyHold, nil)
	h.start()
	h.handle(Event{Kind: EventReset, Time: h.now})
	if h.s.Required != TileSet(0).Add(1).Add(4) {
		t.Errorf("reset should rewind to first set, got %v", h.s.Required.Labels())
	}
	if h.s.Round != 2 {
		t.Errorf("reset starts a new round, got %d", h.s.Round)
	}
}

func TestMismatchedInputFailsOpen(t *testing.T) {
	h := newHarness(t, PolicyHold, nil)
	h.toWaiting()
	before := h.s

	out := h.handle(Event{Kind: EventTick, Time: h.now, Pressed: []bool{true}, Previous: []bool{false}})
	if len(out.Effects) != 1 || out.Effects[0].Kind != EffectClear {
		t.Errorf("expected clear, got %+v", out.Effects)
	}
	if h.s.Phase != before.Phase || h.s.Progress != before.Progress {
		t.Error("state must not change on unusable input")
	}
}

type badSource struct{}

func (badSource) NextSet() []int { return []int{0, 42} }

func TestUnplayableTargetLeavesIdle(t *testing.T) {
	h := newHarness(t, PolicyHold, badSource{})
	out := h.start()
	h.expectPhase(PhaseIdle)
	if len(out.Effects) != 1 || out.Effects[0].Kind != EffectClear {
		t.Errorf("expected blank floor, got %+v", out.Effects)
	}
}

func TestProgressAlwaysSubsetOfRequired(t *testing.T) {
	src, err := NewRandomSet(9, 1, 5, rand.New(rand.NewPCG(7, 11)))
	if err != nil {
		t.Fatalf("NewRandomSet: %v", err)
	}
	for _, policy := range []Policy{PolicyHold, PolicyReset} {
		h := newHarness(t, policy, src)
		h.cfg.ShowDuration = 100 * time.Millisecond
		h.cfg.SuccessDuration = 100 * time.Millisecond
		h.cfg.FailureDuration = 100 * time.Millisecond
		rng := rand.New(rand.NewPCG(3, 5))
		h.start()

		for i := 0; i < 20000; i++ {
			if rng.IntN(4) == 0 {
				for j := range h.pressed {
					h.pressed[j] = false
				}
			} else {
				j := rng.IntN(len(h.pressed))
				h.pressed[j] = !h.pressed[j]
			}
			h.advance(50 * time.Millisecond)

			if !h.s.Required.Contains(h.s.Progress) {
				t.Fatalf("%s step %d: progress %v not within required %v", policy, i, h.s.Progress.Labels(), h.s.Required.Labels())
			}
			if h.s.Phase == PhaseWaiting && h.s.Progress == h.s.Required {
				t.Fatalf("%s step %d: complete set left in WAITING", policy, i)
			}
		}
		if countNotices(h.notices, NoticeRoundComplete) == 0 {
			t.Errorf("%s: expected at least one completed round", policy)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	good := DefaultConfig(9)
	if err := good.Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}

	bad := []func(c *Config){
		func(c *Config) { c.Tiles = 0 },
		func(c *Config) { c.Tiles = MaxTiles + 1 },
		func(c *Config) { c.Policy = "" },
		func(c *Config) { c.ShowDuration = -1 },
	}
	for i, mut := range bad {
		c := DefaultConfig(9)
		mut(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestTileColorFallsBackToPalette(t *testing.T) {
	c := DefaultConfig(9)
	c.TileColors = []led.Color{led.White}
	if c.TileColor(0) != led.White {
		t.Errorf("tile 0: got %s", c.TileColor(0))
	}
	if c.TileColor(1) != led.Palette[1] {
		t.Errorf("tile 1: got %s, want palette", c.TileColor(1))
	}
}
