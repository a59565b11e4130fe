// Package floor runs the poll cycle: read every pad, debounce, advance the
// game and service queued lifecycle commands, in that order.
package floor

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/tile-floor/internal/command"
	"github.com/sweeney/tile-floor/internal/game"
	"github.com/sweeney/tile-floor/internal/logic"
	"github.com/sweeney/tile-floor/internal/metrics"
	"github.com/sweeney/tile-floor/internal/sensor"
)

// ErrSystemStopped rejects game commands while polling is halted.
var ErrSystemStopped = errors.New("system stopped")

// StaticThresholds replaces calibration with fixed press/release levels
// applied to every pad.
type StaticThresholds struct {
	Press   float64
	Release float64
}

// Config parameterizes the controller.
type Config struct {
	// Channels maps tile index to multiplexer channel.
	Channels []int

	Calibration logic.CalibrationConfig
	Static      *StaticThresholds
	Debounce    logic.DebounceConfig

	// Autostart begins a game as soon as SYSTEM_START completes.
	Autostart bool
}

// Counts tracks activity since startup.
type Counts struct {
	RoundsStarted   int
	RoundsCompleted int
	TileHits        int
	WrongPresses    int
	Commands        int
	Rejected        int
	ReadErrors      int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}

// Result describes what one cycle did.
type Result struct {
	Polled    bool
	ReadError error
	Edges     []logic.Edge
	Notices   []game.Notice
	Responses []command.Response
}

// Controller owns the debouncer and engine. Cycle is its only mutator and
// must be called from a single goroutine.
type Controller struct {
	cfg     Config
	reader  *sensor.Reader
	engine  *game.Engine
	queue   *command.Queue
	metrics *metrics.Metrics
	log     *zap.SugaredLogger

	debouncer *logic.Debouncer
	raw       []int
	polling   bool

	startTime     time.Time
	lastHeartbeat time.Time
	calibratedAt  time.Time
	counts        Counts
}

// New creates a stopped controller. SYSTEM_START (or Start) calibrates and
// begins polling.
func New(cfg Config, reader *sensor.Reader, engine *game.Engine, queue *command.Queue,
	m *metrics.Metrics, log *zap.SugaredLogger, startTime time.Time) (*Controller, error) {
	tiles := engine.Config().Tiles
	if len(cfg.Channels) != tiles {
		return nil, fmt.Errorf("%d sensor channels configured for %d tiles", len(cfg.Channels), tiles)
	}
	if cfg.Static == nil {
		if err := cfg.Calibration.Validate(); err != nil {
			return nil, fmt.Errorf("calibration config: %w", err)
		}
	} else if _, err := logic.StaticCalibration(cfg.Static.Press, cfg.Static.Release, cfg.Debounce.Polarity); err != nil {
		return nil, fmt.Errorf("static thresholds: %w", err)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	c := &Controller{
		cfg:           cfg,
		reader:        reader,
		engine:        engine,
		queue:         queue,
		metrics:       m,
		log:           log,
		raw:           make([]int, tiles),
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
	queue.OnReject = func(raw string, err error) {
		c.log.Infow("command rejected", "input", raw, "error", err)
		c.metrics.Command("", false)
	}
	return c, nil
}

// Start is SYSTEM_START invoked directly, used at boot.
func (c *Controller) Start(now time.Time) (command.Response, []game.Notice) {
	var res Result
	resp := c.handle(command.SystemStart, now, &res)
	return resp, res.Notices
}

// Cycle runs one poll cycle at now.
func (c *Controller) Cycle(now time.Time) Result {
	began := time.Now()
	var res Result

	if c.polling {
		res.Polled = true
		if err := c.reader.ReadAll(c.cfg.Channels, c.raw); err != nil {
			res.ReadError = err
			c.counts.ReadErrors++
			c.metrics.ReadError()
			c.log.Warnw("sensor read failed", "error", err)
			c.debouncer.Hold()
		} else {
			res.Edges = c.debouncer.Process(c.raw, now)
			for _, e := range res.Edges {
				if e.State == logic.Pressed {
					c.metrics.TilePress(e.Channel + 1)
				}
			}
		}

		out, err := c.engine.Tick(now, c.debouncer.Pressed(), c.debouncer.Previous())
		if err != nil {
			c.log.Warnw("led update failed", "error", err)
		}
		c.record(out.Notices, &res)
	}

	c.queue.Service(func(cmd command.Command) command.Response {
		return c.handle(cmd, now, &res)
	})

	c.metrics.ObserveCycle(time.Since(began))
	return res
}

func (c *Controller) handle(cmd command.Command, now time.Time, res *Result) command.Response {
	resp := c.execute(cmd, now, res)
	c.counts.Commands++
	if !resp.OK {
		c.counts.Rejected++
		c.log.Infow("command rejected", "command", cmd, "status", resp.Status)
	} else {
		c.log.Infow("command", "command", cmd, "status", resp.Status)
	}
	c.metrics.Command(string(cmd), resp.OK)
	res.Responses = append(res.Responses, resp)
	return resp
}

func (c *Controller) execute(cmd command.Command, now time.Time, res *Result) command.Response {
	switch cmd {
	case command.SystemStart:
		if c.engine.State().Phase != game.PhaseIdle {
			c.run(res, c.engine.Stop, now)
		}
		if err := c.calibrate(now); err != nil {
			return command.Reject(cmd, err)
		}
		c.setPolling(true)
		if c.cfg.Autostart {
			c.run(res, c.engine.Start, now)
			return command.Ack(cmd, "system started, game running")
		}
		return command.Ack(cmd, "system started")

	case command.SystemStop:
		c.run(res, c.engine.Stop, now)
		c.setPolling(false)
		return command.Ack(cmd, "system stopped")

	case command.GameStart, command.GameReset:
		if !c.polling {
			return command.Reject(cmd, ErrSystemStopped)
		}
		if cmd == command.GameStart {
			c.run(res, c.engine.Start, now)
		} else {
			c.run(res, c.engine.Reset, now)
		}
		if c.engine.State().Phase == game.PhaseIdle {
			return command.Reject(cmd, fmt.Errorf("%w: no playable target", game.ErrInvalidSequence))
		}
		if cmd == command.GameStart {
			return command.Ack(cmd, "game started")
		}
		return command.Ack(cmd, "game reset")

	case command.GameStop:
		c.run(res, c.engine.Stop, now)
		return command.Ack(cmd, "game stopped")
	}
	return command.Reject(cmd, command.ErrUnknownCommand)
}

// run executes one engine lifecycle step and collects its notices.
func (c *Controller) run(res *Result, step func(time.Time) (game.Output, error), now time.Time) {
	out, err := step(now)
	if err != nil {
		c.log.Warnw("led update failed", "error", err)
	}
	c.record(out.Notices, res)
}

func (c *Controller) record(ns []game.Notice, res *Result) {
	for _, n := range ns {
		switch n.Type {
		case game.NoticeRoundStarted:
			c.counts.RoundsStarted++
			c.metrics.RoundStarted()
		case game.NoticeRoundComplete:
			c.counts.RoundsCompleted++
			c.metrics.RoundCompleted()
		case game.NoticeTileHit:
			c.counts.TileHits++
		case game.NoticeWrongPress:
			c.counts.WrongPresses++
			c.metrics.WrongPress()
		}
	}
	res.Notices = append(res.Notices, ns...)
}

func (c *Controller) calibrate(now time.Time) error {
	tiles := len(c.cfg.Channels)
	var cals []logic.Calibration

	if s := c.cfg.Static; s != nil {
		cal, err := logic.StaticCalibration(s.Press, s.Release, c.cfg.Debounce.Polarity)
		if err != nil {
			return err
		}
		cals = make([]logic.Calibration, tiles)
		for i := range cals {
			cals[i] = cal
		}
	} else {
		var err error
		cals, err = logic.Calibrate(c.reader, c.cfg.Channels, c.cfg.Calibration)
		if err != nil {
			return fmt.Errorf("calibrate: %w", err)
		}
	}

	degenerate := 0
	for i, cal := range cals {
		if cal.Degenerate {
			degenerate++
			c.log.Warnw("degenerate calibration", "tile", i+1, "channel", c.cfg.Channels[i],
				"baseline", cal.Baseline, "press", cal.ThrPress, "release", cal.ThrRelease)
		}
	}
	c.metrics.SetDegenerate(degenerate)

	d, err := logic.NewDebouncer(cals, c.cfg.Debounce)
	if err != nil {
		return fmt.Errorf("debouncer: %w", err)
	}
	c.debouncer = d
	c.calibratedAt = now
	c.log.Infow("calibrated", "tiles", tiles, "degenerate", degenerate)
	return nil
}

func (c *Controller) setPolling(on bool) {
	c.polling = on
	c.metrics.SetPolling(on)
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if interval is <= 0 (disabled).
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}
	c.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		Counts:    c.counts,
	}
}

// Polling reports whether the sensor loop is running.
func (c *Controller) Polling() bool {
	return c.polling
}

// Counts returns activity counters since startup.
func (c *Controller) Counts() Counts {
	return c.counts
}
