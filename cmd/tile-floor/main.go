// Command tile-floor runs the pressure-pad floor game: it polls the pads,
// drives the tile LEDs and accepts lifecycle commands over HTTP and MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/tile-floor/internal/command"
	"github.com/sweeney/tile-floor/internal/config"
	"github.com/sweeney/tile-floor/internal/floor"
	"github.com/sweeney/tile-floor/internal/game"
	"github.com/sweeney/tile-floor/internal/led"
	"github.com/sweeney/tile-floor/internal/logger"
	"github.com/sweeney/tile-floor/internal/metrics"
	"github.com/sweeney/tile-floor/internal/mqtt"
	"github.com/sweeney/tile-floor/internal/sensor"
	"github.com/sweeney/tile-floor/internal/status"
	"github.com/sweeney/tile-floor/internal/web"
)

// Simulated pads idle mid-range.
const (
	simLevel = 2048
	simNoise = 8
)

func main() {
	configPath := flag.String("config", "/etc/tile-floor/config.yaml", "Config file (empty for defaults and env only)")
	printState := flag.Bool("print-state", false, "Print raw pad readings and exit")
	simulate := flag.Bool("simulate", false, "Run without hardware: simulated pads, in-memory LEDs")

	flag.Parse()

	if err := run(*configPath, *printState, *simulate); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, printState, simulate bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	driver, err := openDriver(cfg, simulate)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	reader := sensor.NewReader(driver, cfg.Sensor.Settle)
	defer reader.Close()

	if printState {
		return printReadings(os.Stdout, reader, cfg.Sensor.Channels)
	}

	strip, err := openStrip(cfg, simulate)
	if err != nil {
		return fmt.Errorf("init leds: %w", err)
	}
	defer strip.Close()

	mapper, err := cfg.Mapper(strip)
	if err != nil {
		return fmt.Errorf("led layout: %w", err)
	}
	gameCfg, err := cfg.GameConfig()
	if err != nil {
		return err
	}
	src, err := cfg.Source(nil)
	if err != nil {
		return fmt.Errorf("sequence: %w", err)
	}
	engine, err := game.NewEngine(gameCfg, src, mapper)
	if err != nil {
		return fmt.Errorf("init game: %w", err)
	}

	startTime := time.Now()
	m := metrics.New()
	queue := command.NewQueue(cfg.CommandQueue)
	ctl, err := floor.New(cfg.FloorConfig(), reader, engine, queue, m, log, startTime)
	if err != nil {
		return fmt.Errorf("init controller: %w", err)
	}

	tracker := status.NewTracker(startTime, status.Config{
		Tiles:       cfg.Tiles,
		Channels:    cfg.Sensor.Channels,
		PollMs:      cfg.Poll.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Polarity:    cfg.Sensor.Polarity,
		Policy:      cfg.Game.Policy,
		Sequence:    cfg.Game.Sequence.Mode,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	var publisher mqtt.Publisher = nopPublisher{}
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:     cfg.MQTT.Broker,
			ClientID:   cfg.MQTT.ClientID,
			BufferSize: cfg.MQTT.BufferSize,
			Commands:   queue,
			Log:        log.Named("mqtt"),
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		publisher, mqttStatus = p, p
	}
	defer publisher.Close()

	// Calibrate before anything can reach the queue.
	resp, notices := ctl.Start(time.Now())
	if !resp.OK {
		log.Warnw("system start failed", "status", resp.Status)
	}
	publishNotices(publisher, notices, log)
	tracker.Update(ctl.Snapshot())
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}

	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Warnw("publish startup event", "error", err)
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, web.Options{
			Tracker:        tracker,
			Commands:       queue,
			Metrics:        m.Handler(),
			WSInterval:     cfg.HTTP.WSInterval,
			CommandTimeout: mqtt.CommandTimeout,
			Log:            log.Named("http"),
		})
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("http server", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		log.Infow("http server listening", "addr", cfg.HTTP.Addr)
	}

	log.Infow("started",
		"tiles", cfg.Tiles,
		"poll", cfg.Poll,
		"polarity", cfg.Sensor.Polarity,
		"policy", cfg.Game.Policy,
		"sequence", cfg.Game.Sequence.Mode,
		"broker", cfg.MQTT.Broker,
		"heartbeat", cfg.Heartbeat,
		"simulate", simulate,
	)

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	err = runLoop(ctl, publisher, mqttStatus, tracker, cfg.Heartbeat, log, time.Now, ticker.C, sigCh)

	mapper.ClearAll()
	if serr := mapper.Show(); serr != nil {
		log.Warnw("clear floor on exit", "error", serr)
	}
	return err
}

func runLoop(ctl *floor.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus,
	tracker *status.Tracker, heartbeat time.Duration, log *zap.SugaredLogger,
	now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			log.Infow("shutting down", "signal", signalName)
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Warnw("publish shutdown event", "error", err)
			}
			return nil

		case <-tick:
			t := now()
			res := ctl.Cycle(t)

			for _, e := range res.Edges {
				log.Debugw("edge", "tile", e.Channel+1, "state", e.State)
			}
			for _, r := range res.Responses {
				log.Infow("command", "command", r.Command, "ok", r.OK, "status", r.Status)
			}
			publishNotices(publisher, res.Notices, log)

			if hb := ctl.CheckHeartbeat(t, heartbeat); hb != nil {
				log.Infow("heartbeat",
					"uptime", hb.Uptime,
					"rounds", hb.Counts.RoundsStarted,
					"completed", hb.Counts.RoundsCompleted,
					"wrong", hb.Counts.WrongPresses,
					"read_errors", hb.Counts.ReadErrors,
				)
				hbEvent := mqtt.SystemEvent{
					Timestamp: hb.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					tracker.Update(ctl.Snapshot())
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Warnw("publish heartbeat", "error", err)
				}
			}

			if tracker != nil {
				tracker.Update(ctl.Snapshot())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
		}
	}
}

func publishNotices(publisher mqtt.Publisher, notices []game.Notice, log *zap.SugaredLogger) {
	for _, n := range notices {
		log.Infow("game", "event", n.Type, "round", n.Round, "tile", n.Tile, "target", n.Target)
		if err := publisher.Publish(n); err != nil {
			// Never stop the loop on publish failure.
			log.Warnw("publish", "event", n.Type, "error", err)
		}
	}
}

func openDriver(cfg *config.Config, simulate bool) (sensor.Driver, error) {
	if simulate {
		return sensor.NewSimDriver(slices.Max(cfg.Sensor.Channels)+1, simLevel, simNoise), nil
	}
	d, err := sensor.NewRealDriver(cfg.SensorHardware())
	if err != nil {
		return nil, err
	}
	return d, nil
}

func openStrip(cfg *config.Config, simulate bool) (led.Strip, error) {
	if simulate {
		s := led.NewFakeStrip(cfg.LEDCount())
		s.KeepFrames = 1
		return s, nil
	}
	s, err := led.NewRealStrip(cfg.StripHardware())
	if err != nil {
		return nil, err
	}
	return s, nil
}

// printReadings samples every pad once, in tile order.
func printReadings(w io.Writer, r *sensor.Reader, channels []int) error {
	for i, ch := range channels {
		v, err := r.Read(ch)
		if err != nil {
			return fmt.Errorf("tile %d: %w", i+1, err)
		}
		fmt.Fprintf(w, "tile %d (ch %d): %d\n", i+1, ch, v)
	}
	return nil
}

// nopPublisher stands in when no broker is configured.
type nopPublisher struct{}

func (nopPublisher) Publish(game.Notice) error             { return nil }
func (nopPublisher) PublishSystem(mqtt.SystemEvent) error   { return nil }
func (nopPublisher) PublishResponse(command.Response) error { return nil }
func (nopPublisher) Close() error                           { return nil }

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
