package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/tile-floor/internal/floor"
	"github.com/sweeney/tile-floor/internal/game"
	"github.com/sweeney/tile-floor/internal/logic"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func playingSnapshot() floor.Snapshot {
	var req, prog game.TileSet
	req = req.Add(1).Add(4)
	prog = prog.Add(4)
	return floor.Snapshot{
		Polling: true,
		Game: game.State{
			Phase:    game.PhaseWaiting,
			Round:    3,
			Target:   []int{2, 5},
			Required: req,
			Progress: prog,
		},
		RoundID: "7d1f0c2e",
		Pressed: []bool{false, false, false, false, true},
		Channels: []logic.Channel{
			{ID: 0, Baseline: 2000, ThrPress: 1400, ThrRelease: 1700, Filtered: 1990, Stable: logic.Released},
			{ID: 1, Baseline: 2000, ThrPress: 1400, ThrRelease: 1700, Filtered: 980, Stable: logic.Pressed},
		},
		CalibratedAt: start.Add(time.Second),
		Counts:       floor.Counts{RoundsStarted: 3, RoundsCompleted: 2, WrongPresses: 1, TileHits: 5},
	}
}

func TestNewTracker(t *testing.T) {
	cfg := Config{Tiles: 9, PollMs: 10, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.PollMs != 10 {
		t.Errorf("Config.PollMs: got %d, want 10", snap.Config.PollMs)
	}
	if snap.Floor.Polling {
		t.Error("expected Polling=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.Update(playingSnapshot())

	snap := tr.Snapshot()
	if !snap.Floor.Polling {
		t.Error("expected Polling=true")
	}
	if snap.Floor.Game.Phase != game.PhaseWaiting {
		t.Errorf("Phase: got %s, want WAITING", snap.Floor.Game.Phase)
	}
	if snap.Floor.Counts.RoundsCompleted != 2 {
		t.Errorf("RoundsCompleted: got %d, want 2", snap.Floor.Counts.RoundsCompleted)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(start, Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}
	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(start, Config{})
	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.4.1", Status: "connected"})
	snap := tr.Snapshot()
	if snap.Network == nil || snap.Network.IP != "192.168.4.1" {
		t.Errorf("Network: got %+v", snap.Network)
	}
}

func TestSnapshotUptime(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(15 * time.Minute)}
	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(start, Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.Update(playingSnapshot())
	snap1 := tr.Snapshot()

	tr.Update(floor.Snapshot{Polling: false, Game: game.State{Phase: game.PhaseIdle}})

	if snap1.Floor.Game.Phase != game.PhaseWaiting {
		t.Error("snapshot should be a copy; phase was modified")
	}
}

func TestFormatJSON(t *testing.T) {
	snap := Snapshot{
		Floor:         playingSnapshot(),
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{Tiles: 9, Channels: []int{8, 7}, PollMs: 10, Policy: "hold", Broker: "tcp://localhost:1883"},
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	s := parsed.Status

	if !s.Polling {
		t.Error("expected polling=true")
	}
	if s.Game.Phase != "WAITING" || s.Game.Round != 3 || s.Game.RoundID != "7d1f0c2e" {
		t.Errorf("game: %+v", s.Game)
	}
	if len(s.Game.Target) != 2 || s.Game.Target[1] != 5 {
		t.Errorf("target: %v", s.Game.Target)
	}
	if len(s.Game.Progress) != 1 || s.Game.Progress[0] != 5 {
		t.Errorf("progress should be label 5, got %v", s.Game.Progress)
	}
	if len(s.Tiles) != 2 {
		t.Fatalf("tiles: got %d entries", len(s.Tiles))
	}
	if s.Tiles[1].Tile != 2 || s.Tiles[1].Channel != 7 || !s.Tiles[1].Pressed {
		t.Errorf("tile 2: %+v", s.Tiles[1])
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if !s.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if s.Counts.RoundsCompleted != 2 || s.Counts.TileHits != 5 {
		t.Errorf("counts: %+v", s.Counts)
	}
	if s.CalibratedAt != "2026-01-01T00:00:01Z" {
		t.Errorf("calibrated_at: got %q", s.CalibratedAt)
	}
	if s.Event != "" || s.Reason != "" {
		t.Errorf("web format should not carry event/reason, got %q/%q", s.Event, s.Reason)
	}
}

func TestFormatJSONIdle(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(time.Second)}

	var raw map[string]any
	if err := json.Unmarshal(FormatJSON(snap), &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	status := raw["status"].(map[string]any)
	g := status["game"].(map[string]any)
	if g["phase"] != "IDLE" {
		t.Errorf("phase: got %v, want IDLE", g["phase"])
	}
	if target, ok := g["target"].([]any); !ok || len(target) != 0 {
		t.Errorf("target should be an empty array, got %v", g["target"])
	}
	if _, ok := status["calibrated_at"]; ok {
		t.Error("calibrated_at should be omitted before calibration")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	snap := Snapshot{
		Floor:     playingSnapshot(),
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(snap, "HEARTBEAT", ""), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "HEARTBEAT" {
		t.Errorf("Event: got %q, want HEARTBEAT", parsed.Status.Event)
	}
	if parsed.Status.Game.Phase != "WAITING" {
		t.Errorf("Phase: got %q", parsed.Status.Game.Phase)
	}
}

func TestFormatStatusEventShutdown(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(30 * time.Minute)}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("event/reason: %q/%q", parsed.Status.Event, parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(time.Second)}

	var raw map[string]any
	json.Unmarshal(FormatStatusEvent(snap, "STARTUP", ""), &raw)
	status := raw["status"].(map[string]any)
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestFormatCompactMatchesIndented(t *testing.T) {
	snap := Snapshot{Floor: playingSnapshot(), StartTime: start, Now: start.Add(time.Minute)}

	var a, b StatusJSON
	json.Unmarshal(FormatJSON(snap), &a)
	json.Unmarshal(FormatCompact(snap), &b)
	if a.Status.Game.RoundID != b.Status.Game.RoundID || a.Status.UptimeSeconds != b.Status.UptimeSeconds {
		t.Error("compact and indented output disagree")
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(time.Minute),
		Network:   &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "FloorNet"},
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)
	if parsed.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if parsed.Status.Network.SSID != "FloorNet" {
		t.Errorf("Network.SSID: got %q", parsed.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(start, Config{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			fs := playingSnapshot()
			fs.Counts.Commands = i
			tr.Update(fs)
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = FormatCompact(tr.Snapshot())
		}
	}()

	wg.Wait()
}
