package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/tile-floor/internal/game"
	"github.com/sweeney/tile-floor/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Polling       bool         `json:"polling"`
	Game          GameJSON     `json:"game"`
	Tiles         []TileJSON   `json:"tiles"`
	CalibratedAt  string       `json:"calibrated_at,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// GameJSON is the engine state.
type GameJSON struct {
	Phase    string `json:"phase"`
	Round    int    `json:"round"`
	RoundID  string `json:"round_id,omitempty"`
	Target   []int  `json:"target"`
	Progress []int  `json:"progress"`
}

// TileJSON is one pad's sensor state.
type TileJSON struct {
	Tile       int     `json:"tile"`
	Channel    int     `json:"channel"`
	Pressed    bool    `json:"pressed"`
	Filtered   float64 `json:"filtered"`
	Baseline   float64 `json:"baseline"`
	ThrPress   float64 `json:"thr_press"`
	ThrRelease float64 `json:"thr_release"`
	Degenerate bool    `json:"degenerate,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of activity counts.
type CountsJSON struct {
	RoundsStarted   int `json:"rounds_started"`
	RoundsCompleted int `json:"rounds_completed"`
	TileHits        int `json:"tile_hits"`
	WrongPresses    int `json:"wrong_presses"`
	Commands        int `json:"commands"`
	Rejected        int `json:"commands_rejected"`
	ReadErrors      int `json:"read_errors"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of controller config.
type ConfigJSON struct {
	Tiles       int    `json:"tiles"`
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Polarity    string `json:"polarity"`
	Policy      string `json:"policy"`
	Sequence    string `json:"sequence"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildGame(snap Snapshot) GameJSON {
	st := snap.Floor.Game
	phase := string(st.Phase)
	if phase == "" {
		phase = string(game.PhaseIdle)
	}
	target := st.Target
	if target == nil {
		target = []int{}
	}
	return GameJSON{
		Phase:    phase,
		Round:    st.Round,
		RoundID:  snap.Floor.RoundID,
		Target:   target,
		Progress: st.Progress.Labels(),
	}
}

func buildTiles(snap Snapshot) []TileJSON {
	tiles := make([]TileJSON, 0, len(snap.Floor.Channels))
	for i, ch := range snap.Floor.Channels {
		mux := i
		if i < len(snap.Config.Channels) {
			mux = snap.Config.Channels[i]
		}
		tiles = append(tiles, TileJSON{
			Tile:       i + 1,
			Channel:    mux,
			Pressed:    ch.Stable == logic.Pressed,
			Filtered:   ch.Filtered,
			Baseline:   ch.Baseline,
			ThrPress:   ch.ThrPress,
			ThrRelease: ch.ThrRelease,
			Degenerate: ch.Degenerate,
		})
	}
	return tiles
}

func buildInner(snap Snapshot) StatusInner {
	c := snap.Floor.Counts
	inner := StatusInner{
		Polling:       snap.Floor.Polling,
		Game:          buildGame(snap),
		Tiles:         buildTiles(snap),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			RoundsStarted:   c.RoundsStarted,
			RoundsCompleted: c.RoundsCompleted,
			TileHits:        c.TileHits,
			WrongPresses:    c.WrongPresses,
			Commands:        c.Commands,
			Rejected:        c.Rejected,
			ReadErrors:      c.ReadErrors,
		},
		Config: ConfigJSON{
			Tiles:       snap.Config.Tiles,
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Polarity:    snap.Config.Polarity,
			Policy:      snap.Config.Policy,
			Sequence:    snap.Config.Sequence,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
	if !snap.Floor.CalibratedAt.IsZero() {
		inner.CalibratedAt = snap.Floor.CalibratedAt.UTC().Format(time.RFC3339)
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatCompact is FormatJSON without indentation, for the websocket feed.
func FormatCompact(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
