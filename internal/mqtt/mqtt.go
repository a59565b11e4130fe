// Package mqtt publishes floor events to a broker and accepts lifecycle
// commands from it.
package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/tile-floor/internal/command"
	"github.com/sweeney/tile-floor/internal/game"
)

// Topic is the MQTT topic for gameplay events.
const Topic = "tilefloor/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "tilefloor/system"

// TopicCommand receives raw lifecycle commands.
const TopicCommand = "tilefloor/command"

// TopicCommandResponse carries the reply to every command received on TopicCommand.
const TopicCommandResponse = "tilefloor/command/response"

// CommandTimeout bounds how long a broker command waits for the poll loop.
const CommandTimeout = 5 * time.Second

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a gameplay notice to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(n game.Notice) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// PublishResponse sends a command reply to the broker.
	PublishResponse(resp command.Response) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Submitter accepts raw commands. *command.Queue implements it.
type Submitter interface {
	Submit(ctx context.Context, raw string) command.Response
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload for a gameplay notice.
type Payload struct {
	Game GamePayload `json:"game"`
}

// GamePayload contains the notice details.
type GamePayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Round     int    `json:"round"`
	RoundID   string `json:"round_id,omitempty"`
	Tile      int    `json:"tile,omitempty"`
	Target    []int  `json:"target,omitempty"`
}

// FormatPayload creates the JSON payload for a gameplay notice.
func FormatPayload(n game.Notice) ([]byte, error) {
	payload := Payload{
		Game: GamePayload{
			Timestamp: n.Time.UTC().Format(time.RFC3339Nano),
			Event:     string(n.Type),
			Round:     n.Round,
			RoundID:   n.RoundID,
			Tile:      n.Tile,
			Target:    n.Target,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// WillPayload is the retained OFFLINE message the broker publishes on
// TopicSystem if the controller drops off without a clean shutdown.
func WillPayload(now time.Time) ([]byte, error) {
	return FormatSystemPayload(SystemEvent{Timestamp: now, Event: "OFFLINE", Reason: "LWT"})
}

// ResponsePayload is the reply published on TopicCommandResponse.
type ResponsePayload struct {
	Response command.Response `json:"response"`
}

// FormatResponse creates the JSON payload for a command reply.
func FormatResponse(resp command.Response) ([]byte, error) {
	return json.Marshal(ResponsePayload{Response: resp})
}

// CommandHandler returns a func that submits a broker payload as a command
// and publishes the reply. It blocks for at most timeout.
func CommandHandler(sub Submitter, pub Publisher, timeout time.Duration, log *zap.SugaredLogger) func(payload []byte) {
	return func(payload []byte) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		resp := sub.Submit(ctx, string(payload))
		if err := pub.PublishResponse(resp); err != nil {
			log.Warnw("publish command response failed", "command", resp.Command, "error", err)
		}
	}
}
