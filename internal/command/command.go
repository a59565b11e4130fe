// Package command defines the lifecycle command vocabulary and the queue
// that carries commands from transports into the poll loop.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

// Command is one lifecycle command.
type Command string

const (
	SystemStart Command = "SYSTEM_START"
	SystemStop  Command = "SYSTEM_STOP"
	GameStart   Command = "GAME_START"
	GameStop    Command = "GAME_STOP"
	GameReset   Command = "GAME_RESET"
)

// All lists the accepted commands in documentation order.
var All = []Command{SystemStart, SystemStop, GameStart, GameStop, GameReset}

var (
	// ErrUnknownCommand is returned for input outside the vocabulary.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrBusy is returned when the queue is full.
	ErrBusy = errors.New("command queue full")
)

// aliases maps the single-byte mode protocol onto game commands.
var aliases = map[string]Command{
	"1": GameStart,
	"0": GameStop,
}

// Parse converts raw transport input into a Command.
func Parse(raw string) (Command, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if c, ok := aliases[s]; ok {
		return c, nil
	}
	for _, c := range All {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, strings.TrimSpace(raw))
}

// Response acknowledges or rejects a command.
type Response struct {
	Command Command `json:"command,omitempty"`
	OK      bool    `json:"ok"`
	Status  string  `json:"status"`
}

// Ack builds a successful response.
func Ack(c Command, status string) Response {
	return Response{Command: c, OK: true, Status: status}
}

// Reject builds a failed response.
func Reject(c Command, err error) Response {
	return Response{Command: c, OK: false, Status: err.Error()}
}

// Request states. Exactly one of the submitter and the loop wins the
// transition out of reqPending.
const (
	reqPending int32 = iota
	reqClaimed
	reqAbandoned
)

type request struct {
	cmd   Command
	reply chan Response
	state atomic.Int32
}

// Queue hands commands from transport goroutines to the poll loop.
// Submit may be called concurrently; Service must only be called from
// the loop that owns the engine.
type Queue struct {
	reqs chan *request

	// OnReject, if set, is called for input rejected before queueing.
	OnReject func(raw string, err error)
}

// DefaultCapacity is the queue depth used when none is configured.
const DefaultCapacity = 8

// NewQueue creates a queue holding at most capacity pending commands.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Queue{reqs: make(chan *request, capacity)}
}

// Submit parses raw and waits for the poll loop to execute it.
// Unknown commands and a full queue are rejected without side effects.
// If ctx ends before the loop picks the command up, it is withdrawn and
// never runs; once picked up, Submit waits for the handler's reply.
func (q *Queue) Submit(ctx context.Context, raw string) Response {
	cmd, err := Parse(raw)
	if err != nil {
		q.rejected(raw, err)
		return Reject("", err)
	}

	r := &request{cmd: cmd, reply: make(chan Response, 1)}
	select {
	case q.reqs <- r:
	default:
		q.rejected(raw, ErrBusy)
		return Reject(cmd, ErrBusy)
	}

	select {
	case resp := <-r.reply:
		return resp
	case <-ctx.Done():
		if r.state.CompareAndSwap(reqPending, reqAbandoned) {
			return Reject(cmd, fmt.Errorf("withdrawn before running: %w", ctx.Err()))
		}
		// The loop already claimed it; handlers never block.
		return <-r.reply
	}
}

func (q *Queue) rejected(raw string, err error) {
	if q.OnReject != nil {
		q.OnReject(raw, err)
	}
}

// Service runs handler for every command pending at the time of the call
// and returns how many ran. Withdrawn commands are discarded. It never blocks.
func (q *Queue) Service(handler func(Command) Response) int {
	n := len(q.reqs)
	done := 0
	for i := 0; i < n; i++ {
		select {
		case r := <-q.reqs:
			if !r.state.CompareAndSwap(reqPending, reqClaimed) {
				continue
			}
			r.reply <- handler(r.cmd)
			done++
		default:
			return done
		}
	}
	return done
}

// Pending reports the number of queued commands.
func (q *Queue) Pending() int {
	return len(q.reqs)
}
