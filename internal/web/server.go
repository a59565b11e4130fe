// Package web provides the HTTP status page, command API and live websocket
// feed for the tile floor.
package web

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sweeney/tile-floor/internal/command"
	"github.com/sweeney/tile-floor/internal/status"
)

// Submitter accepts raw commands. *command.Queue implements it.
type Submitter interface {
	Submit(ctx context.Context, raw string) command.Response
}

// Options configures a Server.
type Options struct {
	Tracker  *status.Tracker
	Commands Submitter

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler

	// WSInterval is the status push period on /ws.
	WSInterval time.Duration

	// CommandTimeout bounds how long a request waits for the poll loop.
	CommandTimeout time.Duration

	Log *zap.SugaredLogger
}

// maxCommandBody caps POST /api/command bodies; commands are short words.
const maxCommandBody = 64

// Server serves the status page and command API over HTTP.
type Server struct {
	httpServer *http.Server
	opts       Options
	upgrader   websocket.Upgrader
	done       chan struct{}
}

// New creates a Server bound to addr.
func New(addr string, o Options) *Server {
	if o.WSInterval <= 0 {
		o.WSInterval = 500 * time.Millisecond
	}
	if o.CommandTimeout <= 0 {
		o.CommandTimeout = 5 * time.Second
	}
	if o.Log == nil {
		o.Log = zap.NewNop().Sugar()
	}

	s := &Server{
		opts: o,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		done: make(chan struct{}),
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.html", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.json", s.handleJSON).Methods(http.MethodGet)
	r.HandleFunc("/api/command", s.handleCommandBody).Methods(http.MethodPost)
	r.HandleFunc("/api/command/{name}", s.handleCommandPath).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.handleWS)
	if o.Metrics != nil {
		r.Handle("/metrics", o.Metrics).Methods(http.MethodGet)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown closes websocket feeds and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.opts.Tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap); err != nil {
		s.opts.Log.Warnw("render status page", "error", err)
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.opts.Tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleCommandBody(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBody+1))
	if err != nil {
		writeResponse(w, command.Reject("", err))
		return
	}
	if len(body) > maxCommandBody {
		writeResponse(w, command.Reject("", command.ErrUnknownCommand))
		return
	}
	s.submit(w, r, string(body))
}

func (s *Server) handleCommandPath(w http.ResponseWriter, r *http.Request) {
	s.submit(w, r, mux.Vars(r)["name"])
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, raw string) {
	if s.opts.Commands == nil {
		writeResponseStatus(w, http.StatusServiceUnavailable, command.Response{Status: "commands unavailable"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.CommandTimeout)
	defer cancel()

	resp := s.opts.Commands.Submit(ctx, strings.TrimSpace(raw))
	s.opts.Log.Debugw("http command", "input", raw, "ok", resp.OK, "status", resp.Status, "remote", r.RemoteAddr)
	writeResponse(w, resp)
}
