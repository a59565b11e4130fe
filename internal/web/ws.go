package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/tile-floor/internal/command"
	"github.com/sweeney/tile-floor/internal/status"
)

const wsWriteWait = time.Second

// handleWS pushes the status snapshot every WSInterval. Text messages from
// the client are treated as commands and answered with a response frame.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.opts.Log.Infow("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	s.opts.Log.Debugw("websocket connected", "remote", r.RemoteAddr)

	replies := make(chan command.Response, 4)
	closed := make(chan struct{})

	go s.wsReader(conn, replies, closed)
	s.wsWriter(conn, replies, closed)
	conn.Close()
	s.opts.Log.Debugw("websocket disconnected", "remote", r.RemoteAddr)
}

func (s *Server) wsReader(conn *websocket.Conn, replies chan<- command.Response, closed chan<- struct{}) {
	defer close(closed)
	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.opts.Log.Infow("websocket read", "error", err)
			}
			return
		}
		if kind != websocket.TextMessage || s.opts.Commands == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.CommandTimeout)
		resp := s.opts.Commands.Submit(ctx, string(msg))
		cancel()
		select {
		case replies <- resp:
		default:
			s.opts.Log.Warnw("websocket reply dropped", "command", resp.Command)
		}
	}
}

func (s *Server) wsWriter(conn *websocket.Conn, replies <-chan command.Response, closed <-chan struct{}) {
	ticker := time.NewTicker(s.opts.WSInterval)
	defer ticker.Stop()

	if !s.wsWrite(conn, websocket.TextMessage, status.FormatCompact(s.opts.Tracker.Snapshot())) {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-s.done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
				time.Now().Add(wsWriteWait))
			return
		case resp := <-replies:
			if !s.wsWrite(conn, websocket.TextMessage, responseFrame(resp)) {
				return
			}
		case <-ticker.C:
			if !s.wsWrite(conn, websocket.TextMessage, status.FormatCompact(s.opts.Tracker.Snapshot())) {
				return
			}
		}
	}
}

func (s *Server) wsWrite(conn *websocket.Conn, kind int, data []byte) bool {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteMessage(kind, data); err != nil {
		if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			s.opts.Log.Infow("websocket write", "error", err)
		}
		return false
	}
	return true
}
