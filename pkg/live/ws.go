package live

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/msig-dev/msig/internal/errors"
)

// Frame is one WebSocket message: the full snapshot of a store.
type Frame struct {
	Store string          `json:"store"`
	Value json.RawMessage `json:"value"`
}

// latest is a single-slot mailbox. Put replaces an unread value.
type latest struct {
	ch chan []byte
}

func newLatest() *latest {
	return &latest{ch: make(chan []byte, 1)}
}

// put must only be called from one goroutine.
func (l *latest) put(v []byte) {
	select {
	case <-l.ch:
	default:
	}
	l.ch <- v
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	e, ok := s.lookup(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, errors.New("E200").WithDetail(name))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		s.logger.Warn("websocket upgrade failed", "store", name, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := newLatest()
	var unsubscribe func()
	err = s.call(ctx, func() {
		unsubscribe = e.subscribe(func() {
			data, err := e.snapshot()
			if err != nil {
				s.logger.Error("snapshot failed", "store", name, "error", err)
				return
			}
			frames.put(data)
		})
	})
	if err != nil {
		s.logger.Error("subscribe failed", "store", name, "error", err)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "runtime unavailable"))
		return
	}
	defer func() {
		uctx, ucancel := context.WithTimeout(context.Background(), s.config.CallTimeout)
		defer ucancel()
		if err := s.rt.Call(uctx, unsubscribe); err != nil {
			s.logger.Warn("unsubscribe failed", "store", name, "error", err)
		}
	}()

	if s.config.Hooks != nil {
		s.config.Hooks.Connected(name)
		defer s.config.Hooks.Disconnected(name)
	}
	s.logger.Debug("subscriber connected", "store", name, "remote", r.RemoteAddr)
	defer s.logger.Debug("subscriber disconnected", "store", name, "remote", r.RemoteAddr)

	// Subscribers do not send anything; reading surfaces the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-frames.ch:
			conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := conn.WriteJSON(Frame{Store: name, Value: data}); err != nil {
				s.logger.Debug("websocket write failed", "store", name, "error", err)
				return
			}
		}
	}
}
