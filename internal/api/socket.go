package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/battle-hexes/internal/events"
)

const (
	socketWriteWait  = 10 * time.Second
	socketPingPeriod = 15 * time.Second
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// socketMessage is one notice as sent over the websocket.
type socketMessage struct {
	Topic  string        `json:"topic"`
	Notice events.Notice `json:"notice"`
}

// handleSocket relays the same notices as handleStream over a websocket.
// Client messages are read and discarded; input goes through the POST
// endpoints.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	if s.Events == nil {
		http.Error(w, "streaming disabled", http.StatusNotFound)
		return
	}

	current := atomic.AddInt32(&s.streamConns, 1)
	defer atomic.AddInt32(&s.streamConns, -1)
	if current > maxStreamConns {
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Subscribe before the handshake so no notice sent after it is missed.
	ch, err := s.subscribeNotices(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()
	slog.Info("websocket client connected", "remote", r.RemoteAddr)

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(socketPingPeriod)
	defer ping.Stop()

	for {
		select {
		case ev := <-ch:
			conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
			if err := conn.WriteJSON(socketMessage{Topic: ev.Topic, Notice: ev.Notice}); err != nil {
				slog.Info("websocket write failed", "remote", r.RemoteAddr, "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(socketWriteWait)); err != nil {
				return
			}
		case <-ctx.Done():
			slog.Info("websocket client disconnected", "remote", r.RemoteAddr)
			return
		}
	}
}
