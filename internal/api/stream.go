package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxStreamConns  = 32
	streamHeartbeat = 30 * time.Second
	streamWriteWait = 5 * time.Second
	streamReadWait  = 2 * streamHeartbeat
)

func (s *Server) activeStreams() int32 {
	return atomic.LoadInt32(&s.streamConns)
}

// handleStream upgrades to a websocket and pushes feed events as JSON text
// frames. ?since=SEQ replays buffered events newer than SEQ first.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if atomic.AddInt32(&s.streamConns, 1) > maxStreamConns {
		atomic.AddInt32(&s.streamConns, -1)
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer atomic.AddInt32(&s.streamConns, -1)

	// Subscribe before the handshake completes so nothing published after it is missed.
	id, ch := s.Sim.Feed.Subscribe(0)
	defer s.Sim.Feed.Unsubscribe(id)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	slog.Debug("stream connected", "remote", r.RemoteAddr, "subscriber", id)

	var lastSeq uint64
	if v := r.URL.Query().Get("since"); v != "" {
		if since, err := strconv.ParseUint(v, 10, 64); err == nil {
			for _, e := range s.Sim.Feed.Since(since) {
				b, _ := json.Marshal(e)
				_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
				lastSeq = e.Seq
			}
		}
	}

	conn.SetReadLimit(1 << 12)
	_ = conn.SetReadDeadline(time.Now().Add(streamReadWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamReadWait))
	})

	// Reader: clients send nothing useful, but reads are needed to see the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-done:
			slog.Debug("stream disconnected", "remote", r.RemoteAddr, "subscriber", id)
			return
		case <-r.Context().Done():
			return
		case e, ok := <-ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"),
					time.Now().Add(time.Second))
				return
			}
			if e.Seq <= lastSeq {
				continue // already sent by the replay
			}
			b, err := json.Marshal(e)
			if err != nil {
				slog.Warn("stream encode failed", "seq", e.Seq, "error", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-heartbeat.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}
