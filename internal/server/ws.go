package server

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleLive streams tick events for one map over a websocket while its
// simulation runs. The read pump exists only to notice the peer going away.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	id, err := mapID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid map id")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ERROR] server: websocket upgrade: %v", err)
		return
	}

	events := s.ticker.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		s.ticker.Unsubscribe(events)
		conn.Close()
	}()
	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.MapID != id {
				continue
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
