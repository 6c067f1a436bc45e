package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// broadcastInterval is the cadence at which stats snapshots are pushed to
// websocket clients.
const broadcastInterval = 500 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StatsSocket broadcasts live pipeline stats to websocket clients.
type StatsSocket struct {
	stats   StatsProvider
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewStatsSocket creates a StatsSocket and starts its broadcast loop.
func NewStatsSocket(stats StatsProvider) *StatsSocket {
	h := &StatsSocket{
		stats:   stats,
		clients: make(map[*websocket.Conn]bool),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StatsSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// broadcast pushes stats snapshots to all connected clients.
func (h *StatsSocket) broadcast() {
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.RLock()
		if len(h.clients) == 0 {
			h.mu.RUnlock()
			continue
		}
		h.mu.RUnlock()

		msg, err := json.Marshal(map[string]any{
			"stats":     h.stats.Snapshot(),
			"timestamp": time.Now().UnixMilli(),
		})
		if err != nil {
			continue
		}

		h.mu.RLock()
		for conn := range h.clients {
			conn.WriteMessage(websocket.TextMessage, msg)
		}
		h.mu.RUnlock()
	}
}
