package ws

import (
	"sync"

	"github.com/GriffinCanCode/playground/internal/shared/id"
)

// client is one connection's outbound queue
type client struct {
	send chan interface{}
}

// Hub fans events out to the connections watching a session
type Hub struct {
	mu      sync.RWMutex
	clients map[id.SessionID]map[*client]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[id.SessionID]map[*client]struct{})}
}

// Publish queues event for every client of sid. Slow clients miss events
// rather than block the publisher.
func (h *Hub) Publish(sid id.SessionID, event interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[sid] {
		select {
		case c.send <- event:
		default:
		}
	}
}

// Count returns the number of clients watching sid
func (h *Hub) Count(sid id.SessionID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sid])
}

func (h *Hub) register(sid id.SessionID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[sid] == nil {
		h.clients[sid] = make(map[*client]struct{})
	}
	h.clients[sid][c] = struct{}{}
}

func (h *Hub) unregister(sid id.SessionID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients[sid], c)
	if len(h.clients[sid]) == 0 {
		delete(h.clients, sid)
	}
}
