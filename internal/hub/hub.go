// Package hub is the realtime connection registry: user ID to the set of
// open websocket connections (one account may hold several, e.g. multiple
// browser tabs).
package hub

import (
	"log"
	"sync"
)

type Writer interface {
	Write(message []byte) error
	Close() error
}

type Connection struct {
	UserID uint
	Writer Writer
}

type Hub struct {
	mu          sync.RWMutex
	connections map[uint]map[*Connection]struct{}
}

func New() *Hub {
	return &Hub{connections: make(map[uint]map[*Connection]struct{})}
}

func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connections[conn.UserID] == nil {
		h.connections[conn.UserID] = make(map[*Connection]struct{})
	}
	h.connections[conn.UserID][conn] = struct{}{}
}

func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.connections[conn.UserID]
	if set == nil {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.connections, conn.UserID)
	}
}

// SendPersonal delivers message to every connection of one user. A failed
// send is logged and the dead connection pruned; delivery to the user's
// remaining connections continues. Users with no connections are a no-op;
// there is no queuing for offline users.
func (h *Hub) SendPersonal(userID uint, message []byte) {
	h.mu.RLock()
	set := h.connections[userID]
	conns := make([]*Connection, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	var failed []*Connection
	for _, c := range conns {
		if err := c.Writer.Write(message); err != nil {
			log.Printf("hub: send to user %d failed: %v", userID, err)
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		_ = c.Writer.Close()
		h.Unregister(c)
	}
}
