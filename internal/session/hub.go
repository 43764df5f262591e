package session

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// Conn is one subscriber to a session's server messages.
type Conn interface {
	Send(msg any) error
}

// Hub fans server messages out to every connection attached to a session.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]map[Conn]struct{}
	logger *log.Logger
}

// NewHub creates an empty hub. A nil logger discards output.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Hub{
		conns:  make(map[string]map[Conn]struct{}),
		logger: logger.With("component", "hub"),
	}
}

// Register attaches c to sessionID.
func (h *Hub) Register(sessionID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[sessionID]
	if !ok {
		set = make(map[Conn]struct{})
		h.conns[sessionID] = set
	}
	set[c] = struct{}{}
	h.logger.Info("connection registered", "session", sessionID, "total", len(set))
}

// Unregister detaches c from sessionID.
func (h *Hub) Unregister(sessionID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregisterLocked(sessionID, c)
}

func (h *Hub) unregisterLocked(sessionID string, c Conn) {
	set, ok := h.conns[sessionID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	h.logger.Info("connection unregistered", "session", sessionID, "remaining", len(set))
	if len(set) == 0 {
		delete(h.conns, sessionID)
	}
}

// Broadcast sends msg to every connection of sessionID and returns how many
// received it. Connections whose send fails are dropped.
func (h *Hub) Broadcast(sessionID string, msg any) int {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.conns[sessionID]))
	for c := range h.conns[sessionID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		h.logger.Debug("no connections to broadcast to", "session", sessionID)
		return 0
	}

	delivered := 0
	for _, c := range targets {
		if err := c.Send(msg); err != nil {
			h.logger.Error("send failed, dropping connection", "session", sessionID, "err", err)
			h.Unregister(sessionID, c)
			continue
		}
		delivered++
	}
	return delivered
}

// Count returns the number of connections attached to sessionID.
func (h *Hub) Count(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[sessionID])
}
