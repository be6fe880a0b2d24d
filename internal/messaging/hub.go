package messaging

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Conn is a connected tab that can receive pushed messages.
type Conn interface {
	Send(ctx context.Context, v any) error
	Close(reason string) error
}

type tabEntry struct {
	conn       Conn
	lastActive time.Time
}

// Hub tracks the connection of each tab and which tab was active last.
type Hub struct {
	mu   sync.RWMutex
	tabs map[string]*tabEntry
	now  func() time.Time
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{tabs: make(map[string]*tabEntry), now: time.Now}
}

// Register adds the connection for tabID, closing any connection it replaces.
func (h *Hub) Register(tabID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.tabs[tabID]; ok && existing.conn != conn {
		_ = existing.conn.Close("tab reconnected")
	}
	h.tabs[tabID] = &tabEntry{conn: conn, lastActive: h.now()}
	slog.Info("Tab connected", "tab_id", tabID)
}

// Unregister removes conn for tabID if it is still the current one.
func (h *Hub) Unregister(tabID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.tabs[tabID]; ok && current.conn == conn {
		delete(h.tabs, tabID)
		slog.Info("Tab disconnected", "tab_id", tabID)
	}
}

// Touch marks tabID as the most recently active tab.
func (h *Hub) Touch(tabID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e, ok := h.tabs[tabID]; ok {
		e.lastActive = h.now()
	}
}

// Get returns the connection of tabID, or nil.
func (h *Hub) Get(tabID string) Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if e, ok := h.tabs[tabID]; ok {
		return e.conn
	}
	return nil
}

// LastActive returns the most recently active connected tab, or "".
func (h *Hub) LastActive() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var (
		best string
		at   time.Time
	)
	for id, e := range h.tabs {
		if best == "" || e.lastActive.After(at) || (e.lastActive.Equal(at) && id < best) {
			best, at = id, e.lastActive
		}
	}
	return best
}

// Len returns the number of connected tabs.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tabs)
}
