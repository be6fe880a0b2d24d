// Package messaging routes the typed messages exchanged between browser tabs
// and the assistant.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Type names a message.
type Type string

const (
	TypeProblemUpdate Type = "PROBLEM_UPDATE"
	TypeGetTabID      Type = "GET_TAB_ID"
	TypeToggleChat    Type = "TOGGLE_CHAT"
)

// Envelope is a message on the wire. RequestID is echoed in the response of
// request/response messages.
type Envelope struct {
	Type      Type            `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Response answers an Envelope that expects one.
type Response struct {
	Type      Type   `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	Payload   any    `json:"payload"`
	Error     string `json:"error,omitempty"`
}

// Sender describes where a message came from. TabID is empty for senders
// outside a tab.
type Sender struct {
	TabID string
}

// Handler processes one message type. A nil reply means fire-and-forget.
type Handler func(ctx context.Context, from Sender, env Envelope) (reply any, err error)

// Router dispatches envelopes to exactly one handler per type.
type Router struct {
	mu       sync.RWMutex
	handlers map[Type]Handler
	logger   *slog.Logger
}

// NewRouter creates an empty router.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{handlers: make(map[Type]Handler), logger: logger}
}

// Handle registers h for t. Registering a type twice panics.
func (r *Router) Handle(t Type, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[t]; exists {
		panic(fmt.Sprintf("messaging: handler for %s already registered", t))
	}
	r.handlers[t] = h
}

// Dispatch runs the handler for env.Type. Unknown types are ignored and
// report handled=false without an error.
func (r *Router) Dispatch(ctx context.Context, from Sender, env Envelope) (reply any, handled bool, err error) {
	r.mu.RLock()
	h, ok := r.handlers[env.Type]
	r.mu.RUnlock()
	if !ok {
		r.logger.Debug("Ignoring unknown message type", "type", env.Type, "tab_id", from.TabID)
		return nil, false, nil
	}

	reply, err = h(ctx, from, env)
	if err != nil {
		r.logger.Warn("Message handler failed", "type", env.Type, "tab_id", from.TabID, "error", err)
		return nil, true, fmt.Errorf("%s: %w", env.Type, err)
	}
	return reply, true, nil
}
