package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ashureev/leetcode-assistant/internal/domain"
	"github.com/ashureev/leetcode-assistant/internal/store"
)

// ErrMissingSlug is returned for a PROBLEM_UPDATE without a problem slug.
var ErrMissingSlug = errors.New("problemSlug is required")

// ProblemUpdate is the PROBLEM_UPDATE payload.
type ProblemUpdate struct {
	ProblemSlug string             `json:"problemSlug"`
	Data        domain.ProblemData `json:"data"`
}

// TabIDReply answers GET_TAB_ID. TabID is null when no tab is known.
type TabIDReply struct {
	TabID *string `json:"tabId"`
}

// ToggleChat is the optional TOGGLE_CHAT payload naming the target tab.
type ToggleChat struct {
	TabID string `json:"tabId,omitempty"`
}

// RegisterHandlers installs the handlers for every known message type.
func RegisterHandlers(r *Router, kv store.KeyValue, hub *Hub, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	r.Handle(TypeProblemUpdate, func(ctx context.Context, _ Sender, env Envelope) (any, error) {
		var p ProblemUpdate
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		if p.ProblemSlug == "" {
			return nil, ErrMissingSlug
		}
		if err := store.SaveProblem(ctx, kv, p.ProblemSlug, p.Data); err != nil {
			return nil, err
		}
		logger.Debug("Stored problem update", "slug", p.ProblemSlug, "code_len", len(p.Data.Code))
		return nil, nil
	})

	r.Handle(TypeGetTabID, func(_ context.Context, from Sender, _ Envelope) (any, error) {
		tabID := from.TabID
		if tabID == "" {
			tabID = hub.LastActive()
		}
		if tabID == "" {
			return TabIDReply{}, nil
		}
		return TabIDReply{TabID: &tabID}, nil
	})

	r.Handle(TypeToggleChat, func(ctx context.Context, from Sender, env Envelope) (any, error) {
		var p ToggleChat
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				return nil, fmt.Errorf("invalid payload: %w", err)
			}
		}
		target := p.TabID
		if target == "" {
			target = from.TabID
		}
		if target == "" {
			target = hub.LastActive()
		}
		conn := hub.Get(target)
		if conn == nil {
			logger.Debug("No connected tab for TOGGLE_CHAT", "tab_id", target)
			return nil, nil
		}
		if err := conn.Send(ctx, Envelope{Type: TypeToggleChat}); err != nil {
			logger.Warn("Failed to forward TOGGLE_CHAT", "tab_id", target, "error", err)
		}
		return nil, nil
	})
}
