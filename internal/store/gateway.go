package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/leetcode-assistant/internal/domain"
)

// Gateway serializes conversation reads and writes to a ChatRepository.
// Saves for the same problem slug are applied in submission order.
type Gateway struct {
	repo   ChatRepository
	queue  *KeyedQueue
	now    func() time.Time
	logger *slog.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithGatewayClock overrides the time source used for default timestamps.
func WithGatewayClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) { g.now = now }
}

// WithGatewayLogger sets the logger.
func WithGatewayLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = logger }
}

// NewGateway creates a Gateway over repo.
func NewGateway(repo ChatRepository, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		repo:   repo,
		queue:  NewKeyedQueue(),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// LoadChatsForProblem reads every chat stored for slug. Chats without a
// timestamp are stamped with the current time in the returned copy only.
func (g *Gateway) LoadChatsForProblem(ctx context.Context, slug string) ([]domain.Chat, error) {
	chats, err := g.repo.GetChats(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("load chats for %s: %w", slug, err)
	}
	now := domain.Millis(g.now())
	for i := range chats {
		if chats[i].LastUpdated == 0 {
			chats[i].LastUpdated = now
		}
		if chats[i].Messages == nil {
			chats[i].Messages = []domain.Message{}
		}
	}
	return chats, nil
}

// PersistChat upserts messages for chatID within slug's chat list, leaving
// the other chats untouched. A zero lastUpdated defaults to the time of the
// write. The save is queued behind earlier saves for slug; the returned
// channel receives its result.
func (g *Gateway) PersistChat(ctx context.Context, slug, chatID string, messages []domain.Message, lastUpdated int64) <-chan error {
	snapshot := domain.CloneMessages(messages)
	return g.queue.Submit(ctx, slug, func(ctx context.Context) error {
		ts := lastUpdated
		if ts == 0 {
			ts = domain.Millis(g.now())
		}
		err := g.repo.UpdateChats(ctx, slug, func(chats []domain.Chat) []domain.Chat {
			for i := range chats {
				if chats[i].ID == chatID {
					chats[i].Messages = snapshot
					chats[i].LastUpdated = ts
					return chats
				}
			}
			return append(chats, domain.Chat{ID: chatID, Messages: snapshot, LastUpdated: ts})
		})
		if err != nil {
			g.logger.Error("Failed to save chat", "slug", slug, "chat_id", chatID, "error", err)
			return fmt.Errorf("save chat %s: %w", chatID, err)
		}
		g.logger.Debug("Chat saved", "slug", slug, "chat_id", chatID, "messages", len(snapshot))
		return nil
	})
}

// Wait blocks until every queued save has settled.
func (g *Gateway) Wait() {
	g.queue.Wait()
}

// PendingSlugs returns how many slugs currently have queued saves.
func (g *Gateway) PendingSlugs() int {
	return g.queue.ActiveKeys()
}
