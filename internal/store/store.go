// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/ashureev/leetcode-assistant/internal/domain"
)

// ErrNotFound is returned when a key-value entry does not exist.
var ErrNotFound = errors.New("not found")

// ChatRepository persists the conversation list of each problem slug.
type ChatRepository interface {
	// GetChats returns the stored chats for slug, or an empty list.
	GetChats(ctx context.Context, slug string) ([]domain.Chat, error)

	// UpdateChats runs a read-modify-write of the chats for slug in one transaction.
	UpdateChats(ctx context.Context, slug string, fn func([]domain.Chat) []domain.Chat) error
}

// KeyValue is the namespace holding scraped problem blobs and settings.
type KeyValue interface {
	// Get returns the raw value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
}

// Backend is a storage backend that can be health-checked and closed.
type Backend interface {
	// Ping verifies connectivity and returns an error if the backend is unreachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}
