package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ashureev/leetcode-assistant/internal/domain"
)

// LoadProblem reads the scraped blob for slug. It returns ErrNotFound when
// nothing was captured yet.
func LoadProblem(ctx context.Context, kv KeyValue, slug string) (*domain.ProblemData, error) {
	raw, err := kv.Get(ctx, domain.ProblemKey(slug))
	if err != nil {
		return nil, err
	}
	var data domain.ProblemData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode problem %q: %w", slug, err)
	}
	return &data, nil
}

// SaveProblem replaces the scraped blob for slug.
func SaveProblem(ctx context.Context, kv KeyValue, slug string, data domain.ProblemData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode problem %q: %w", slug, err)
	}
	if err := kv.Set(ctx, domain.ProblemKey(slug), raw); err != nil {
		return fmt.Errorf("failed to save problem %q: %w", slug, err)
	}
	return nil
}
