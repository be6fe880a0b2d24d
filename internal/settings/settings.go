// Package settings persists the user's API key and model selection.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/leetcode-assistant/internal/domain"
	"github.com/ashureev/leetcode-assistant/internal/llm"
	"github.com/ashureev/leetcode-assistant/internal/store"
)

// ErrUnknownModel is returned when a model is not in the catalog.
var ErrUnknownModel = errors.New("unknown model")

// Service reads and writes settings in the key-value namespace.
type Service struct {
	kv      store.KeyValue
	catalog *llm.Catalog
	logger  *slog.Logger
}

// NewService creates a settings service. The catalog default is used when
// no model was chosen.
func NewService(kv store.KeyValue, catalog *llm.Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{kv: kv, catalog: catalog, logger: logger}
}

// Load returns the stored settings with defaults applied.
func (s *Service) Load(ctx context.Context) (domain.Settings, error) {
	key, err := s.get(ctx, domain.SettingAPIKey)
	if err != nil {
		return domain.Settings{}, err
	}
	model, err := s.get(ctx, domain.SettingSelectedModel)
	if err != nil {
		return domain.Settings{}, err
	}
	if model == "" {
		model = s.catalog.Default
	}
	return domain.Settings{APIKey: key, SelectedModel: model}, nil
}

// SetAPIKey stores the API key. An empty key clears it.
func (s *Service) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if err := s.kv.Set(ctx, domain.SettingAPIKey, []byte(key)); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	s.logger.Info("API key updated", "configured", key != "")
	return nil
}

// SetModel stores the selected model by display name.
func (s *Service) SetModel(ctx context.Context, name string) error {
	m := s.catalog.Lookup(name)
	if m == nil {
		return fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	if err := s.kv.Set(ctx, domain.SettingSelectedModel, []byte(m.Name)); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	s.logger.Info("Model updated", "model", m.Name)
	return nil
}

// Catalog returns the selectable models.
func (s *Service) Catalog() *llm.Catalog {
	return s.catalog
}

func (s *Service) get(ctx context.Context, key string) (string, error) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	return string(raw), nil
}
