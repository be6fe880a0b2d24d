// Package app assembles the storage, conversation store and chat services
// shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ashureev/leetcode-assistant/internal/assistant"
	"github.com/ashureev/leetcode-assistant/internal/chat"
	"github.com/ashureev/leetcode-assistant/internal/config"
	"github.com/ashureev/leetcode-assistant/internal/llm"
	"github.com/ashureev/leetcode-assistant/internal/settings"
	"github.com/ashureev/leetcode-assistant/internal/store"
)

// App holds the wired services.
type App struct {
	DB        *store.SQLiteStore
	KV        store.KeyValue
	Gateway   *store.Gateway
	Store     *chat.Store
	Catalog   *llm.Catalog
	Settings  *settings.Service
	Assistant *assistant.Service

	backends []store.Backend
	logger   *slog.Logger
}

// Option configures New.
type Option func(*options)

type options struct {
	client llm.Client
}

// WithLLMClient replaces the Gemini client.
func WithLLMClient(c llm.Client) Option {
	return func(o *options) { o.client = c }
}

// New opens the configured storage and builds the services on top of it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a := &App{DB: db, KV: db, backends: []store.Backend{db}, logger: logger}

	if cfg.KV.Backend == config.BackendRedis {
		rkv := store.NewRedisKV(store.RedisConfig{
			Addr:     cfg.KV.RedisAddr,
			Password: cfg.KV.RedisPassword,
			DB:       cfg.KV.RedisDB,
			Prefix:   "assistant:",
		})
		a.KV = rkv
		a.backends = append(a.backends, rkv)
	}

	for _, b := range a.backends {
		if err := b.Ping(ctx); err != nil {
			_ = a.closeBackends()
			return nil, fmt.Errorf("storage health check failed: %w", err)
		}
	}

	a.Catalog = llm.DefaultCatalog()
	if m := a.Catalog.Lookup(cfg.LLM.DefaultModel); m != nil {
		a.Catalog.Default = m.Name
	} else {
		logger.Warn("Unknown default model, keeping catalog default", "model", cfg.LLM.DefaultModel, "default", a.Catalog.Default)
	}

	client := o.client
	if client == nil {
		client = llm.NewGeminiClient(cfg.LLM.Timeout, a.Catalog, logger)
	}

	a.Gateway = store.NewGateway(db, store.WithGatewayLogger(logger))
	a.Store = chat.NewStore(a.Gateway, chat.WithLogger(logger))
	a.Settings = settings.NewService(a.KV, a.Catalog, logger)
	a.Assistant = assistant.NewService(a.Store, a.KV, a.Settings, client,
		assistant.WithHistoryLimit(cfg.LLM.HistoryLimit),
		assistant.WithLogger(logger),
	)

	logger.Info("Storage ready", "db_path", cfg.DBPath, "kv_backend", cfg.KV.Backend)
	return a, nil
}

// Close stops the conversation store, waits for queued saves and closes storage.
func (a *App) Close() error {
	a.Store.Close()
	a.Gateway.Wait()
	return a.closeBackends()
}

func (a *App) closeBackends() error {
	var errs []error
	for i := len(a.backends) - 1; i >= 0; i-- {
		if err := a.backends[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
