// Problem assistant server: chat API, SSE reply streaming and the tab
// message channel.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/ashureev/leetcode-assistant/internal/api"
	"github.com/ashureev/leetcode-assistant/internal/app"
	"github.com/ashureev/leetcode-assistant/internal/config"
	"github.com/ashureev/leetcode-assistant/internal/identity"
	"github.com/ashureev/leetcode-assistant/internal/messaging"
	"github.com/ashureev/leetcode-assistant/internal/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, config.ParseLevel(cfg.LogLevel))
	defer func() {
		if err := closeLog(); err != nil {
			slog.Error("Failed to close log file", "error", err)
		}
	}()
	slog.SetDefault(logger)

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.Dev, "kv_backend", cfg.KV.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := app.New(ctx, cfg, logger)
	if err != nil {
		slog.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := services.Close(); closeErr != nil {
			slog.Error("Failed to close services", "error", closeErr)
		}
	}()

	// Messaging.
	hub := messaging.NewHub()
	msgRouter := messaging.NewRouter(logger)
	messaging.RegisterHandlers(msgRouter, services.KV, hub, logger)
	wsHandler := messaging.NewWebSocketHandler(msgRouter, hub, cfg.AllowedOrigins, cfg.Dev)

	limiter := api.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	defer limiter.Close()

	apiHandler := api.NewHandler(services.Store, services.Settings, services.Assistant, msgRouter,
		api.WithRateLimiter(limiter),
		api.WithMaxRequestBody(cfg.MaxRequestBody),
		api.WithLogger(logger),
	)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(identity.Middleware())

	apiHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/messages", wsHandler.ServeHTTP)

	// SSE replies need WriteTimeout disabled.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
