// Package api provides HTTP handlers for the assistant API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/leetcode-assistant/internal/assistant"
	"github.com/ashureev/leetcode-assistant/internal/chat"
	"github.com/ashureev/leetcode-assistant/internal/messaging"
	"github.com/ashureev/leetcode-assistant/internal/settings"
)

const defaultMaxRequestBodySize = 1 << 20

// Handler serves the chat, settings and messaging routes.
type Handler struct {
	store     *chat.Store
	settings  *settings.Service
	assistant *assistant.Service
	router    *messaging.Router
	limiter   *RateLimiter
	maxBody   int64
	logger    *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithRateLimiter limits chat sends per client.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(h *Handler) { h.limiter = rl }
}

// WithMaxRequestBody caps request body sizes.
func WithMaxRequestBody(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// NewHandler creates a Handler.
func NewHandler(st *chat.Store, prefs *settings.Service, svc *assistant.Service, router *messaging.Router, opts ...Option) *Handler {
	h := &Handler{
		store:     st,
		settings:  prefs,
		assistant: svc,
		router:    router,
		maxBody:   defaultMaxRequestBodySize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers the API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.HandleState)
		r.Put("/problem", h.HandleSelectProblem)

		r.Get("/chats", h.HandleListChats)
		r.Post("/chats", h.HandleNewChat)
		r.Put("/chats/active", h.HandleSelectChat)
		r.Post("/chats/{id}/touch", h.HandleTouchChat)

		r.Post("/contexts", h.HandleAddContext)
		r.Delete("/contexts/{name}", h.HandleRemoveContext)

		r.Get("/settings", h.HandleGetSettings)
		r.Put("/settings", h.HandlePutSettings)

		r.Post("/chat/messages", h.HandleSend)
		r.Post("/messages", h.HandleMessage)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decode reads a size-limited JSON body into v and writes the error
// response itself when it fails.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
