package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/leetcode-assistant/internal/settings"
)

// settingsResponse never carries the API key itself.
type settingsResponse struct {
	APIKeySet     bool     `json:"apiKeySet"`
	SelectedModel string   `json:"selectedModel"`
	Models        []string `json:"models"`
}

type settingsRequest struct {
	APIKey        *string `json:"apiKey,omitempty"`
	SelectedModel *string `json:"selectedModel,omitempty"`
}

// HandleGetSettings handles GET /api/settings.
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	h.writeSettings(w, r)
}

// HandlePutSettings handles PUT /api/settings. Absent fields are left unchanged.
func (h *Handler) HandlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.SelectedModel != nil {
		if err := h.settings.SetModel(r.Context(), *req.SelectedModel); err != nil {
			if errors.Is(err, settings.ErrUnknownModel) {
				Error(w, http.StatusBadRequest, err.Error())
				return
			}
			h.logger.Error("Failed to save model", "error", err)
			Error(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}
	if req.APIKey != nil {
		if err := h.settings.SetAPIKey(r.Context(), *req.APIKey); err != nil {
			h.logger.Error("Failed to save API key", "error", err)
			Error(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}
	h.writeSettings(w, r)
}

func (h *Handler) writeSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.settings.Load(r.Context())
	if err != nil {
		h.logger.Error("Failed to load settings", slog.Any("error", err))
		Error(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	JSON(w, http.StatusOK, settingsResponse{
		APIKeySet:     cfg.HasAPIKey(),
		SelectedModel: cfg.SelectedModel,
		Models:        h.settings.Catalog().Names(),
	})
}
