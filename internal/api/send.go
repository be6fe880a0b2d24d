package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ashureev/leetcode-assistant/internal/assistant"
	"github.com/ashureev/leetcode-assistant/internal/identity"
)

type sendRequest struct {
	Text   string `json:"text"`
	ChatID string `json:"chatId,omitempty"`
}

// HandleSend handles POST /api/chat/messages. The reply is streamed as SSE
// events named after assistant.EventType; refused sends answer with JSON.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	clientKey := identity.ClientKey(r)
	if h.limiter != nil && !h.limiter.Allow(clientKey) {
		Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var req sendRequest
	if !h.decode(w, r, &req) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	h.logger.Info("Chat send request",
		"client", clientKey,
		"chat_id", req.ChatID,
		"message_length", len(req.Text),
		"request_id", chiMiddleware.GetReqID(r.Context()),
	)

	streaming := false
	writeFailed := false
	emit := func(ev assistant.Event) {
		if writeFailed {
			return
		}
		if !streaming {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			streaming = true
		}
		data, err := json.Marshal(ev)
		if err != nil {
			h.logger.Warn("Failed to marshal send event", "error", err)
			return
		}
		// A failed write ends the stream, not the turn.
		if err := writeSSE(w, string(ev.Type), string(data)); err != nil {
			h.logger.Debug("Failed to write SSE event", "error", err, "client", clientKey)
			writeFailed = true
			return
		}
		flusher.Flush()
	}

	res, err := h.assistant.Send(r.Context(), assistant.SendRequest{Text: req.Text, ChatID: req.ChatID}, emit)
	if err != nil {
		switch {
		case errors.Is(err, assistant.ErrEmptyMessage):
			Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, assistant.ErrNoProblem), errors.Is(err, assistant.ErrMissingAPIKey):
			Error(w, http.StatusPreconditionFailed, err.Error())
		default:
			h.logger.Error("Chat send failed", "error", err)
			Error(w, http.StatusInternalServerError, "failed to send message")
		}
		return
	}

	if res.UserSaveErr != nil || res.ReplySaveErr != nil {
		h.logger.Warn("Chat turn saved partially",
			"chat_id", res.ChatID,
			"user_save_error", res.UserSaveErr,
			"reply_save_error", res.ReplySaveErr,
		)
	}
}

func writeSSE(w io.Writer, event, data string) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
