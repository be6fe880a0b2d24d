package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/leetcode-assistant/internal/domain"
)

type selectProblemRequest struct {
	Slug string `json:"slug"`
}

type chatIDRequest struct {
	ID string `json:"id"`
}

type contextRequest struct {
	Name string `json:"name"`
}

// HandleState handles GET /api/state.
func (h *Handler) HandleState(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, h.store.Snapshot())
}

// HandleSelectProblem handles PUT /api/problem. It answers once the stored
// conversations of the problem are merged in, or the request is canceled.
func (h *Handler) HandleSelectProblem(w http.ResponseWriter, r *http.Request) {
	var req selectProblemRequest
	if !h.decode(w, r, &req) {
		return
	}
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		Error(w, http.StatusBadRequest, "slug is required")
		return
	}

	select {
	case <-h.store.SelectProblem(r.Context(), slug):
	case <-r.Context().Done():
		return
	}
	JSON(w, http.StatusOK, h.store.Snapshot())
}

// HandleListChats handles GET /api/chats.
func (h *Handler) HandleListChats(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, h.store.Summaries())
}

// HandleNewChat handles POST /api/chats.
func (h *Handler) HandleNewChat(w http.ResponseWriter, _ *http.Request) {
	id := h.store.StartNewConversation()
	if id == "" {
		Error(w, http.StatusServiceUnavailable, "store closed")
		return
	}
	JSON(w, http.StatusCreated, map[string]string{"id": id})
}

// HandleSelectChat handles PUT /api/chats/active.
func (h *Handler) HandleSelectChat(w http.ResponseWriter, r *http.Request) {
	var req chatIDRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.store.SelectConversation(req.ID) {
		Error(w, http.StatusNotFound, "chat not found")
		return
	}
	JSON(w, http.StatusOK, h.store.Snapshot())
}

// HandleTouchChat handles POST /api/chats/{id}/touch, moving the chat to the
// top of the history list.
func (h *Handler) HandleTouchChat(w http.ResponseWriter, r *http.Request) {
	if !h.store.TouchConversation(chi.URLParam(r, "id")) {
		Error(w, http.StatusNotFound, "chat not found")
		return
	}
	JSON(w, http.StatusOK, h.store.Summaries())
}

// HandleAddContext handles POST /api/contexts.
func (h *Handler) HandleAddContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !knownContext(req.Name) {
		Error(w, http.StatusBadRequest, "unknown context")
		return
	}
	h.store.AddContextToggle(req.Name)
	JSON(w, http.StatusOK, h.store.Snapshot().Contexts)
}

// HandleRemoveContext handles DELETE /api/contexts/{name}.
func (h *Handler) HandleRemoveContext(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || !knownContext(name) {
		Error(w, http.StatusBadRequest, "unknown context")
		return
	}
	h.store.RemoveContextToggle(name)
	JSON(w, http.StatusOK, h.store.Snapshot().Contexts)
}

func knownContext(name string) bool {
	return name == domain.ContextProblemDetails || name == domain.ContextCode
}
