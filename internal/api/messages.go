package api

import (
	"net/http"

	"github.com/ashureev/leetcode-assistant/internal/identity"
	"github.com/ashureev/leetcode-assistant/internal/messaging"
)

// HandleMessage handles POST /api/messages, the HTTP transport for routed
// messages. Fire-and-forget messages answer 204.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var env messaging.Envelope
	if !h.decode(w, r, &env) {
		return
	}
	if env.Type == "" {
		Error(w, http.StatusBadRequest, "type is required")
		return
	}

	from := messaging.Sender{TabID: identity.TabIDFromContext(r.Context())}
	reply, handled, err := h.router.Dispatch(r.Context(), from, env)
	switch {
	case err != nil:
		JSON(w, http.StatusBadRequest, messaging.Response{Type: env.Type, RequestID: env.RequestID, Error: err.Error()})
	case !handled, reply == nil:
		w.WriteHeader(http.StatusNoContent)
	default:
		JSON(w, http.StatusOK, messaging.Response{Type: env.Type, RequestID: env.RequestID, Payload: reply})
	}
}
