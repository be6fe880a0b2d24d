package messaging

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ashureev/leetcode-assistant/internal/identity"
)

const writeTimeout = 5 * time.Second

// wsConn adapts a websocket connection to Conn.
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Send(ctx context.Context, v any) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, c.conn, v)
}

func (c *wsConn) Close(reason string) error {
	return c.conn.Close(websocket.StatusNormalClosure, reason)
}

// WebSocketHandler serves the message channel of a tab or popup.
type WebSocketHandler struct {
	router         *Router
	hub            *Hub
	originPatterns []string
	isDev          bool
}

// NewWebSocketHandler creates a handler. originPatterns follow
// websocket.AcceptOptions; isDev skips origin verification.
func NewWebSocketHandler(router *Router, hub *Hub, originPatterns []string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{router: router, hub: hub, originPatterns: originPatterns, isDev: isDev}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tabID := identity.TabIDFromContext(r.Context())
	slog.Info("Message channel request", "tab_id", tabID, "ip", identity.IPFromRequest(r))

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     h.originPatterns,
		InsecureSkipVerify: h.isDev,
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "tab_id", tabID)
		return
	}
	conn := &wsConn{conn: ws}
	defer func() {
		if closeErr := conn.Close("channel closed"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "tab_id", tabID)
		}
	}()

	if tabID != "" {
		h.hub.Register(tabID, conn)
		defer h.hub.Unregister(tabID, conn)
	}

	h.readLoop(r.Context(), conn, Sender{TabID: tabID})
}

func (h *WebSocketHandler) readLoop(ctx context.Context, conn *wsConn, from Sender) {
	for {
		var env Envelope
		if err := wsjson.Read(ctx, conn.conn, &env); err != nil {
			switch {
			case websocket.CloseStatus(err) != -1, errors.Is(err, context.Canceled):
				slog.Debug("Message channel closed by client", "tab_id", from.TabID)
			default:
				slog.Warn("Message channel read error", "error", err, "tab_id", from.TabID)
			}
			return
		}
		if from.TabID != "" {
			h.hub.Touch(from.TabID)
		}

		reply, handled, err := h.router.Dispatch(ctx, from, env)
		if !handled {
			continue
		}
		var resp *Response
		switch {
		case err != nil:
			resp = &Response{Type: env.Type, RequestID: env.RequestID, Error: err.Error()}
		case reply != nil:
			resp = &Response{Type: env.Type, RequestID: env.RequestID, Payload: reply}
		}
		if resp == nil {
			continue
		}
		if err := conn.Send(ctx, resp); err != nil {
			slog.Debug("Failed to send message response", "error", err, "tab_id", from.TabID)
			return
		}
	}
}
