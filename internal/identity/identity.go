// Package identity resolves which browser tab a request comes from.
package identity

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"strings"
)

const (
	TabHeaderName = "X-Tab-ID"
	TabQueryParam = "tab_id"
)

type contextKey int

const tabIDKey contextKey = iota

var tabIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// TabIDFromContext returns the tab id of the request, or "" for callers
// outside a tab such as the popup or the CLI.
func TabIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(tabIDKey).(string); ok {
		return v
	}
	return ""
}

// WithTabID returns a context carrying tabID.
func WithTabID(ctx context.Context, tabID string) context.Context {
	return context.WithValue(ctx, tabIDKey, tabID)
}

// SanitizeTabID returns id if it is a well-formed tab id, else "".
func SanitizeTabID(id string) string {
	id = strings.TrimSpace(id)
	if !tabIDPattern.MatchString(id) {
		return ""
	}
	return id
}

func tabIDFromRequest(r *http.Request) string {
	id := r.Header.Get(TabHeaderName)
	if id == "" {
		id = r.URL.Query().Get(TabQueryParam)
	}
	return SanitizeTabID(id)
}

// Middleware injects the tab id of each request into its context.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tabID := tabIDFromRequest(r); tabID != "" {
				r = r.WithContext(WithTabID(r.Context(), tabID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey identifies a caller for rate limiting: the tab id when present,
// else the remote IP.
func ClientKey(r *http.Request) string {
	if tabID := TabIDFromContext(r.Context()); tabID != "" {
		return "tab:" + tabID
	}
	return "ip:" + IPFromRequest(r)
}

// IPFromRequest returns a normalized remote IP.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
