// Package middleware provides HTTP middleware for the assistant API.
package middleware

import (
	"net/http"
	"strings"
)

const (
	allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
	allowedHeaders = "Content-Type, X-Tab-ID"
)

// CORS returns middleware that handles CORS headers. An entry of "*" allows
// any origin and an entry ending in "*" allows origins with that prefix,
// e.g. "chrome-extension://*".
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				w.Header().Add("Vary", "Origin")
				if allowed, explicit := matchOrigin(allowedOrigins, origin); allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
					w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
					// Credentials only for explicitly listed origins; a wildcard echo would allow CSRF.
					if explicit {
						w.Header().Set("Access-Control-Allow-Credentials", "true")
					}
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// matchOrigin reports whether origin is allowed and whether it was listed
// verbatim.
func matchOrigin(allowedOrigins []string, origin string) (allowed, explicit bool) {
	for _, o := range allowedOrigins {
		switch {
		case o == origin:
			return true, true
		case o == "*":
			allowed = true
		case strings.HasSuffix(o, "*") && strings.HasPrefix(origin, strings.TrimSuffix(o, "*")):
			allowed = true
		}
	}
	return allowed, false
}
