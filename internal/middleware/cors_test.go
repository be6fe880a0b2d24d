package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := CORS([]string{"https://leetcode.com", "chrome-extension://*"})(next)

	tests := []struct {
		origin     string
		method     string
		wantAllow  string
		wantCreds  string
		wantStatus int
	}{
		{"https://leetcode.com", http.MethodGet, "https://leetcode.com", "true", http.StatusTeapot},
		{"chrome-extension://abcdef", http.MethodPost, "chrome-extension://abcdef", "", http.StatusTeapot},
		{"https://evil.example", http.MethodGet, "", "", http.StatusTeapot},
		{"https://leetcode.com", http.MethodOptions, "https://leetcode.com", "true", http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, "/api/state", nil)
		req.Header.Set("Origin", tt.origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
			t.Errorf("%s %s: allow-origin = %q, want %q", tt.method, tt.origin, got, tt.wantAllow)
		}
		if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCreds {
			t.Errorf("%s %s: credentials = %q, want %q", tt.method, tt.origin, got, tt.wantCreds)
		}
		if rec.Code != tt.wantStatus {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.origin, rec.Code, tt.wantStatus)
		}
	}
}

func TestCORS_WildcardNoCredentials(t *testing.T) {
	t.Parallel()

	h := CORS([]string{"*"})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://any.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "https://any.example" {
		t.Fatal("wildcard did not allow origin")
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Fatal("credentials allowed for a wildcard match")
	}
}
