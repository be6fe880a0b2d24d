//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/leetcode-assistant/internal/assistant"
	"github.com/ashureev/leetcode-assistant/internal/chat"
	"github.com/ashureev/leetcode-assistant/internal/identity"
	"github.com/ashureev/leetcode-assistant/internal/llm"
	"github.com/ashureev/leetcode-assistant/internal/messaging"
	"github.com/ashureev/leetcode-assistant/internal/settings"
	"github.com/ashureev/leetcode-assistant/internal/store"
)

type stubClient struct {
	chunks []string
}

func (c *stubClient) StreamCompletion(_ context.Context, _ llm.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, chunk := range c.chunks {
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

type testServer struct {
	router http.Handler
	store  *chat.Store
	prefs  *settings.Service
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	db, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	st := chat.NewStore(store.NewGateway(db))
	t.Cleanup(st.Close)
	prefs := settings.NewService(db, llm.DefaultCatalog(), nil)
	svc := assistant.NewService(st, db, prefs, &stubClient{chunks: []string{"Bot ", "response"}})

	msgRouter := messaging.NewRouter(nil)
	messaging.RegisterHandlers(msgRouter, db, messaging.NewHub(), nil)

	r := chi.NewRouter()
	r.Use(identity.Middleware())
	NewHandler(st, prefs, svc, msgRouter, opts...).RegisterRoutes(r)
	return &testServer{router: r, store: st, prefs: prefs}
}

func (s *testServer) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return v
}

type tabIDResponse struct {
	RequestID string `json:"requestId"`
	Payload   struct {
		TabID *string `json:"tabId"`
	} `json:"payload"`
}

func TestJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestSelectProblem_CreatesFreshChat(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	w := s.do(t, http.MethodPut, "/api/problem", `{"slug":"two-sum"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	got := decodeBody[chat.State](t, w)
	if got.ProblemSlug != "two-sum" || got.Load != chat.LoadIdle {
		t.Fatalf("state = %+v", got)
	}
	if len(got.Chats) != 1 || got.ActiveChatID != got.Chats[0].ID {
		t.Fatalf("expected one active fresh chat, got %+v", got.Chats)
	}

	if w := s.do(t, http.MethodPut, "/api/problem", `{"slug":"  "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("blank slug status = %d", w.Code)
	}
}

func TestChats_NewReusesEmptyAndSelect(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.do(t, http.MethodPut, "/api/problem", `{"slug":"two-sum"}`)
	active := s.store.Snapshot().ActiveChatID

	w := s.do(t, http.MethodPost, "/api/chats", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decodeBody[map[string]string](t, w)["id"]; got != active {
		t.Fatalf("new chat id = %q, want reused %q", got, active)
	}

	w = s.do(t, http.MethodGet, "/api/chats", "")
	summaries := decodeBody[[]chat.Summary](t, w)
	if len(summaries) != 1 || !summaries[0].Active || summaries[0].Title != "New Chat" {
		t.Fatalf("summaries = %+v", summaries)
	}

	if w := s.do(t, http.MethodPut, "/api/chats/active", `{"id":"missing"}`); w.Code != http.StatusNotFound {
		t.Fatalf("unknown chat status = %d", w.Code)
	}
	if w := s.do(t, http.MethodPut, "/api/chats/active", `{"id":"`+active+`"}`); w.Code != http.StatusOK {
		t.Fatalf("select status = %d", w.Code)
	}
}

func TestChats_TouchMovesToTop(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.do(t, http.MethodPut, "/api/problem", `{"slug":"two-sum"}`)
	id := s.store.Snapshot().ActiveChatID

	w := s.do(t, http.MethodPost, "/api/chats/"+id+"/touch", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decodeBody[[]chat.Summary](t, w); len(got) != 1 || got[0].ID != id {
		t.Fatalf("summaries = %+v", got)
	}
	if w := s.do(t, http.MethodPost, "/api/chats/missing/touch", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown chat status = %d", w.Code)
	}
}

func TestContexts_Toggle(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	w := s.do(t, http.MethodDelete, "/api/contexts/Code", "")
	if got := decodeBody[[]string](t, w); len(got) != 1 || got[0] != "Problem Details" {
		t.Fatalf("after remove = %v", got)
	}

	w = s.do(t, http.MethodDelete, "/api/contexts/Problem%20Details", "")
	if got := decodeBody[[]string](t, w); len(got) != 0 {
		t.Fatalf("after second remove = %v", got)
	}

	w = s.do(t, http.MethodPost, "/api/contexts", `{"name":"Code"}`)
	if got := decodeBody[[]string](t, w); len(got) != 1 || got[0] != "Code" {
		t.Fatalf("after add = %v", got)
	}

	if w := s.do(t, http.MethodPost, "/api/contexts", `{"name":"Tests"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown context status = %d", w.Code)
	}
}

func TestSettings_GetAndPut(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	got := decodeBody[settingsResponse](t, s.do(t, http.MethodGet, "/api/settings", ""))
	if got.APIKeySet || got.SelectedModel != "Gemini 2.5 Pro" || len(got.Models) == 0 {
		t.Fatalf("defaults = %+v", got)
	}

	w := s.do(t, http.MethodPut, "/api/settings", `{"apiKey":" secret ","selectedModel":"gemini-2.5-flash"}`)
	got = decodeBody[settingsResponse](t, w)
	if !got.APIKeySet || got.SelectedModel != "Gemini 2.5 Flash" {
		t.Fatalf("after put = %+v", got)
	}
	if strings.Contains(w.Body.String(), "secret") {
		t.Fatal("API key leaked in response")
	}

	if w := s.do(t, http.MethodPut, "/api/settings", `{"selectedModel":"gpt-9"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown model status = %d", w.Code)
	}
}

func TestSend_StreamsEvents(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	if err := s.prefs.SetAPIKey(context.Background(), "k"); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}
	s.do(t, http.MethodPut, "/api/problem", `{"slug":"two-sum"}`)

	w := s.do(t, http.MethodPost, "/api/chat/messages", `{"text":"Hello"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	body := w.Body.String()
	for _, want := range []string{"event: user\n", "event: chunk\n", `"chunk":"Bot "`, `"chunk":"response"`, "event: done\n"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}

	active := s.store.Snapshot().ActiveChat()
	if active == nil || len(active.Messages) != 2 || active.Messages[1].Text != "Bot response" {
		t.Fatalf("active chat = %+v", active)
	}
}

func TestSend_RefusedBeforeStreaming(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	if w := s.do(t, http.MethodPost, "/api/chat/messages", `{"text":"  "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("empty message status = %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/chat/messages", `{"text":"hi"}`); w.Code != http.StatusPreconditionFailed {
		t.Fatalf("no problem status = %d", w.Code)
	}

	s.do(t, http.MethodPut, "/api/problem", `{"slug":"two-sum"}`)
	w := s.do(t, http.MethodPost, "/api/chat/messages", `{"text":"hi"}`)
	if w.Code != http.StatusPreconditionFailed || !strings.Contains(w.Body.String(), "API key") {
		t.Fatalf("missing key: status = %d, body %s", w.Code, w.Body.String())
	}
	if got := s.store.Snapshot().ActiveChat(); got == nil || len(got.Messages) != 0 {
		t.Fatalf("refused send mutated the chat: %+v", got)
	}
}

func TestSend_RateLimitedPerTab(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, time.Minute)
	t.Cleanup(rl.Close)
	s := newTestServer(t, WithRateLimiter(rl))

	s.do(t, http.MethodPost, "/api/chat/messages", `{"text":"hi"}`, identity.TabHeaderName, "1")
	if w := s.do(t, http.MethodPost, "/api/chat/messages", `{"text":"hi"}`, identity.TabHeaderName, "1"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second send status = %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/chat/messages", `{"text":"hi"}`, identity.TabHeaderName, "2"); w.Code == http.StatusTooManyRequests {
		t.Fatal("other tab was rate limited")
	}
}

func TestMessage_Routes(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/messages", `{"type":"GET_TAB_ID","requestId":"a"}`, identity.TabHeaderName, "9")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decodeBody[tabIDResponse](t, w)
	if resp.RequestID != "a" || resp.Payload.TabID == nil || *resp.Payload.TabID != "9" {
		t.Fatalf("response = %s", w.Body.String())
	}

	if w := s.do(t, http.MethodPost, "/api/messages", `{"type":"UNKNOWN"}`); w.Code != http.StatusNoContent {
		t.Fatalf("unknown type status = %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/messages", `{"type":"PROBLEM_UPDATE","payload":{"data":{}}}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing slug status = %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/messages", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing type status = %d", w.Code)
	}
}

func TestDecode_BodyTooLarge(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, WithMaxRequestBody(16))
	w := s.do(t, http.MethodPut, "/api/problem", `{"slug":"`+strings.Repeat("a", 64)+`"}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", w.Code)
	}
}
