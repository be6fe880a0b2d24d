package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashureev/leetcode-assistant/internal/domain"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "assistant.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_ChatsRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	chats, err := s.GetChats(ctx, "two-sum")
	if err != nil {
		t.Fatalf("GetChats on empty db: %v", err)
	}
	if len(chats) != 0 {
		t.Fatalf("expected no chats, got %d", len(chats))
	}

	err = s.UpdateChats(ctx, "two-sum", func(chats []domain.Chat) []domain.Chat {
		return append(chats, domain.Chat{
			ID:          "c1",
			Messages:    []domain.Message{{ID: "m1", Text: "Hello", IsUser: true, Status: domain.StatusSucceeded}},
			LastUpdated: 1000,
		})
	})
	if err != nil {
		t.Fatalf("UpdateChats: %v", err)
	}

	chats, err = s.GetChats(ctx, "two-sum")
	if err != nil {
		t.Fatalf("GetChats: %v", err)
	}
	if len(chats) != 1 || chats[0].Messages[0].Text != "Hello" || chats[0].LastUpdated != 1000 {
		t.Fatalf("unexpected chats: %+v", chats)
	}

	other, err := s.GetChats(ctx, "add-two-numbers")
	if err != nil {
		t.Fatalf("GetChats other slug: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("slugs leaked into each other: %+v", other)
	}
}

func TestSQLiteStore_GatewayIntegration(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	gw := NewGateway(s)
	ctx := context.Background()

	first := gw.PersistChat(ctx, "two-sum", "c1", []domain.Message{{ID: "m1", Text: "Hi"}}, 10)
	second := gw.PersistChat(ctx, "two-sum", "c2", []domain.Message{{ID: "m2", Text: "Other"}}, 20)
	if err := <-first; err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := <-second; err != nil {
		t.Fatalf("second save: %v", err)
	}

	chats, err := gw.LoadChatsForProblem(ctx, "two-sum")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(chats) != 2 || chats[0].ID != "c1" || chats[1].ID != "c2" {
		t.Fatalf("unexpected chats: %+v", chats)
	}
}

func TestSQLiteStore_KeyValue(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "apiKey"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Set(ctx, "apiKey", []byte("k1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "apiKey", []byte("k2")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := s.Get(ctx, "apiKey")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "k2" {
		t.Fatalf("got %q, want k2", got)
	}
}

func TestIsBusyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("SQLITE_BUSY: database busy"), true},
		{errors.New("database is locked"), true},
		{errors.New("no such table"), false},
	}
	for _, tt := range tests {
		if got := IsBusyError(tt.err); got != tt.want {
			t.Errorf("IsBusyError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestProblemBlobRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	if _, err := LoadProblem(ctx, s, "two-sum"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	want := domain.ProblemData{
		ProblemDetails: domain.ProblemDetails{Title: "1. Two Sum", Examples: []string{"<pre>x</pre>"}},
		Code:           "class Solution {}",
		Timestamp:      "2026-01-02T03:04:05Z",
	}
	if err := SaveProblem(ctx, s, "two-sum", want); err != nil {
		t.Fatalf("SaveProblem: %v", err)
	}
	got, err := LoadProblem(ctx, s, "two-sum")
	if err != nil {
		t.Fatalf("LoadProblem: %v", err)
	}
	if got.Title != want.Title || got.Code != want.Code || len(got.Examples) != 1 {
		t.Fatalf("got %+v", got)
	}

	raw, err := s.Get(ctx, "problem:two-sum")
	if err != nil {
		t.Fatalf("raw get: %v", err)
	}
	if !strings.Contains(string(raw), `"code":"class Solution {}"`) {
		t.Fatalf("stored blob = %s", raw)
	}
}
