package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ashureev/leetcode-assistant/internal/store"
)

func newTestRouter(t *testing.T) (*Router, *Hub, *store.SQLiteStore) {
	t.Helper()
	db, err := store.NewSQLite(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	hub := NewHub()
	r := NewRouter(nil)
	RegisterHandlers(r, db, hub, nil)
	return r, hub, db
}

func TestProblemUpdate_StoresBlob(t *testing.T) {
	t.Parallel()

	r, _, db := newTestRouter(t)
	payload := json.RawMessage(`{"problemSlug":"two-sum","data":{"title":"1. Two Sum","description":"<p>d</p>","constraints":"","examples":[],"code":"x = 1","timestamp":"2026-01-01T00:00:00.000Z"}}`)

	reply, handled, err := r.Dispatch(context.Background(), Sender{TabID: "1"}, Envelope{Type: TypeProblemUpdate, Payload: payload})
	if err != nil || !handled || reply != nil {
		t.Fatalf("Dispatch = %v, %v, %v", reply, handled, err)
	}

	data, err := store.LoadProblem(context.Background(), db, "two-sum")
	if err != nil {
		t.Fatalf("LoadProblem: %v", err)
	}
	if data.Title != "1. Two Sum" || data.Code != "x = 1" {
		t.Fatalf("stored %+v", data)
	}
}

func TestProblemUpdate_RequiresSlug(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRouter(t)
	_, _, err := r.Dispatch(context.Background(), Sender{}, Envelope{Type: TypeProblemUpdate, Payload: json.RawMessage(`{"data":{}}`)})
	if !errors.Is(err, ErrMissingSlug) {
		t.Fatalf("err = %v, want ErrMissingSlug", err)
	}
}

func TestGetTabID(t *testing.T) {
	t.Parallel()

	r, hub, _ := newTestRouter(t)
	ctx := context.Background()

	reply, _, _ := r.Dispatch(ctx, Sender{}, Envelope{Type: TypeGetTabID})
	if got := reply.(TabIDReply); got.TabID != nil {
		t.Fatalf("expected null tab id, got %q", *got.TabID)
	}

	reply, _, _ = r.Dispatch(ctx, Sender{TabID: "12"}, Envelope{Type: TypeGetTabID})
	if got := reply.(TabIDReply); got.TabID == nil || *got.TabID != "12" {
		t.Fatalf("sender tab not returned: %+v", got)
	}

	hub.Register("5", &fakeConn{})
	reply, _, _ = r.Dispatch(ctx, Sender{}, Envelope{Type: TypeGetTabID})
	if got := reply.(TabIDReply); got.TabID == nil || *got.TabID != "5" {
		t.Fatalf("last active tab not returned: %+v", got)
	}
}

func TestToggleChat_ForwardsToTab(t *testing.T) {
	t.Parallel()

	r, hub, _ := newTestRouter(t)
	page := &fakeConn{}
	hub.Register("7", page)

	reply, handled, err := r.Dispatch(context.Background(), Sender{}, Envelope{Type: TypeToggleChat})
	if err != nil || !handled || reply != nil {
		t.Fatalf("Dispatch = %v, %v, %v", reply, handled, err)
	}
	if page.sentCount() != 1 {
		t.Fatalf("sent %d messages, want 1", page.sentCount())
	}
	if env, ok := page.sent[0].(Envelope); !ok || env.Type != TypeToggleChat {
		t.Fatalf("forwarded %+v", page.sent[0])
	}

	// No connection for the named tab is not an error.
	if _, _, err := r.Dispatch(context.Background(), Sender{}, Envelope{Type: TypeToggleChat, Payload: json.RawMessage(`{"tabId":"99"}`)}); err != nil {
		t.Fatalf("err = %v", err)
	}
}
