package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ashureev/leetcode-assistant/internal/domain"
)

type recordingSink struct {
	updates []domain.ProblemData
	err     error
}

func (s *recordingSink) send(_ context.Context, _ string, data domain.ProblemData) error {
	if s.err != nil {
		return s.err
	}
	s.updates = append(s.updates, data)
	return nil
}

func newTestReporter(sink *recordingSink) *Reporter {
	r := NewReporter("two-sum", sink.send, nil)
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC) }
	return r
}

func TestReporter_DedupesCode(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	r := newTestReporter(sink)
	ctx := context.Background()
	if err := r.SetDetails(ctx, domain.ProblemDetails{Title: "1. Two Sum"}); err != nil {
		t.Fatalf("SetDetails: %v", err)
	}

	for _, code := range []string{"a", "a", "b"} {
		if _, err := r.CodeChanged(ctx, code); err != nil {
			t.Fatalf("CodeChanged: %v", err)
		}
	}
	if len(sink.updates) != 2 || sink.updates[0].Code != "a" || sink.updates[1].Code != "b" {
		t.Fatalf("updates = %+v", sink.updates)
	}
	if got := sink.updates[0]; got.Title != "1. Two Sum" || got.Timestamp != "2026-01-02T03:04:05.006Z" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestReporter_HoldsCodeUntilDetails(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	r := newTestReporter(sink)
	ctx := context.Background()

	if sent, _ := r.CodeChanged(ctx, "early"); sent {
		t.Fatal("update sent before details were parsed")
	}
	if err := r.SetDetails(ctx, domain.ProblemDetails{Title: "t"}); err != nil {
		t.Fatalf("SetDetails: %v", err)
	}
	if len(sink.updates) != 1 || sink.updates[0].Code != "early" {
		t.Fatalf("pending code not flushed: %+v", sink.updates)
	}
}

func TestReporter_RetriesAfterSinkFailure(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{err: errors.New("offline")}
	r := newTestReporter(sink)
	ctx := context.Background()
	_ = r.SetDetails(ctx, domain.ProblemDetails{Title: "t"})

	if _, err := r.CodeChanged(ctx, "x"); err == nil {
		t.Fatal("expected sink error")
	}
	sink.err = nil
	if sent, err := r.CodeChanged(ctx, "x"); !sent || err != nil {
		t.Fatalf("same code not resent after failure: sent=%v err=%v", sent, err)
	}
}

func TestReporter_NoSlug(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	r := NewReporter("", sink.send, nil)
	_ = r.SetDetails(context.Background(), domain.ProblemDetails{})
	if sent, _ := r.CodeChanged(context.Background(), "x"); sent || len(sink.updates) != 0 {
		t.Fatal("update sent without a slug")
	}
}
