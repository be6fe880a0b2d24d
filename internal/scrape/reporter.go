package scrape

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/leetcode-assistant/internal/domain"
)

// Sink receives problem updates.
type Sink func(ctx context.Context, slug string, data domain.ProblemData) error

// Reporter combines the static details of one page with live code edits and
// forwards an update only when details are known and the code changed.
type Reporter struct {
	slug   string
	sink   Sink
	now    func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	details  *domain.ProblemDetails
	pending  *string
	lastSent *string
}

// NewReporter creates a Reporter for the page of slug.
func NewReporter(slug string, sink Sink, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{slug: slug, sink: sink, now: time.Now, logger: logger}
}

// SetDetails records the parsed details and flushes code seen before them.
func (r *Reporter) SetDetails(ctx context.Context, details domain.ProblemDetails) error {
	r.mu.Lock()
	r.details = &details
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	if pending == nil {
		return nil
	}
	_, err := r.CodeChanged(ctx, *pending)
	return err
}

// CodeChanged reports a code edit. It returns false when nothing was sent:
// details are not parsed yet, the code is unchanged, or the page has no slug.
func (r *Reporter) CodeChanged(ctx context.Context, code string) (bool, error) {
	r.mu.Lock()
	if r.details == nil {
		r.pending = &code
		r.mu.Unlock()
		return false, nil
	}
	if r.slug == "" || (r.lastSent != nil && *r.lastSent == code) {
		r.mu.Unlock()
		return false, nil
	}
	data := domain.ProblemData{
		ProblemDetails: *r.details,
		Code:           code,
		Timestamp:      r.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	r.lastSent = &code
	r.mu.Unlock()

	if err := r.sink(ctx, r.slug, data); err != nil {
		r.logger.Warn("Failed to report problem update", "slug", r.slug, "error", err)
		r.mu.Lock()
		if r.lastSent != nil && *r.lastSent == code {
			r.lastSent = nil
		}
		r.mu.Unlock()
		return false, err
	}
	r.logger.Debug("Reported problem update", "slug", r.slug, "code_len", len(code))
	return true, nil
}
