package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ashureev/leetcode-assistant/internal/domain"
)

// ErrChatNotFound is reported when an operation targets a chat that is no
// longer in memory, typically after a problem switch.
var ErrChatNotFound = errors.New("chat not found")

// ErrClosed is reported by operations issued after Close.
var ErrClosed = errors.New("chat store closed")

// Gateway is the persistence boundary used by the Store.
type Gateway interface {
	LoadChatsForProblem(ctx context.Context, slug string) ([]domain.Chat, error)
	PersistChat(ctx context.Context, slug, chatID string, messages []domain.Message, lastUpdated int64) <-chan error
}

// Store owns the conversation State. Every transition runs on a single
// goroutine; async work posts its completion back onto that goroutine, so a
// transition always sees the effects of all earlier ones.
type Store struct {
	gw        Gateway
	logger    *slog.Logger
	now       func() time.Time
	newID     IDGenerator
	requestID IDGenerator

	state  State
	events chan func()
	done   chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides chat id generation.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Store) { s.newID = gen }
}

// WithRequestIDGenerator overrides load request tokens.
func WithRequestIDGenerator(gen IDGenerator) Option {
	return func(s *Store) { s.requestID = gen }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a Store and starts its event loop.
func NewStore(gw Gateway, opts ...Option) *Store {
	s := &Store{
		gw:        gw,
		logger:    slog.Default(),
		now:       time.Now,
		newID:     NewULID,
		requestID: newRequestID,
		state:     NewState(),
		events:    make(chan func()),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.loop()
	return s
}

func (s *Store) loop() {
	for {
		select {
		case <-s.done:
			return
		case fn := <-s.events:
			fn()
		}
	}
}

// Close stops the event loop. Pending completions are dropped.
func (s *Store) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// do runs fn on the loop and waits for it. It returns false after Close.
// It must not be called from the loop itself.
func (s *Store) do(fn func()) bool {
	finished := make(chan struct{})
	select {
	case s.events <- func() { fn(); close(finished) }:
	case <-s.done:
		return false
	}
	select {
	case <-finished:
		return true
	case <-s.done:
		return false
	}
}

// post hands fn to the loop. Used by completions of async work; it reports
// false if the store closed first.
func (s *Store) post(fn func()) bool {
	select {
	case s.events <- fn:
		return true
	case <-s.done:
		return false
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	var out State
	s.do(func() { out = s.state.Clone() })
	return out
}

// SelectProblem switches to slug and loads its history in the background.
// The returned channel closes once the load result has been applied or
// discarded as stale. Canceling ctx does not abort the load.
func (s *Store) SelectProblem(ctx context.Context, slug string) <-chan struct{} {
	ctx = context.WithoutCancel(ctx)
	settled := make(chan struct{})
	var requestID string
	ok := s.do(func() {
		requestID = s.requestID()
		s.state.SelectProblem(slug, requestID)
	})
	if !ok {
		close(settled)
		return settled
	}

	s.logger.Debug("Loading chats", "slug", slug, "request_id", requestID)
	go func() {
		defer close(settled)
		loaded, err := s.gw.LoadChatsForProblem(ctx, slug)
		applied := make(chan struct{})
		s.post(func() {
			defer close(applied)
			if err != nil {
				s.logger.Error("Failed to load chats", "slug", slug, "error", err)
				s.state.ApplyLoadFailed(requestID)
				return
			}
			if !s.state.ApplyLoaded(requestID, slug, loaded, s.newID(), s.now()) {
				s.logger.Debug("Discarding stale chat load", "slug", slug, "request_id", requestID)
			}
		})
		select {
		case <-applied:
		case <-s.done:
		}
	}()
	return settled
}

// StartNewConversation selects an empty chat or creates one, returning its id.
func (s *Store) StartNewConversation() string {
	var id string
	s.do(func() { id = s.state.StartNewChat(s.newID(), s.now()) })
	return id
}

// SelectConversation makes id active. It reports false for unknown ids.
func (s *Store) SelectConversation(id string) bool {
	var ok bool
	s.do(func() { ok = s.state.SelectChat(id) })
	return ok
}

// TouchConversation refreshes the timestamp of chat id.
func (s *Store) TouchConversation(id string) bool {
	var ok bool
	s.do(func() { ok = s.state.TouchChat(id, s.now()) })
	return ok
}

// AddContextToggle selects a prompt context toggle.
func (s *Store) AddContextToggle(name string) {
	s.do(func() { s.state.AddContext(name) })
}

// RemoveContextToggle deselects a prompt context toggle.
func (s *Store) RemoveContextToggle(name string) {
	s.do(func() { s.state.RemoveContext(name) })
}

// SetBusy sets the global request indicator.
func (s *Store) SetBusy(busy bool) {
	s.do(func() { s.state.Busy = busy })
}

// SetError sets the global error indicator; an empty message clears it.
func (s *Store) SetError(msg string) {
	s.do(func() { s.state.Err = msg })
}

// ClearError clears the global error indicator.
func (s *Store) ClearError() {
	s.SetError("")
}

// SubmitUserMessage appends text to chatID optimistically and saves the chat.
// The returned channel yields the save result after the message status has
// been updated; a chat that vanished meanwhile yields nil and is left alone.
func (s *Store) SubmitUserMessage(ctx context.Context, text, slug, messageID, chatID string) <-chan error {
	result := make(chan error, 1)
	var saved <-chan error
	ok := s.do(func() {
		c := s.state.AppendUserMessage(chatID, messageID, text, s.now())
		saved = s.gw.PersistChat(ctx, slug, chatID, c.Messages, c.LastUpdated)
	})
	if !ok {
		result <- ErrClosed
		return result
	}

	go func() {
		err := <-saved
		posted := s.post(func() {
			if err != nil {
				s.logger.Error("Failed to save chat", "slug", slug, "chat_id", chatID, "message_id", messageID, "error", err)
			}
			if !s.state.ResolveUserMessage(chatID, messageID, err, s.now()) {
				s.logger.Debug("Dropping save result for vanished message", "chat_id", chatID, "message_id", messageID)
			}
			result <- err
		})
		if !posted {
			result <- ErrClosed
		}
	}()
	return result
}

// BeginStream opens an empty streaming reply in chatID.
func (s *Store) BeginStream(chatID, messageID string) bool {
	var ok bool
	s.do(func() { ok = s.state.BeginStream(chatID, messageID, s.now()) })
	return ok
}

// AppendChunk appends a chunk to a streaming reply. Calls on a finalized or
// missing message are dropped and report false.
func (s *Store) AppendChunk(chatID, messageID, chunk string) bool {
	var ok bool
	s.do(func() { ok = s.state.AppendChunk(chatID, messageID, chunk) })
	return ok
}

// Fail ends a streaming reply with errText as its body.
func (s *Store) Fail(chatID, messageID, errText string) bool {
	var ok bool
	s.do(func() { ok = s.state.FailStream(chatID, messageID, errText, s.now()) })
	return ok
}

// FinishAndPersist marks the reply succeeded and saves the whole chat. A
// rejected save flips the reply to failed and sets the global error. If the
// chat or its streaming reply is no longer in memory nothing is written and
// ErrChatNotFound is returned.
func (s *Store) FinishAndPersist(ctx context.Context, chatID, messageID, slug string) <-chan error {
	result := make(chan error, 1)
	var saved <-chan error
	found := false
	ok := s.do(func() {
		if !s.state.FinishStream(chatID, messageID, s.now()) {
			return
		}
		found = true
		c := s.state.Chat(chatID)
		saved = s.gw.PersistChat(ctx, slug, chatID, c.Messages, c.LastUpdated)
	})
	switch {
	case !ok:
		result <- ErrClosed
		return result
	case !found:
		s.logger.Debug("Dropping reply for vanished chat or message", "chat_id", chatID, "message_id", messageID)
		result <- ErrChatNotFound
		return result
	}

	go func() {
		err := <-saved
		posted := s.post(func() {
			if err != nil {
				s.logger.Error("Failed to save streamed reply", "slug", slug, "chat_id", chatID, "message_id", messageID, "error", err)
				s.state.FailSavedReply(chatID, messageID, s.now())
				s.state.Err = err.Error()
			}
			result <- err
		})
		if !posted {
			result <- ErrClosed
		}
	}()
	return result
}
