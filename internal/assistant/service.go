// Package assistant drives one chat turn: it records the user's message,
// streams the model reply into the conversation store and persists it.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/leetcode-assistant/internal/chat"
	"github.com/ashureev/leetcode-assistant/internal/domain"
	"github.com/ashureev/leetcode-assistant/internal/llm"
	"github.com/ashureev/leetcode-assistant/internal/prompt"
	"github.com/ashureev/leetcode-assistant/internal/store"
)

var (
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("API key is not set")
	// ErrNoProblem is returned when no problem is active.
	ErrNoProblem = errors.New("no active problem")
	// ErrEmptyMessage is returned for a blank message.
	ErrEmptyMessage = errors.New("message is empty")
)

// EventType labels a streamed send event.
type EventType string

const (
	EventUser  EventType = "user"
	EventChunk EventType = "chunk"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// Event is emitted while a send progresses.
type Event struct {
	Type      EventType `json:"type"`
	ChatID    string    `json:"chatId"`
	MessageID string    `json:"messageId"`
	Chunk     string    `json:"chunk,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// SettingsLoader provides the API key and model.
type SettingsLoader interface {
	Load(ctx context.Context) (domain.Settings, error)
}

// SendRequest is one user turn. An empty ChatID targets the active chat.
type SendRequest struct {
	Text   string
	ChatID string
}

// Result summarizes a completed send.
type Result struct {
	ChatID        string
	UserMessageID string
	ReplyID       string
	Reply         string
	UserSaveErr   error
	ReplySaveErr  error
}

// Service coordinates the conversation store, prompt assembly and model client.
type Service struct {
	store        *chat.Store
	kv           store.KeyValue
	settings     SettingsLoader
	client       llm.Client
	newID        chat.IDGenerator
	historyLimit int
	logger       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithIDGenerator overrides message id generation.
func WithIDGenerator(gen chat.IDGenerator) Option {
	return func(s *Service) { s.newID = gen }
}

// WithHistoryLimit sets how many earlier messages are replayed to the model.
func WithHistoryLimit(n int) Option {
	return func(s *Service) { s.historyLimit = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a Service.
func NewService(st *chat.Store, kv store.KeyValue, settings SettingsLoader, client llm.Client, opts ...Option) *Service {
	s := &Service{
		store:        st,
		kv:           kv,
		settings:     settings,
		client:       client,
		newID:        chat.NewULID,
		historyLimit: prompt.DefaultHistoryLimit,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send runs one chat turn. Prerequisite errors are returned before the store
// is touched. Once the user message is recorded, stream and save failures are
// reflected in the conversation and reported through emit; Send itself then
// returns a nil error. emit may be nil and is called from the calling goroutine.
//
// The model stream and saves run detached from ctx cancellation so that a
// dropped client does not leave a reply half-written.
func (s *Service) Send(ctx context.Context, req SendRequest, emit func(Event)) (Result, error) {
	if emit == nil {
		emit = func(Event) {}
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Result{}, ErrEmptyMessage
	}

	snap := s.store.Snapshot()
	slug := snap.ProblemSlug
	if slug == "" {
		return Result{}, ErrNoProblem
	}

	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if !cfg.HasAPIKey() {
		return Result{}, ErrMissingAPIKey
	}

	problem := s.loadProblem(ctx, slug)

	chatID := req.ChatID
	if chatID == "" {
		chatID = snap.ActiveChatID
	}
	if chatID == "" {
		chatID = s.store.StartNewConversation()
	}

	var history []domain.Message
	if c := snap.Chat(chatID); c != nil {
		history = replayable(c.Messages)
	}

	promptText := prompt.Build(prompt.Input{
		Contexts:     snap.Contexts,
		History:      history,
		Problem:      problem,
		UserMessage:  text,
		HistoryLimit: s.historyLimit,
	})

	ctx = context.WithoutCancel(ctx)
	res := Result{ChatID: chatID, UserMessageID: s.newID(), ReplyID: s.newID()}

	userSaved := s.store.SubmitUserMessage(ctx, text, slug, res.UserMessageID, chatID)
	emit(Event{Type: EventUser, ChatID: chatID, MessageID: res.UserMessageID})

	s.store.SetBusy(true)
	defer s.store.SetBusy(false)
	s.store.ClearError()

	s.logger.Info("Sending message", "slug", slug, "chat_id", chatID, "model", cfg.SelectedModel, "history", len(history))

	s.store.BeginStream(chatID, res.ReplyID)
	var reply strings.Builder
	for chunk, err := range s.client.StreamCompletion(ctx, llm.Request{
		APIKey: cfg.APIKey,
		Model:  cfg.SelectedModel,
		Prompt: promptText,
	}) {
		if err != nil {
			msg := llm.Normalize(err).Error()
			s.logger.Warn("Reply stream failed", "slug", slug, "chat_id", chatID, "error", err)
			s.store.Fail(chatID, res.ReplyID, msg)
			s.store.SetError(msg)
			emit(Event{Type: EventError, ChatID: chatID, MessageID: res.ReplyID, Error: msg})
			res.Reply = msg
			res.UserSaveErr = <-userSaved
			return res, nil
		}
		reply.WriteString(chunk)
		s.store.AppendChunk(chatID, res.ReplyID, chunk)
		emit(Event{Type: EventChunk, ChatID: chatID, MessageID: res.ReplyID, Chunk: chunk})
	}
	res.Reply = reply.String()

	res.ReplySaveErr = <-s.store.FinishAndPersist(ctx, chatID, res.ReplyID, slug)
	switch {
	case errors.Is(res.ReplySaveErr, chat.ErrChatNotFound):
		s.logger.Debug("Reply finished after its chat was evicted", "slug", slug, "chat_id", chatID)
		emit(Event{Type: EventDone, ChatID: chatID, MessageID: res.ReplyID})
	case res.ReplySaveErr != nil:
		emit(Event{Type: EventError, ChatID: chatID, MessageID: res.ReplyID, Error: res.ReplySaveErr.Error()})
	default:
		emit(Event{Type: EventDone, ChatID: chatID, MessageID: res.ReplyID})
	}

	res.UserSaveErr = <-userSaved
	return res, nil
}

func (s *Service) loadProblem(ctx context.Context, slug string) *domain.ProblemData {
	data, err := store.LoadProblem(ctx, s.kv, slug)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Warn("Failed to load problem data", "slug", slug, "error", err)
		return nil
	}
	return data
}

// replayable drops messages that never completed; a failed reply holds an
// error text, not model output.
func replayable(msgs []domain.Message) []domain.Message {
	out := make([]domain.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Status == domain.StatusSucceeded {
			out = append(out, m)
		}
	}
	return out
}
