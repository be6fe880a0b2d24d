// Package chat holds the authoritative conversation state for the active
// problem and the transition rules that keep it consistent while loads,
// saves and streamed replies complete out of order.
package chat

import (
	"slices"
	"time"

	"github.com/ashureev/leetcode-assistant/internal/domain"
)

// Context toggle names understood by the prompt builder.
const (
	ContextProblemDetails = domain.ContextProblemDetails
	ContextCode           = domain.ContextCode
)

// LoadStatus tracks whether a history load is in flight.
type LoadStatus string

const (
	LoadIdle    LoadStatus = "idle"
	LoadPending LoadStatus = "pending"
)

// State is the conversation set of the active problem.
// An empty ProblemSlug or ActiveChatID means none.
type State struct {
	ProblemSlug   string        `json:"problemSlug,omitempty"`
	Chats         []domain.Chat `json:"chats"`
	ActiveChatID  string        `json:"activeChatId,omitempty"`
	Contexts      []string      `json:"selectedContexts"`
	Load          LoadStatus    `json:"loading"`
	LoadRequestID string        `json:"-"`

	// Global request indicator shown next to the conversation.
	Busy bool   `json:"isLoading"`
	Err  string `json:"error,omitempty"`
}

// NewState returns the process-start state.
func NewState() State {
	return State{
		Chats:    []domain.Chat{},
		Contexts: []string{ContextProblemDetails, ContextCode},
		Load:     LoadIdle,
	}
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s State) Clone() State {
	chats := make([]domain.Chat, len(s.Chats))
	for i, c := range s.Chats {
		chats[i] = c.Clone()
	}
	s.Chats = chats
	s.Contexts = slices.Clone(s.Contexts)
	return s
}

// Chat returns the in-memory chat with id, or nil.
func (s State) Chat(id string) *domain.Chat {
	for i := range s.Chats {
		if s.Chats[i].ID == id {
			return &s.Chats[i]
		}
	}
	return nil
}

// ActiveChat returns the selected chat, or nil.
func (s State) ActiveChat() *domain.Chat {
	if s.ActiveChatID == "" {
		return nil
	}
	return s.Chat(s.ActiveChatID)
}

// HasContext reports whether the named toggle is selected.
func (s State) HasContext(name string) bool {
	return slices.Contains(s.Contexts, name)
}

// SelectProblem switches the active problem and marks a load with requestID
// as the only one whose result will be accepted. Switching to a different
// slug clears the in-memory conversations first.
func (s *State) SelectProblem(slug, requestID string) {
	if s.ProblemSlug != slug {
		s.Chats = []domain.Chat{}
		s.ActiveChatID = ""
	}
	s.ProblemSlug = slug
	s.Load = LoadPending
	s.LoadRequestID = requestID
}

// ApplyLoaded merges a completed load. It reports false when the result is
// stale: not pending, a superseded request, or a slug that is no longer
// active. newChatID is used only when both memory and disk are empty.
func (s *State) ApplyLoaded(requestID, slug string, loaded []domain.Chat, newChatID string, now time.Time) bool {
	if s.Load != LoadPending || s.LoadRequestID != requestID {
		return false
	}
	s.Load = LoadIdle
	s.LoadRequestID = ""
	if slug != s.ProblemSlug {
		return false
	}

	if len(s.Chats) == 0 {
		if len(loaded) == 0 {
			s.Chats = []domain.Chat{{ID: newChatID, Messages: []domain.Message{}, LastUpdated: domain.Millis(now)}}
			s.ActiveChatID = newChatID
			return true
		}
		s.Chats = make([]domain.Chat, 0, len(loaded))
		for _, c := range loaded {
			s.Chats = append(s.Chats, c.Clone())
		}
		s.ActiveChatID = mostRecent(s.Chats)
		return true
	}

	// In-memory chats may hold optimistic messages newer than the disk copy.
	for _, c := range loaded {
		if s.Chat(c.ID) == nil {
			s.Chats = append(s.Chats, c.Clone())
		}
	}
	if s.ActiveChat() == nil {
		s.ActiveChatID = mostRecent(s.Chats)
	}
	return true
}

// ApplyLoadFailed clears the pending marker if requestID is current.
func (s *State) ApplyLoadFailed(requestID string) bool {
	if s.Load != LoadPending || s.LoadRequestID != requestID {
		return false
	}
	s.Load = LoadIdle
	s.LoadRequestID = ""
	return true
}

// StartNewChat selects an existing empty chat, refreshing its timestamp, or
// appends a new one with id. It returns the selected chat id.
func (s *State) StartNewChat(id string, now time.Time) string {
	for i := range s.Chats {
		if len(s.Chats[i].Messages) == 0 {
			s.Chats[i].Touch(now)
			s.ActiveChatID = s.Chats[i].ID
			return s.ActiveChatID
		}
	}
	s.Chats = append(s.Chats, domain.Chat{ID: id, Messages: []domain.Message{}, LastUpdated: domain.Millis(now)})
	s.ActiveChatID = id
	return id
}

// SelectChat makes id the active chat if it exists.
func (s *State) SelectChat(id string) bool {
	if s.Chat(id) == nil {
		return false
	}
	s.ActiveChatID = id
	return true
}

// TouchChat refreshes the timestamp of chat id.
func (s *State) TouchChat(id string, now time.Time) bool {
	c := s.Chat(id)
	if c == nil {
		return false
	}
	c.Touch(now)
	return true
}

// AppendUserMessage adds a sending user message to chatID, creating and
// selecting the chat if it is not in memory.
func (s *State) AppendUserMessage(chatID, messageID, text string, now time.Time) *domain.Chat {
	c := s.Chat(chatID)
	if c == nil {
		s.Chats = append(s.Chats, domain.Chat{ID: chatID, Messages: []domain.Message{}, LastUpdated: domain.Millis(now)})
		s.ActiveChatID = chatID
		c = &s.Chats[len(s.Chats)-1]
	}
	c.Messages = append(c.Messages, domain.Message{
		ID:     messageID,
		Text:   text,
		IsUser: true,
		Status: domain.StatusSending,
	})
	c.Touch(now)
	return c
}

// ResolveUserMessage moves a sending message to succeeded or failed. It is a
// no-op when the chat or message is gone or already terminal.
func (s *State) ResolveUserMessage(chatID, messageID string, saveErr error, now time.Time) bool {
	c := s.Chat(chatID)
	if c == nil {
		return false
	}
	m := c.Message(messageID)
	if m == nil || !m.IsUser || m.Status.Terminal() {
		return false
	}
	m.Status = domain.StatusSucceeded
	if saveErr != nil {
		m.Status = domain.StatusFailed
	}
	c.Touch(now)
	return true
}

// BeginStream inserts an empty streaming assistant placeholder.
func (s *State) BeginStream(chatID, messageID string, now time.Time) bool {
	c := s.Chat(chatID)
	if c == nil || c.Message(messageID) != nil {
		return false
	}
	c.Messages = append(c.Messages, domain.Message{
		ID:     messageID,
		Text:   "",
		IsUser: false,
		Status: domain.StatusStreaming,
	})
	c.Touch(now)
	return true
}

// AppendChunk appends chunk verbatim while the message is still streaming.
func (s *State) AppendChunk(chatID, messageID, chunk string) bool {
	m := s.streaming(chatID, messageID)
	if m == nil {
		return false
	}
	m.Text += chunk
	return true
}

// FinishStream marks a streaming message succeeded.
func (s *State) FinishStream(chatID, messageID string, now time.Time) bool {
	m := s.streaming(chatID, messageID)
	if m == nil {
		return false
	}
	m.Status = domain.StatusSucceeded
	s.Chat(chatID).Touch(now)
	return true
}

// FailStream marks a streaming message failed and shows errText as its body.
func (s *State) FailStream(chatID, messageID, errText string, now time.Time) bool {
	m := s.streaming(chatID, messageID)
	if m == nil {
		return false
	}
	m.Status = domain.StatusFailed
	m.Text = errText
	s.Chat(chatID).Touch(now)
	return true
}

// FailSavedReply marks a finished assistant reply failed after its save was
// rejected, overriding the succeeded status set when the stream finished.
// A reply still streaming is left alone.
func (s *State) FailSavedReply(chatID, messageID string, now time.Time) bool {
	c := s.Chat(chatID)
	if c == nil {
		return false
	}
	m := c.Message(messageID)
	if m == nil || m.IsUser || !m.Status.Terminal() {
		return false
	}
	m.Status = domain.StatusFailed
	c.Touch(now)
	return true
}

// AddContext selects a toggle; duplicates are ignored.
func (s *State) AddContext(name string) {
	if !s.HasContext(name) {
		s.Contexts = append(s.Contexts, name)
	}
}

// RemoveContext deselects a toggle.
func (s *State) RemoveContext(name string) {
	s.Contexts = slices.DeleteFunc(s.Contexts, func(c string) bool { return c == name })
}

func (s *State) streaming(chatID, messageID string) *domain.Message {
	c := s.Chat(chatID)
	if c == nil {
		return nil
	}
	m := c.Message(messageID)
	if m == nil || m.Status != domain.StatusStreaming {
		return nil
	}
	return m
}

// mostRecent returns the id of the chat with the greatest LastUpdated; the
// first one wins ties.
func mostRecent(chats []domain.Chat) string {
	if len(chats) == 0 {
		return ""
	}
	best := 0
	for i := 1; i < len(chats); i++ {
		if chats[i].LastUpdated > chats[best].LastUpdated {
			best = i
		}
	}
	return chats[best].ID
}
