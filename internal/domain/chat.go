// Package domain contains core domain types for the problem assistant.
package domain

import (
	"time"
)

// MessageStatus is the lifecycle state of a chat message.
type MessageStatus string

const (
	// StatusSending marks a user message whose save has not resolved yet.
	StatusSending MessageStatus = "sending"
	// StatusSucceeded marks a message that was finalized and saved.
	StatusSucceeded MessageStatus = "succeeded"
	// StatusFailed marks a message whose save or stream failed.
	StatusFailed MessageStatus = "failed"
	// StatusStreaming marks an assistant reply that is still receiving chunks.
	StatusStreaming MessageStatus = "streaming"
)

// Terminal reports whether no further transition is allowed from s.
func (s MessageStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Message is a single entry in a conversation.
type Message struct {
	ID     string        `json:"id"`
	Text   string        `json:"text"`
	IsUser bool          `json:"isUser"`
	Status MessageStatus `json:"status"`
}

// Chat is one named conversation for a problem.
// LastUpdated is a Unix timestamp in milliseconds; zero means legacy data without one.
type Chat struct {
	ID          string    `json:"id"`
	Messages    []Message `json:"messages"`
	Title       string    `json:"title,omitempty"`
	LastUpdated int64     `json:"lastUpdated,omitempty"`
}

// Message returns the message with the given id, or nil.
func (c *Chat) Message(id string) *Message {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return &c.Messages[i]
		}
	}
	return nil
}

// Touch refreshes LastUpdated.
func (c *Chat) Touch(now time.Time) {
	c.LastUpdated = Millis(now)
}

// Clone returns a deep copy of the chat.
func (c Chat) Clone() Chat {
	c.Messages = CloneMessages(c.Messages)
	return c
}

// CloneMessages copies a message list so it can cross an async boundary.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return []Message{}
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Millis converts t to Unix milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
