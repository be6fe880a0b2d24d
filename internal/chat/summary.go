package chat

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ashureev/leetcode-assistant/internal/domain"
)

const (
	titleMaxRunes = 40
	untitledChat  = "New Chat"
)

// Summary is one row of the chat history list.
type Summary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	LastUpdated  int64  `json:"lastUpdated"`
	RelativeTime string `json:"relativeTime"`
	MessageCount int    `json:"messageCount"`
	Active       bool   `json:"active"`
}

const (
	day   = 24 * time.Hour
	week  = 7 * day
	month = 30 * day
	year  = 365 * day
)

var relMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "just now"},
	{D: 2 * time.Minute, Format: "1 minute %s"},
	{D: time.Hour, Format: "%d minutes %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour %s"},
	{D: day, Format: "%d hours %s", DivBy: time.Hour},
	{D: 2 * day, Format: "1 day %s"},
	{D: week, Format: "%d days %s", DivBy: day},
	{D: 2 * week, Format: "1 week %s"},
	{D: 4 * week, Format: "%d weeks %s", DivBy: week},
	{D: 2 * month, Format: "1 month %s"},
	{D: 12 * month, Format: "%d months %s", DivBy: month},
	{D: 2 * year, Format: "1 year %s"},
	{D: math.MaxInt64, Format: "%d years %s", DivBy: year},
}

// RelativeTime renders then relative to now, e.g. "5 minutes ago".
// Times in the future read "just now".
func RelativeTime(then, now time.Time) string {
	if then.After(now) {
		return relMagnitudes[0].Format
	}
	return humanize.CustomRelTime(then, now, "ago", "from now", relMagnitudes)
}

// Title derives a display title from the first user message with text.
func Title(c domain.Chat) string {
	for _, m := range c.Messages {
		if !m.IsUser {
			continue
		}
		text := strings.TrimSpace(m.Text)
		if text == "" {
			continue
		}
		if r := []rune(text); len(r) > titleMaxRunes {
			return string(r[:titleMaxRunes]) + "..."
		}
		return text
	}
	if c.Title != "" {
		return c.Title
	}
	return untitledChat
}

// Summaries lists the chats in s, newest first.
func (s State) Summaries(now time.Time) []Summary {
	out := make([]Summary, 0, len(s.Chats))
	for _, c := range s.Chats {
		out = append(out, Summary{
			ID:           c.ID,
			Title:        Title(c),
			LastUpdated:  c.LastUpdated,
			RelativeTime: RelativeTime(time.UnixMilli(c.LastUpdated), now),
			MessageCount: len(c.Messages),
			Active:       c.ID == s.ActiveChatID,
		})
	}
	slices.SortStableFunc(out, func(a, b Summary) int {
		switch {
		case a.LastUpdated > b.LastUpdated:
			return -1
		case a.LastUpdated < b.LastUpdated:
			return 1
		}
		return 0
	})
	return out
}

// Summaries lists the chats of the active problem, newest first.
func (s *Store) Summaries() []Summary {
	var out []Summary
	s.do(func() { out = s.state.Summaries(s.now()) })
	return out
}
