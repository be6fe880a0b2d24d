// Package prompt assembles the text sent to the language model from the
// selected context toggles, recent history and the user's message.
package prompt

import (
	"slices"
	"strings"

	"github.com/ashureev/leetcode-assistant/internal/domain"
)

// DefaultHistoryLimit is how many trailing messages are replayed.
const DefaultHistoryLimit = 10

const (
	NoProblemDetails = "No problem details provided."
	NoCode           = "No code provided."
)

const preamble = `You are a coding interview assistant embedded next to a programming problem.
Help the user reason about the problem: explain concepts, point out bugs in their code and
suggest approaches. Prefer hints over complete solutions unless the user asks for one.
Answer in Markdown and keep responses concise.`

// Input holds everything a prompt is built from. Problem is nil when no
// data was scraped for the active problem.
type Input struct {
	Contexts     []string
	History      []domain.Message
	Problem      *domain.ProblemData
	UserMessage  string
	HistoryLimit int
}

// Build returns the prompt for in. It has no side effects and the same
// input always yields the same prompt.
func Build(in Input) string {
	limit := in.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\n")

	if history := tail(in.History, limit); len(history) > 0 {
		b.WriteString("## Conversation History\n")
		for _, m := range history {
			if m.IsUser {
				b.WriteString("User: ")
			} else {
				b.WriteString("Assistant: ")
			}
			b.WriteString(m.Text)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	b.WriteString("## Problem Details\n")
	if in.Problem != nil && in.Problem.HasContent() && slices.Contains(in.Contexts, domain.ContextProblemDetails) {
		b.WriteString(strings.TrimRight(FormatProblemContext(*in.Problem, []string{domain.ContextProblemDetails}), "\n"))
	} else {
		b.WriteString(NoProblemDetails)
	}
	b.WriteString("\n\n")

	b.WriteString("## Code\n")
	if in.Problem != nil && strings.TrimSpace(in.Problem.Code) != "" && slices.Contains(in.Contexts, domain.ContextCode) {
		b.WriteString("```\n" + strings.TrimRight(in.Problem.Code, "\n") + "\n```")
	} else {
		b.WriteString(NoCode)
	}
	b.WriteString("\n\n")

	b.WriteString("## User Message\n")
	b.WriteString(in.UserMessage)
	return b.String()
}

func tail(msgs []domain.Message, n int) []domain.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
