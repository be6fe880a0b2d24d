package prompt

import (
	"slices"
	"strings"

	"github.com/ashureev/leetcode-assistant/internal/domain"
)

// FormatProblemContext renders the selected parts of a scraped problem as
// Markdown sections. It returns "" when no toggle is selected.
func FormatProblemContext(data domain.ProblemData, contexts []string) string {
	var b strings.Builder

	if slices.Contains(contexts, domain.ContextProblemDetails) {
		b.WriteString("### Problem: " + data.Title + "\n\n")
		if data.Description != "" {
			b.WriteString("#### Description\n" + HTMLToText(data.Description) + "\n\n")
		}
		if data.Constraints != "" {
			b.WriteString("#### Constraints\n" + HTMLToText(data.Constraints) + "\n\n")
		}
		if len(data.Examples) > 0 {
			examples := make([]string, len(data.Examples))
			for i, ex := range data.Examples {
				examples[i] = HTMLToText(ex)
			}
			b.WriteString("#### Examples\n" + strings.Join(examples, "\n\n") + "\n\n")
		}
	}

	if slices.Contains(contexts, domain.ContextCode) {
		b.WriteString("#### Code\n" + data.Code + "\n")
	}
	return b.String()
}
