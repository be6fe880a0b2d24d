package domain

// ProblemDetails is the static text scraped from a problem page.
// Description and Constraints hold HTML fragments.
type ProblemDetails struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Constraints string   `json:"constraints"`
	Examples    []string `json:"examples"`
}

// HasContent reports whether any detail was captured.
func (p ProblemDetails) HasContent() bool {
	return p.Title != "" || p.Description != "" || p.Constraints != "" || len(p.Examples) > 0
}

// ProblemData is the blob stored under "problem:<slug>": details plus the
// last captured code and the capture timestamp (RFC 3339).
type ProblemData struct {
	ProblemDetails
	Code      string `json:"code"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ProblemKey returns the key-value key holding scraped data for slug.
func ProblemKey(slug string) string {
	return "problem:" + slug
}

// Prompt context toggles.
const (
	ContextProblemDetails = "Problem Details"
	ContextCode           = "Code"
)
