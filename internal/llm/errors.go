package llm

import (
	"errors"
	"strings"
)

// Category is a user-facing classification of a model failure.
type Category string

const (
	CategoryInvalidRequest Category = "invalid_request"
	CategoryAuthentication Category = "authentication"
	CategoryPermission     Category = "permission"
	CategoryNotFound       Category = "not_found"
	CategoryRateLimit      Category = "rate_limit"
	CategoryUnavailable    Category = "unavailable"
	CategoryUnexpected     Category = "unexpected"
	// CategoryInput marks local input validation failures; Err is shown as is.
	CategoryInput Category = "input"
)

var categoryMessages = map[Category]string{
	CategoryInvalidRequest: "Invalid request. Please check your prompt and try again.",
	CategoryAuthentication: "Authentication failed. Please check your API key.",
	CategoryPermission:     "Permission denied. You do not have permission to call the API.",
	CategoryNotFound:       "The requested resource was not found.",
	CategoryRateLimit:      "Rate limit exceeded. Please try again later.",
	CategoryUnavailable:    "The service is temporarily unavailable. Please try again later.",
}

// Checked in order; the first status code found in the message wins.
var statusCategories = []struct {
	code     string
	category Category
}{
	{"400", CategoryInvalidRequest},
	{"401", CategoryAuthentication},
	{"403", CategoryPermission},
	{"404", CategoryNotFound},
	{"429", CategoryRateLimit},
	{"500", CategoryUnavailable},
	{"503", CategoryUnavailable},
}

// Error is a normalized model failure. Error() is safe to show to users.
type Error struct {
	Category Category
	Err      error
}

func (e *Error) Error() string {
	if msg, ok := categoryMessages[e.Category]; ok {
		return msg
	}
	if e.Category == CategoryInput {
		return e.Err.Error()
	}
	return "An unexpected error occurred: " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Normalize classifies err by the HTTP status code embedded in its message.
// Nil stays nil and already normalized errors pass through.
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	var normalized *Error
	if errors.As(err, &normalized) {
		return err
	}
	return &Error{Category: Classify(err.Error()), Err: err}
}

// Classify maps an error message to a category.
func Classify(msg string) Category {
	for _, sc := range statusCategories {
		if strings.Contains(msg, sc.code) {
			return sc.category
		}
	}
	return CategoryUnexpected
}
