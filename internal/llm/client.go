// Package llm streams completions from a generative-language model and maps
// provider failures to user-facing categories.
package llm

import (
	"context"
	"errors"
	"iter"
)

// ErrEmptyPrompt is returned before any request is made for a blank prompt.
var ErrEmptyPrompt error = &Error{Category: CategoryInput, Err: errors.New("Invalid prompt provided.")}

// ErrMissingAPIKey is returned before any request is made without a key.
var ErrMissingAPIKey error = &Error{Category: CategoryInput, Err: errors.New("Invalid API key provided.")}

// Request is one completion request.
type Request struct {
	APIKey string
	Model  string
	Prompt string
}

// Client streams text chunks for a prompt. Empty chunks are never yielded and
// errors are normalized into *Error before they are yielded.
type Client interface {
	StreamCompletion(ctx context.Context, req Request) iter.Seq2[string, error]
}

// nonEmpty drops empty chunks from seq.
func nonEmpty(seq iter.Seq2[string, error]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for chunk, err := range seq {
			if err == nil && chunk == "" {
				continue
			}
			if !yield(chunk, err) {
				return
			}
		}
	}
}
