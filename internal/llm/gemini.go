package llm

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiClient streams completions from the Gemini API. A client is created
// per request because the API key is user supplied and may change.
type GeminiClient struct {
	timeout time.Duration
	catalog *Catalog
	logger  *slog.Logger
	newGen  func(ctx context.Context, apiKey string) (generator, error)
}

// generator is the slice of the genai SDK used here.
type generator interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// NewGeminiClient creates a client. A zero timeout disables the deadline.
func NewGeminiClient(timeout time.Duration, catalog *Catalog, logger *slog.Logger) *GeminiClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiClient{
		timeout: timeout,
		catalog: catalog,
		logger:  logger,
		newGen:  newGenAIModels,
	}
}

func newGenAIModels(ctx context.Context, apiKey string) (generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client.Models, nil
}

// StreamCompletion implements Client.
func (c *GeminiClient) StreamCompletion(ctx context.Context, req Request) iter.Seq2[string, error] {
	return nonEmpty(func(yield func(string, error) bool) {
		if strings.TrimSpace(req.APIKey) == "" {
			yield("", ErrMissingAPIKey)
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			yield("", ErrEmptyPrompt)
			return
		}

		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		model := req.Model
		if c.catalog != nil {
			model = c.catalog.Resolve(req.Model)
		}

		gen, err := c.newGen(ctx, req.APIKey)
		if err != nil {
			yield("", Normalize(err))
			return
		}

		c.logger.Debug("Starting completion stream", "model", model, "prompt_len", len(req.Prompt))
		start := time.Now()
		chunks := 0
		for resp, err := range gen.GenerateContentStream(ctx, model, genai.Text(req.Prompt), nil) {
			if err != nil {
				c.logger.Warn("Completion stream failed", "model", model, "chunks", chunks, "error", err)
				yield("", Normalize(err))
				return
			}
			if resp == nil {
				continue
			}
			chunks++
			if !yield(resp.Text(), nil) {
				return
			}
		}
		c.logger.Debug("Completion stream finished", "model", model, "chunks", chunks, "duration", time.Since(start))
	})
}
