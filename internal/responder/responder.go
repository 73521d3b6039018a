// Package responder maps a requested model name to one of the response
// strategies and normalizes failures into text payloads.
package responder

import (
	"context"
	"strings"

	"github.com/quillchat/chat-platform/pkg/logger"
)

const (
	gptPrefix           = "[GPT] Echo: "
	claudeFallback      = "[Claude] Sorry, I don't have a mock response for that prompt."
	geminiNotConfigured = "[Gemini] API key not configured."
	geminiErrorPrefix   = "[Gemini] API error: "
	unknownModel        = "Unknown model"
)

// Generator produces text for a prompt via an external service.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Dispatcher selects a response strategy by model name. It holds only
// immutable state and is safe for concurrent use.
type Dispatcher struct {
	mock   *MockTable
	gemini Generator
	logger *logger.Logger
}

// NewDispatcher creates a new dispatcher. gemini may be nil when no
// credential is configured.
func NewDispatcher(mock *MockTable, gemini Generator, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		mock:   mock,
		gemini: gemini,
		logger: log,
	}
}

// Respond produces a response for the prompt. Model names are matched
// case-insensitively. Failures of the external strategy are returned as
// text: the chat turn must still be persisted and answered with success,
// so "the model said something" and "the model failed" look the same to
// the caller.
func (d *Dispatcher) Respond(ctx context.Context, modelName, prompt string) string {
	switch strings.ToLower(modelName) {
	case "gpt":
		return gptPrefix + prompt

	case "claude":
		if resp, ok := d.mock.Lookup(prompt); ok {
			return resp
		}
		return claudeFallback

	case "gemini":
		if d.gemini == nil {
			return geminiNotConfigured
		}
		text, err := d.gemini.Generate(ctx, prompt)
		if err != nil {
			d.logger.Warn("external generation failed")
			return geminiErrorPrefix + err.Error()
		}
		return text

	default:
		return unknownModel
	}
}

// EstimateTokens approximates a token count as the number of
// whitespace-separated words. Display metadata only, not enforcement.
func EstimateTokens(text string) int {
	return len(strings.Fields(text))
}
