package ai

import (
	"context"
	"fmt"
)

// Client sends a single prompt to a language model.
type Client interface {
	Name() string
	HandleText(ctx context.Context, prompt string) (string, error)
}

// New returns a Gemini client for moduleName "gemini" and an OpenAI-compatible
// client for anything else.
func New(ctx context.Context, moduleName, model, apiKey, baseURL string) (Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ai: no api key configured for %s", moduleName)
	}
	if moduleName == "gemini" {
		return NewGemini(ctx, apiKey, model)
	}
	if model == "" {
		model = moduleName
	}
	return NewOpenAI(apiKey, model, baseURL), nil
}
