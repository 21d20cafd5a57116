package ai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

type openAI struct {
	model  string
	client *openai.Client
}

// NewOpenAI creates a client for any OpenAI-compatible endpoint. An empty
// baseURL keeps the library default.
func NewOpenAI(apiKey, model, baseURL string) Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openAI{model: model, client: openai.NewClientWithConfig(cfg)}
}

func (o *openAI) Name() string {
	return "openai"
}

func (o *openAI) HandleText(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens: 500,
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
