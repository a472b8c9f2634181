package ai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// Generator produces free text for a prompt. The production implementation
// talks to the model API; tests substitute a fake.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type GeneratorConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// ModelGenerator calls a chat-completion API. BaseURL allows pointing the
// client at any OpenAI-compatible endpoint, which is how the Gemini models
// are reached.
type ModelGenerator struct {
	client *openai.Client
	model  string
}

func NewModelGenerator(cfg GeneratorConfig) (*ModelGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing AI API key")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &ModelGenerator{client: openai.NewClientWithConfig(clientCfg), model: model}, nil
}

func (g *ModelGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
