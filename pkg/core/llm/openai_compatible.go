package llm

import (
	"context"
	"fmt"
	"strings"

	"stock_research/pkg/core/config"

	"github.com/sashabaranov/go-openai"
)

// OpenAICompatibleProvider talks to any chat-completions endpoint that speaks
// the OpenAI wire format: Groq, DeepSeek, OpenAI, OpenRouter, local servers.
type OpenAICompatibleProvider struct {
	name        string
	model       string
	temperature float64
	apiKey      string
	client      *openai.Client
}

var _ Provider = (*OpenAICompatibleProvider)(nil)

func NewOpenAICompatibleProvider(name string, cfg config.ProviderConfig) *OpenAICompatibleProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAICompatibleProvider{
		name:        name,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		apiKey:      cfg.APIKey,
		client:      openai.NewClientWithConfig(clientCfg),
	}
}

func (p *OpenAICompatibleProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("%s: %w", p.name, ErrMissingAPIKey)
	}

	var messages []openai.ChatCompletionMessage
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       optString(options, "model", p.model),
		Messages:    messages,
		Temperature: float32(optFloat(options, "temperature", p.temperature)),
	})
	if err != nil {
		return "", fmt.Errorf("%s chat completion failed: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", p.name)
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAICompatibleProvider) AdaptInstructions(raw string) string {
	return raw
}
