package llm

import (
	"context"
	"errors"
	"fmt"

	"stock_research/pkg/core/config"
)

// ErrMissingAPIKey is returned by providers whose credentials were not configured.
var ErrMissingAPIKey = errors.New("api key not configured")

// Provider is the interface for all LLM providers.
type Provider interface {
	// GenerateResponse sends one prompt and returns the model's free-text reply.
	// Recognized options: "model" (string), "temperature" (float64).
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// AdaptInstructions transforms raw instructions into model-specific formats
	AdaptInstructions(rawInstructions string) string
}

// New builds a provider from its configuration.
func New(name string, cfg config.ProviderConfig) (Provider, error) {
	switch cfg.Kind {
	case config.KindOpenAICompatible:
		return NewOpenAICompatibleProvider(name, cfg), nil
	case config.KindGemini:
		return &GeminiProvider{Model: cfg.Model, APIKey: cfg.APIKey, Temperature: cfg.Temperature}, nil
	case config.KindGeminiLegacy:
		return &GeminiLegacyProvider{Model: cfg.Model, APIKey: cfg.APIKey, Temperature: cfg.Temperature}, nil
	case config.KindQwen:
		return &QwenProvider{Model: cfg.Model, APIKey: cfg.APIKey, Endpoint: cfg.BaseURL, Temperature: cfg.Temperature}, nil
	case config.KindScripted:
		return NewScriptedProvider(DryRunReply), nil
	default:
		return nil, fmt.Errorf("provider %q: unknown kind %q", name, cfg.Kind)
	}
}

func optString(options map[string]interface{}, key string, fallback string) string {
	if val, ok := options[key].(string); ok && val != "" {
		return val
	}
	return fallback
}

func optFloat(options map[string]interface{}, key string, fallback float64) float64 {
	switch val := options[key].(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	}
	return fallback
}
