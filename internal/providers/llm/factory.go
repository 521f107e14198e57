package llm

import (
	"context"
	"strings"
)

// Config selects and parameterizes a provider. An empty or unrecognized
// configuration yields the MockClient so the engine never hard-fails on a
// missing key.
type Config struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

// New builds a Client from config.
func New(ctx context.Context, cfg Config) Client {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	key := strings.TrimSpace(cfg.APIKey)

	switch provider {
	case "openai":
		if key != "" {
			return &OpenAIClient{APIKey: key, Model: modelOrDefault(cfg.Model, "gpt-4o-mini"), BaseURL: cfg.BaseURL}
		}
	case "anthropic":
		if key != "" {
			return &AnthropicClient{APIKey: key, Model: modelOrDefault(cfg.Model, "claude-3-5-sonnet-latest"), BaseURL: cfg.BaseURL}
		}
	case "gemini":
		if key != "" {
			if c, err := NewGeminiClient(ctx, key, modelOrDefault(cfg.Model, "gemini-1.5-flash")); err == nil {
				return c
			}
		}
	}
	return &MockClient{}
}

func modelOrDefault(model, def string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return def
}
