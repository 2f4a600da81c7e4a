// Package llm adapts hosted text-generation APIs to a single Generator
// interface. Adapters make exactly one request per call and never retry.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider names a supported generation backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// Role tags a message in a request.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry of a request.
type Message struct {
	Role    Role
	Content string
}

// Request is everything a generation call needs.
type Request struct {
	Model       string
	MaxTokens   int
	Temperature float64
	System      string // optional
	Messages    []Message
}

// Generator produces text for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// New returns a Generator for provider. baseURL may be empty to use the
// provider's public endpoint.
func New(ctx context.Context, provider Provider, apiKey, baseURL string) (Generator, error) {
	switch Provider(strings.ToLower(string(provider))) {
	case ProviderAnthropic, "":
		cfg := DefaultAnthropicConfig(apiKey)
		if baseURL != "" {
			cfg.BaseURL = baseURL
		}
		return NewAnthropicClientWithConfig(cfg), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, apiKey, baseURL)
	default:
		return nil, fmt.Errorf("unsupported provider %q (supported: anthropic, gemini)", provider)
	}
}
