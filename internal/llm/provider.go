// Package llm abstracts the completion backends the optional LLM-backed
// document extractor can run against. The attribution and merge engines never
// touch this package: extraction produces facts, and everything downstream of
// a fact is deterministic.
package llm

import (
	"context"

	"github.com/pvasilyev/factfuse/internal/model"
)

// Provider defines the interface for completion backends.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Complete runs one prompt to completion.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is the input for one completion call.
type CompletionRequest struct {
	// System sets the system prompt.
	System string

	// Prompt is the user content.
	Prompt string

	// Model overrides the configured model for this call.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int
}

// CompletionResponse is the provider's output.
type CompletionResponse struct {
	// Text is the raw completion text.
	Text string

	// Model is the model that generated the response.
	Model string

	// TokensUsed tracks token consumption.
	TokensUsed int
}

// Config holds provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "".
	Provider string

	// Model name (provider-specific).
	Model string

	// APIKey for OpenAI/Anthropic.
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama).
	BaseURL string

	// Timeout for API requests, in seconds.
	Timeout int

	// MaxTokens for response generation.
	MaxTokens int
}

// DefaultConfig returns sensible defaults; the provider stays disabled until
// a name is configured.
func DefaultConfig() Config {
	return Config{
		Timeout:   60,
		MaxTokens: 4096,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config.
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:  mc.Provider,
		Model:     mc.Model,
		APIKey:    mc.APIKey,
		BaseURL:   mc.BaseURL,
		Timeout:   mc.Timeout,
		MaxTokens: mc.MaxTokens,
	}
}
