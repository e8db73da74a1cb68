package llm

import (
	"context"
	"errors"

	"github.com/pkoval/attestor/internal/model"
)

// ErrEmbeddingsUnsupported is returned by providers without an
// embeddings endpoint. Callers degrade to an unavailable retrieval
// subsystem rather than failing the pipeline.
var ErrEmbeddingsUnsupported = errors.New("llm: provider does not support embeddings")

// Provider defines the interface for text-generation collaborators
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete runs one completion call (triage, deep analysis, or
	// recommendation elaboration)
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Embed returns the embedding vector for a text, used by the
	// cross-submission retrieval client
	Embed(ctx context.Context, text string) ([]float32, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for one completion call
type CompletionRequest struct {
	// System sets the assistant role for the call
	System string

	// Prompt is the user-turn content
	Prompt string

	// Model overrides the configured model (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature; triage and deep analysis run cold for stable output
	Temperature float32
}

// CompletionResponse contains the raw model output
type CompletionResponse struct {
	// Text is the completion content, trimmed
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama)
	BaseURL string

	// Timeout for API requests, seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 1200,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
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
