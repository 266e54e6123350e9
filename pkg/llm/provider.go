package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Config selects and tunes the chat model behind the generator.
type Config struct {
	Provider    string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

// NewModel builds a langchaingo chat client for the configured provider.
// API keys ride on the environment (ANTHROPIC_API_KEY, OPENAI_API_KEY), as
// the underlying clients expect.
func NewModel(config Config) (llms.Model, error) {
	switch config.Provider {
	case "anthropic", "":
		opts := []anthropic.Option{anthropic.WithModel(config.Model)}
		if config.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(config.BaseURL))
		}
		model, err := anthropic.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize anthropic client: %w", err)
		}
		return model, nil

	case "openai":
		opts := []openai.Option{openai.WithModel(config.Model)}
		if config.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(config.BaseURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai client: %w", err)
		}
		return model, nil

	case "ollama":
		baseURL := config.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		model, err := ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(baseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama client: %w", err)
		}
		return model, nil

	default:
		return nil, fmt.Errorf("unknown llm provider %q (want anthropic, openai or ollama)", config.Provider)
	}
}
