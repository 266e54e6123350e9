package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// EmbedderConfig selects the embedding backend.
type EmbedderConfig struct {
	Provider string
	Model    string
	BaseURL  string
}

// Embedder turns batches of text into vectors.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// NewEmbedder builds the embedding client for the configured provider. The
// langchaingo ollama and openai clients expose CreateEmbedding directly.
func NewEmbedder(config EmbedderConfig) (Embedder, error) {
	switch config.Provider {
	case "ollama", "":
		if config.Model == "" {
			config.Model = "nomic-embed-text"
		}
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434"
		}
		emb, err := ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama embedder: %w", err)
		}
		return emb, nil

	case "openai":
		if config.Model == "" {
			config.Model = "text-embedding-3-small"
		}
		opts := []openai.Option{openai.WithEmbeddingModel(config.Model)}
		if config.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(config.BaseURL))
		}
		emb, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai embedder: %w", err)
		}
		return emb, nil

	default:
		return nil, fmt.Errorf("unknown embedder provider %q (want ollama or openai)", config.Provider)
	}
}
