package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var llmProviders = map[string]bool{
	"anthropic": true,
	"openai":    true,
	"ollama":    true,
}

var embedderProviders = map[string]bool{
	"ollama": true,
	"openai": true,
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	if !llmProviders[c.LLM.Provider] {
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unknown provider %q (want anthropic, openai or ollama)", c.LLM.Provider),
		})
	}

	if c.LLM.Provider == "ollama" && c.LLM.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "base_url is required for the ollama provider",
		})
	}

	if c.LLM.BaseURL != "" {
		if _, err := url.Parse(c.LLM.BaseURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "invalid base URL",
			})
		}
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 8192 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 8192",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	// Validate Embedder config
	if !embedderProviders[c.Embedder.Provider] {
		errors = append(errors, ValidationError{
			Field:   "embedder.provider",
			Message: fmt.Sprintf("unknown provider %q (want ollama or openai)", c.Embedder.Provider),
		})
	}

	if c.Embedder.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "embedder.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate Database config
	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.Database.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.batch_size",
			Message: "batch_size must be positive",
		})
	}

	if c.Database.CatalogTable == "" || c.Database.ContentTable == "" {
		errors = append(errors, ValidationError{
			Field:   "database.tables",
			Message: "catalog_table and content_table are required",
		})
	}

	// Validate Ingest config
	if c.Ingest.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "ingest.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "ingest.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	// Validate Search config
	if c.Search.TopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "search.top_k",
			Message: "top_k must be positive",
		})
	}

	if c.Search.MaxDistance <= 0 {
		errors = append(errors, ValidationError{
			Field:   "search.max_distance",
			Message: "max_distance must be positive",
		})
	}

	// Validate Session config
	if c.Session.MaxHistory < 0 {
		errors = append(errors, ValidationError{
			Field:   "session.max_history",
			Message: "max_history must be non-negative",
		})
	}

	// Validate Server config
	if c.Server.Addr == "" {
		errors = append(errors, ValidationError{
			Field:   "server.addr",
			Message: "addr is required",
		})
	}

	return errors
}
