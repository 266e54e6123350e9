package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		Provider    string  `yaml:"provider"`
		Model       string  `yaml:"model"`
		BaseURL     string  `yaml:"base_url"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"llm"`

	Embedder struct {
		Provider  string  `yaml:"provider"`
		Model     string  `yaml:"model"`
		BaseURL   string  `yaml:"base_url"`
		RateLimit float64 `yaml:"rate_limit"`
	} `yaml:"embedder"`

	Database struct {
		URL          string `yaml:"url"`
		CatalogTable string `yaml:"catalog_table"`
		ContentTable string `yaml:"content_table"`
		VectorDim    int    `yaml:"vector_dim"`
		BatchSize    int    `yaml:"batch_size"`
	} `yaml:"database"`

	Ingest struct {
		DocsDir      string `yaml:"docs_dir"`
		ChunkSize    int    `yaml:"chunk_size"`
		ChunkOverlap int    `yaml:"chunk_overlap"`
	} `yaml:"ingest"`

	Search struct {
		TopK        int     `yaml:"top_k"`
		MaxDistance float64 `yaml:"max_distance"`
	} `yaml:"search"`

	Session struct {
		MaxHistory int `yaml:"max_history"`
	} `yaml:"session"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/courserag/config.yaml"),
			"/etc/courserag/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = "anthropic"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = defaultModel(config.LLM.Provider)
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 800
	}
	// Temperature deliberately defaults to 0: answers should be grounded in
	// retrieved course content, not sampled variety.
	if config.LLM.Provider == "ollama" && config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}

	if config.Embedder.Provider == "" {
		config.Embedder.Provider = "ollama"
	}
	if config.Embedder.Model == "" {
		config.Embedder.Model = defaultEmbedModel(config.Embedder.Provider)
	}
	if config.Embedder.Provider == "ollama" && config.Embedder.BaseURL == "" {
		config.Embedder.BaseURL = "http://localhost:11434"
	}
	if config.Embedder.RateLimit == 0 {
		config.Embedder.RateLimit = 4.0
	}

	if config.Database.CatalogTable == "" {
		config.Database.CatalogTable = "course_catalog"
	}
	if config.Database.ContentTable == "" {
		config.Database.ContentTable = "course_content"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}

	if config.Ingest.DocsDir == "" {
		config.Ingest.DocsDir = "./docs"
	}
	if config.Ingest.ChunkSize == 0 {
		config.Ingest.ChunkSize = 800
	}
	if config.Ingest.ChunkOverlap == 0 {
		config.Ingest.ChunkOverlap = 100
	}

	if config.Search.TopK == 0 {
		config.Search.TopK = 5
	}
	if config.Search.MaxDistance == 0 {
		config.Search.MaxDistance = 0.8
	}

	if config.Session.MaxHistory == 0 {
		config.Session.MaxHistory = 2
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8000"
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "ollama":
		return "mistral"
	default:
		return "claude-3-5-sonnet-20241022"
	}
}

func defaultEmbedModel(provider string) string {
	if provider == "openai" {
		return "text-embedding-3-small"
	}
	return "nomic-embed-text"
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.Embedder.BaseURL = baseURL
		if config.LLM.Provider == "ollama" {
			config.LLM.BaseURL = baseURL
		}
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
}
