package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/time/rate"
)

// ErrUnavailable tags failures of the backing Postgres instance. Callers
// treat these as fatal for the current operation.
var ErrUnavailable = errors.New("vector store unavailable")

// ErrNotFound is returned when a course title has no catalog entry.
var ErrNotFound = errors.New("course not found")

// Embedder turns text into vectors. The langchaingo ollama and openai
// clients satisfy it directly.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

type Config struct {
	ConnString   string
	CatalogTable string
	ContentTable string
	VectorDim    int
	BatchSize    int
	TopK         int
	MaxDistance  float64
	EmbedRate    float64 // embedding batches per second during ingest
}

// Store persists courses across two collections: a catalog table holding one
// row per course (title-embedded, for fuzzy name resolution) and a content
// table holding embedded lesson chunks.
type Store struct {
	config   Config
	pool     *pgxpool.Pool
	embedder Embedder
	limiter  *rate.Limiter
	logger   *slog.Logger
}

func New(ctx context.Context, config Config, embedder Embedder, logger *slog.Logger) (*Store, error) {
	if config.CatalogTable == "" {
		config.CatalogTable = "course_catalog"
	}
	if config.ContentTable == "" {
		config.ContentTable = "course_content"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.TopK == 0 {
		config.TopK = 5
	}
	if config.MaxDistance == 0 {
		config.MaxDistance = 0.8
	}
	if config.EmbedRate == 0 {
		config.EmbedRate = 4
	}
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{
		config:   config,
		pool:     pool,
		embedder: embedder,
		limiter:  rate.NewLimiter(rate.Limit(config.EmbedRate), 1),
		logger:   logger,
	}

	if err := s.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	// Enable pgvector extension
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return unavailable("create vector extension", err)
	}

	catalogTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			title TEXT PRIMARY KEY,
			link TEXT,
			instructor TEXT,
			lessons JSONB,
			embedding vector(%d)
		)`, s.config.CatalogTable, s.config.VectorDim)
	if _, err := s.pool.Exec(ctx, catalogTable); err != nil {
		return unavailable("create catalog table", err)
	}

	contentTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			course_title TEXT NOT NULL,
			lesson_number INTEGER,
			chunk_index INTEGER,
			content TEXT,
			embedding vector(%d)
		)`, s.config.ContentTable, s.config.VectorDim)
	if _, err := s.pool.Exec(ctx, contentTable); err != nil {
		return unavailable("create content table", err)
	}

	// The catalog stays a handful of rows; only the content table earns a
	// vector index.
	embeddingIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		s.config.ContentTable, s.config.ContentTable)
	if _, err := s.pool.Exec(ctx, embeddingIndex); err != nil {
		return unavailable("create embedding index", err)
	}

	courseIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_course_idx
		ON %s (course_title, lesson_number)`,
		s.config.ContentTable, s.config.ContentTable)
	if _, err := s.pool.Exec(ctx, courseIndex); err != nil {
		return unavailable("create course index", err)
	}

	return nil
}

// Clear drops every stored course. Used by the rebuild path.
func (s *Store) Clear(ctx context.Context) error {
	stmt := fmt.Sprintf("TRUNCATE %s, %s", s.config.CatalogTable, s.config.ContentTable)
	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return unavailable("clear store", err)
	}
	return nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) embedOne(ctx context.Context, text string) (pgvector.Vector, error) {
	embeddings, err := s.embedder.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return pgvector.Vector{}, unavailable("create query embedding", err)
	}
	if len(embeddings) == 0 {
		return pgvector.Vector{}, unavailable("create query embedding", errors.New("embedder returned no vectors"))
	}
	return pgvector.NewVector(embeddings[0]), nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
