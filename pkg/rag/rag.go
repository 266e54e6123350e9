// Package rag composes ingestion, retrieval, sessions and generation into
// the course question-answering flow.
package rag

import (
	"context"
	"fmt"
	"log/slog"

	"courserag/internal/models"
	"courserag/pkg/ingest"
	"courserag/pkg/llm"
)

// queryPrompt frames the live question for the model. Prior conversation
// arrives separately, embedded in the system prompt.
const queryPrompt = "Answer this question about course materials: %s"

// Store is the slice of the vector store the orchestrator needs.
type Store interface {
	UpsertCatalogEntry(ctx context.Context, course models.Course) error
	UpsertContentChunks(ctx context.Context, chunks []models.Chunk) error
	ListCourseTitles(ctx context.Context) ([]string, error)
}

// Sessions tracks rolling conversation history per session id.
type Sessions interface {
	Create() string
	History(id string) string
	AddExchange(id, query, answer string)
	Clear(id string)
}

// Generator runs one tool-calling exchange with the model.
type Generator interface {
	Generate(ctx context.Context, query, history string, runner llm.ToolRunner) (llm.Result, error)
}

// System owns the full query and ingest flows.
type System struct {
	store     Store
	sessions  Sessions
	generator Generator
	runner    llm.ToolRunner
	loader    *ingest.Loader
	chunker   ingest.Chunker
	logger    *slog.Logger
}

func New(store Store, sessions Sessions, generator Generator, runner llm.ToolRunner, loader *ingest.Loader, chunker ingest.Chunker, logger *slog.Logger) *System {
	if logger == nil {
		logger = slog.Default()
	}
	return &System{
		store:     store,
		sessions:  sessions,
		generator: generator,
		runner:    runner,
		loader:    loader,
		chunker:   chunker,
		logger:    logger,
	}
}

// Query answers one user question. With a session id, prior exchanges are
// rendered into the prompt and the new exchange is recorded afterwards; a
// blank id runs stateless. Sources are whatever this query's tool calls
// consulted, empty when the model answered without searching, and never
// carried over from an earlier query.
func (s *System) Query(ctx context.Context, sessionID, text string) (string, []models.Source, error) {
	var history string
	if sessionID != "" {
		history = s.sessions.History(sessionID)
	}

	result, err := s.generator.Generate(ctx, fmt.Sprintf(queryPrompt, text), history, s.runner)
	if err != nil {
		return "", nil, err
	}

	if sessionID != "" {
		s.sessions.AddExchange(sessionID, text, result.Answer)
	}
	s.logger.Debug("query answered", "session", sessionID, "sources", len(result.Sources))
	return result.Answer, result.Sources, nil
}

// CreateSession opens a fresh session and returns its id.
func (s *System) CreateSession() string { return s.sessions.Create() }

// ClearSession drops a session's history.
func (s *System) ClearSession(id string) { s.sessions.Clear(id) }

// IngestResult summarizes one folder ingest.
type IngestResult struct {
	Courses int
	Chunks  int
	Skipped int
}

// IngestFolder loads every course document in dir and stores the new ones.
// Documents whose title already sits in the catalog are skipped, so
// re-running over the same folder changes nothing. progress, when non-nil,
// is called after each parsed course is handled.
func (s *System) IngestFolder(ctx context.Context, dir string, progress func(title string)) (IngestResult, error) {
	existing, err := s.store.ListCourseTitles(ctx)
	if err != nil {
		return IngestResult{}, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, title := range existing {
		seen[title] = struct{}{}
	}

	courses, err := s.loader.LoadDir(dir)
	if err != nil {
		return IngestResult{}, err
	}

	var result IngestResult
	for _, course := range courses {
		if _, ok := seen[course.Title]; ok {
			s.logger.Debug("course already ingested", "title", course.Title)
			result.Skipped++
			if progress != nil {
				progress(course.Title)
			}
			continue
		}

		chunks := s.chunker.ChunkCourse(course)
		if err := s.store.UpsertCatalogEntry(ctx, course); err != nil {
			return result, fmt.Errorf("storing %s: %w", course.Title, err)
		}
		if err := s.store.UpsertContentChunks(ctx, chunks); err != nil {
			return result, fmt.Errorf("storing %s chunks: %w", course.Title, err)
		}

		seen[course.Title] = struct{}{}
		result.Courses++
		result.Chunks += len(chunks)
		s.logger.Info("course ingested",
			"title", course.Title,
			"lessons", len(course.Lessons),
			"chunks", len(chunks))
		if progress != nil {
			progress(course.Title)
		}
	}
	return result, nil
}

// Analytics reports catalog-level stats for the courses endpoint.
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

func (s *System) Analytics(ctx context.Context) (Analytics, error) {
	titles, err := s.store.ListCourseTitles(ctx)
	if err != nil {
		return Analytics{}, err
	}
	return Analytics{TotalCourses: len(titles), CourseTitles: titles}, nil
}
