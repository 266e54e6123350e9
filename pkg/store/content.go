package store

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"courserag/internal/models"
)

// Filter narrows a content search. An empty CourseTitle means no course
// filter; a nil LessonNumber means all lessons.
type Filter struct {
	CourseTitle  string
	LessonNumber *int
}

// UpsertContentChunks embeds and stores chunks in batches inside one
// transaction. Chunk ids derive from course title and index, so re-ingesting
// a course overwrites rows instead of duplicating them.
func (s *Store) UpsertContentChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return unavailable("begin upsert", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, course_title, lesson_number, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			lesson_number = EXCLUDED.lesson_number,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding`,
		s.config.ContentTable)

	for start := 0; start < len(chunks); start += s.config.BatchSize {
		end := start + s.config.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = sanitizeUTF8(chunk.Content)
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		embeddings, err := s.embedder.CreateEmbedding(ctx, texts)
		if err != nil {
			return unavailable("create chunk embeddings", err)
		}
		if len(embeddings) != len(batch) {
			return unavailable("create chunk embeddings",
				fmt.Errorf("got %d vectors for %d chunks", len(embeddings), len(batch)))
		}

		for i, chunk := range batch {
			title := sanitizeUTF8(chunk.CourseTitle)
			_, err := tx.Exec(ctx, stmt,
				fmt.Sprintf("%s_%d", title, chunk.Index),
				title,
				chunk.LessonNumber,
				chunk.Index,
				texts[i],
				pgvector.NewVector(embeddings[i]),
			)
			if err != nil {
				return unavailable("insert chunk", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return unavailable("commit upsert", err)
	}
	return nil
}

// SearchContent runs a similarity query over stored chunks. A title filter
// matches course_title exactly; resolving fuzzy names is SearchCatalog's
// job. No match within MaxDistance yields an empty slice, not an error.
func (s *Store) SearchContent(ctx context.Context, query string, filter Filter) ([]models.SearchHit, error) {
	vec, err := s.embedOne(ctx, query)
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf(`
		SELECT course_title, lesson_number, content, embedding <=> $1 AS distance
		FROM %s
		WHERE (embedding <=> $1) <= $2`, s.config.ContentTable)
	args := []any{vec, s.config.MaxDistance}

	if filter.CourseTitle != "" {
		args = append(args, filter.CourseTitle)
		stmt += fmt.Sprintf(" AND course_title = $%d", len(args))
	}
	if filter.LessonNumber != nil {
		args = append(args, *filter.LessonNumber)
		stmt += fmt.Sprintf(" AND lesson_number = $%d", len(args))
	}

	args = append(args, s.config.TopK)
	stmt += fmt.Sprintf(" ORDER BY embedding <=> $1 LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, unavailable("query content", err)
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		var hit models.SearchHit
		if err := rows.Scan(&hit.CourseTitle, &hit.LessonNumber, &hit.Content, &hit.Distance); err != nil {
			return nil, unavailable("scan content row", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("query content", err)
	}
	return hits, nil
}
