package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"courserag/internal/models"
)

// UpsertCatalogEntry writes one catalog row for the course, embedding its
// title for fuzzy name resolution. Re-ingesting a title overwrites the row.
func (s *Store) UpsertCatalogEntry(ctx context.Context, course models.Course) error {
	lessons, err := json.Marshal(course.Lessons)
	if err != nil {
		return fmt.Errorf("encoding lessons: %w", err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	vec, err := s.embedOne(ctx, sanitizeUTF8(course.Title))
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (title, link, instructor, lessons, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (title) DO UPDATE SET
			link = EXCLUDED.link,
			instructor = EXCLUDED.instructor,
			lessons = EXCLUDED.lessons,
			embedding = EXCLUDED.embedding`,
		s.config.CatalogTable)

	_, err = s.pool.Exec(ctx, stmt,
		sanitizeUTF8(course.Title),
		course.Link,
		sanitizeUTF8(course.Instructor),
		lessons,
		vec,
	)
	if err != nil {
		return unavailable("insert catalog entry", err)
	}
	return nil
}

// SearchCatalog resolves a fuzzy course name to the exact stored title. A
// miss (no entry within MaxDistance) reports ok=false, not an error.
func (s *Store) SearchCatalog(ctx context.Context, name string) (title string, ok bool, err error) {
	vec, err := s.embedOne(ctx, name)
	if err != nil {
		return "", false, err
	}

	stmt := fmt.Sprintf(`
		SELECT title, embedding <=> $1 AS distance
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT 1`, s.config.CatalogTable)

	var distance float64
	if err := s.pool.QueryRow(ctx, stmt, vec).Scan(&title, &distance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, unavailable("query catalog", err)
	}
	if distance > s.config.MaxDistance {
		s.logger.Debug("catalog miss", "name", name, "nearest", title, "distance", distance)
		return "", false, nil
	}
	return title, true, nil
}

// CourseOutline returns the catalog entry for an exact title, lessons
// included (without their content, which only lives in the content table).
func (s *Store) CourseOutline(ctx context.Context, title string) (models.Course, error) {
	stmt := fmt.Sprintf(
		"SELECT title, link, instructor, lessons FROM %s WHERE title = $1",
		s.config.CatalogTable)

	var course models.Course
	var lessons []byte
	if err := s.pool.QueryRow(ctx, stmt, title).Scan(&course.Title, &course.Link, &course.Instructor, &lessons); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Course{}, fmt.Errorf("%w: %s", ErrNotFound, title)
		}
		return models.Course{}, unavailable("query outline", err)
	}
	if len(lessons) > 0 {
		if err := json.Unmarshal(lessons, &course.Lessons); err != nil {
			return models.Course{}, fmt.Errorf("decoding lessons for %s: %w", title, err)
		}
	}
	return course, nil
}

// LessonLink returns the stored link for one lesson of a course, or "" when
// the course or lesson has none.
func (s *Store) LessonLink(ctx context.Context, title string, lesson int) (string, error) {
	course, err := s.CourseOutline(ctx, title)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	for _, l := range course.Lessons {
		if l.Number == lesson {
			return l.Link, nil
		}
	}
	return "", nil
}

func (s *Store) ListCourseTitles(ctx context.Context) ([]string, error) {
	stmt := fmt.Sprintf("SELECT title FROM %s ORDER BY title", s.config.CatalogTable)
	rows, err := s.pool.Query(ctx, stmt)
	if err != nil {
		return nil, unavailable("list courses", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, unavailable("scan course title", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list courses", err)
	}
	return titles, nil
}

func (s *Store) CountCourses(ctx context.Context) (int, error) {
	var n int
	stmt := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.config.CatalogTable)
	if err := s.pool.QueryRow(ctx, stmt).Scan(&n); err != nil {
		return 0, unavailable("count courses", err)
	}
	return n, nil
}

// DeleteCourse removes a course from both collections.
func (s *Store) DeleteCourse(ctx context.Context, title string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return unavailable("begin delete", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE course_title = $1", s.config.ContentTable), title); err != nil {
		return unavailable("delete content", err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE title = $1", s.config.CatalogTable), title); err != nil {
		return unavailable("delete catalog entry", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return unavailable("commit delete", err)
	}
	return nil
}
