package tools_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courserag/internal/models"
	"courserag/pkg/store"
	"courserag/pkg/tools"
)

type fakeStore struct {
	resolveTitle string
	resolveOK    bool
	resolveErr   error
	resolvedName string

	hits      []models.SearchHit
	searchErr error

	searches   int
	lastQuery  string
	lastFilter store.Filter

	links map[string]string

	outline    models.Course
	outlineErr error
}

func (f *fakeStore) SearchCatalog(_ context.Context, name string) (string, bool, error) {
	f.resolvedName = name
	return f.resolveTitle, f.resolveOK, f.resolveErr
}

func (f *fakeStore) SearchContent(_ context.Context, query string, filter store.Filter) ([]models.SearchHit, error) {
	f.searches++
	f.lastQuery = query
	f.lastFilter = filter
	return f.hits, f.searchErr
}

func (f *fakeStore) LessonLink(_ context.Context, title string, lesson int) (string, error) {
	return f.links[fmt.Sprintf("%s/%d", title, lesson)], nil
}

func (f *fakeStore) CourseOutline(_ context.Context, title string) (models.Course, error) {
	return f.outline, f.outlineErr
}

func callSearch(t *testing.T, s *fakeStore, args string) (tools.Result, error) {
	t.Helper()
	return tools.NewCourseSearchTool(s).Call(context.Background(), json.RawMessage(args))
}

func TestCourseSearch_FormatsResults(t *testing.T) {
	s := &fakeStore{
		hits: []models.SearchHit{
			{CourseTitle: "Python Basics", LessonNumber: 1, Content: "Content about Python"},
			{CourseTitle: "Python Basics", LessonNumber: 2, Content: "More Python content"},
		},
		links: map[string]string{
			"Python Basics/1": "http://example.com/lesson1",
			"Python Basics/2": "http://example.com/lesson2",
		},
	}

	result, err := callSearch(t, s, `{"query": "Python"}`)
	require.NoError(t, err)

	assert.Contains(t, result.Output, "[Python Basics - Lesson 1]")
	assert.Contains(t, result.Output, "Content about Python")
	assert.Contains(t, result.Output, "[Python Basics - Lesson 2]")
	assert.Contains(t, result.Output, "More Python content")

	require.Len(t, result.Sources, 2)
	assert.Equal(t, "Python Basics - Lesson 1", result.Sources[0].Label)
	assert.Equal(t, "http://example.com/lesson1", result.Sources[0].URL)
	assert.Equal(t, "Python Basics - Lesson 2", result.Sources[1].Label)
}

func TestCourseSearch_ResolvesCourseName(t *testing.T) {
	s := &fakeStore{
		resolveTitle: "Python Basics",
		resolveOK:    true,
		hits: []models.SearchHit{
			{CourseTitle: "Python Basics", LessonNumber: 2, Content: "loops"},
		},
	}

	_, err := callSearch(t, s, `{"query": "loops", "course_name": "python", "lesson_number": 2}`)
	require.NoError(t, err)

	assert.Equal(t, "python", s.resolvedName)
	assert.Equal(t, "loops", s.lastQuery)
	assert.Equal(t, "Python Basics", s.lastFilter.CourseTitle)
	require.NotNil(t, s.lastFilter.LessonNumber)
	assert.Equal(t, 2, *s.lastFilter.LessonNumber)
}

func TestCourseSearch_SoftMissSearchesUnfiltered(t *testing.T) {
	s := &fakeStore{
		resolveOK: false,
		hits: []models.SearchHit{
			{CourseTitle: "Some Course", LessonNumber: 1, Content: "still searched"},
		},
	}

	result, err := callSearch(t, s, `{"query": "x", "course_name": "no such course"}`)
	require.NoError(t, err)

	assert.Equal(t, 1, s.searches)
	assert.Empty(t, s.lastFilter.CourseTitle)
	assert.Contains(t, result.Output, "still searched")
}

func TestCourseSearch_NoLessonNumberMeansNoLessonFilter(t *testing.T) {
	s := &fakeStore{resolveTitle: "Python Basics", resolveOK: true}

	_, err := callSearch(t, s, `{"query": "x", "course_name": "python"}`)
	require.NoError(t, err)
	assert.Nil(t, s.lastFilter.LessonNumber)
}

func TestCourseSearch_EmptyResults(t *testing.T) {
	s := &fakeStore{resolveOK: false}

	result, err := callSearch(t, s, `{"query": "x", "course_name": "Python Basics", "lesson_number": 2}`)
	require.NoError(t, err)

	assert.Equal(t, "No relevant content found in course 'Python Basics' in lesson 2.", result.Output)
	assert.Empty(t, result.Sources)
}

func TestCourseSearch_StoreErrorPropagates(t *testing.T) {
	s := &fakeStore{searchErr: fmt.Errorf("query content: %w", store.ErrUnavailable)}

	_, err := callSearch(t, s, `{"query": "x"}`)
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestCourseSearch_BadArguments(t *testing.T) {
	s := &fakeStore{}

	_, err := callSearch(t, s, `not json`)
	assert.Error(t, err)

	_, err = callSearch(t, s, `{"course_name": "no query"}`)
	assert.ErrorContains(t, err, "requires a query")

	assert.Zero(t, s.searches)
}
