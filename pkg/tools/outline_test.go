package tools_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courserag/internal/models"
	"courserag/pkg/store"
	"courserag/pkg/tools"
)

func callOutline(t *testing.T, s *fakeStore, args string) (tools.Result, error) {
	t.Helper()
	return tools.NewCourseOutlineTool(s).Call(context.Background(), json.RawMessage(args))
}

func TestCourseOutline_ListsLessonsInOrder(t *testing.T) {
	s := &fakeStore{
		resolveTitle: "Python Basics",
		resolveOK:    true,
		outline: models.Course{
			Title:      "Python Basics",
			Link:       "http://example.com/python",
			Instructor: "Ada",
			Lessons: []models.Lesson{
				{Number: 1, Title: "Introduction"},
				{Number: 2, Title: "Control Flow"},
				{Number: 3, Title: "Functions"},
			},
		},
	}

	result, err := callOutline(t, s, `{"course_name": "python"}`)
	require.NoError(t, err)

	assert.Equal(t, "python", s.resolvedName)
	assert.Contains(t, result.Output, "Course: Python Basics")
	assert.Contains(t, result.Output, "Course Link: http://example.com/python")
	assert.Contains(t, result.Output, "Instructor: Ada")
	assert.Contains(t, result.Output, "Lessons (3):")
	assert.Contains(t, result.Output, "1. Introduction")
	assert.Contains(t, result.Output, "2. Control Flow")
	assert.Contains(t, result.Output, "3. Functions")

	require.Len(t, result.Sources, 1)
	assert.Equal(t, "Python Basics", result.Sources[0].Label)
	assert.Equal(t, "http://example.com/python", result.Sources[0].URL)
}

func TestCourseOutline_UnknownCourse(t *testing.T) {
	s := &fakeStore{resolveOK: false}

	result, err := callOutline(t, s, `{"course_name": "no such course"}`)
	require.NoError(t, err)

	assert.Equal(t, "No course found matching 'no such course'.", result.Output)
	assert.Empty(t, result.Sources)
}

func TestCourseOutline_StoreErrorPropagates(t *testing.T) {
	s := &fakeStore{resolveErr: store.ErrUnavailable}

	_, err := callOutline(t, s, `{"course_name": "python"}`)
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestCourseOutline_BadArguments(t *testing.T) {
	s := &fakeStore{}

	_, err := callOutline(t, s, `not json`)
	assert.Error(t, err)

	_, err = callOutline(t, s, `{}`)
	assert.ErrorContains(t, err, "requires a course_name")
}

func TestRegistry_DispatchesByName(t *testing.T) {
	s := &fakeStore{
		hits: []models.SearchHit{
			{CourseTitle: "Python Basics", LessonNumber: 1, Content: "intro"},
		},
		resolveTitle: "Python Basics",
		resolveOK:    true,
		outline:      models.Course{Title: "Python Basics"},
	}
	registry := tools.NewRegistry(tools.NewCourseSearchTool(s), tools.NewCourseOutlineTool(s))

	result, err := registry.Call(context.Background(), tools.SearchCourseContent, json.RawMessage(`{"query": "intro"}`))
	require.NoError(t, err)
	assert.Contains(t, result.Output, "intro")

	result, err = registry.Call(context.Background(), tools.GetCourseOutline, json.RawMessage(`{"course_name": "python"}`))
	require.NoError(t, err)
	assert.Contains(t, result.Output, "Course: Python Basics")
}

func TestRegistry_UnknownToolRejected(t *testing.T) {
	registry := tools.NewRegistry(tools.NewCourseSearchTool(&fakeStore{}))

	_, err := registry.Call(context.Background(), "read_email", nil)
	assert.ErrorIs(t, err, tools.ErrUnknownTool)
	assert.ErrorContains(t, err, "read_email")
}

func TestRegistry_DefinitionsKeepRegistrationOrder(t *testing.T) {
	registry := tools.NewRegistry(
		tools.NewCourseSearchTool(&fakeStore{}),
		tools.NewCourseOutlineTool(&fakeStore{}),
	)

	defs := registry.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, tools.SearchCourseContent, defs[0].Function.Name)
	assert.Equal(t, tools.GetCourseOutline, defs[1].Function.Name)
}
