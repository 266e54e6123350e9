package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"courserag/internal/models"
	"courserag/pkg/store"
)

// SearchStore is the slice of the vector store the tools depend on.
type SearchStore interface {
	SearchCatalog(ctx context.Context, name string) (title string, ok bool, err error)
	SearchContent(ctx context.Context, query string, filter store.Filter) ([]models.SearchHit, error)
	LessonLink(ctx context.Context, title string, lesson int) (string, error)
	CourseOutline(ctx context.Context, title string) (models.Course, error)
}

// CourseSearchTool answers content questions: it resolves a fuzzy course
// name against the catalog, searches the content collection with the
// resolved filter, and formats the hits for the model.
type CourseSearchTool struct {
	store SearchStore
}

func NewCourseSearchTool(s SearchStore) *CourseSearchTool {
	return &CourseSearchTool{store: s}
}

func (t *CourseSearchTool) Name() string { return SearchCourseContent }

func (t *CourseSearchTool) Definition() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        SearchCourseContent,
			Description: "Search course materials with smart course name matching and optional lesson filtering",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "What to search for in the course content",
					},
					"course_name": map[string]any{
						"type":        "string",
						"description": "Course title (partial matches work, e.g. 'MCP', 'Intro')",
					},
					"lesson_number": map[string]any{
						"type":        "integer",
						"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

type searchArgs struct {
	Query        string `json:"query"`
	CourseName   string `json:"course_name"`
	LessonNumber *int   `json:"lesson_number"`
}

func (t *CourseSearchTool) Call(ctx context.Context, args json.RawMessage) (Result, error) {
	var params searchArgs
	if err := json.Unmarshal(args, &params); err != nil {
		return Result{}, fmt.Errorf("decoding %s arguments: %w", SearchCourseContent, err)
	}
	if params.Query == "" {
		return Result{}, fmt.Errorf("%s requires a query", SearchCourseContent)
	}

	filter := store.Filter{LessonNumber: params.LessonNumber}
	if params.CourseName != "" {
		title, ok, err := t.store.SearchCatalog(ctx, params.CourseName)
		if err != nil {
			return Result{}, err
		}
		// An unresolvable name degrades to an unfiltered search rather than
		// failing the call.
		if ok {
			filter.CourseTitle = title
		}
	}

	hits, err := t.store.SearchContent(ctx, params.Query, filter)
	if err != nil {
		return Result{}, err
	}
	if len(hits) == 0 {
		return Result{Output: noContentMessage(params.CourseName, params.LessonNumber)}, nil
	}

	blocks := make([]string, 0, len(hits))
	sources := make([]models.Source, 0, len(hits))
	for _, hit := range hits {
		blocks = append(blocks, fmt.Sprintf("[%s - Lesson %d]\n%s", hit.CourseTitle, hit.LessonNumber, hit.Content))

		link, err := t.store.LessonLink(ctx, hit.CourseTitle, hit.LessonNumber)
		if err != nil {
			return Result{}, err
		}
		sources = append(sources, models.Source{
			Label: fmt.Sprintf("%s - Lesson %d", hit.CourseTitle, hit.LessonNumber),
			URL:   link,
		})
	}

	return Result{Output: strings.Join(blocks, "\n\n"), Sources: sources}, nil
}

func noContentMessage(courseName string, lesson *int) string {
	msg := "No relevant content found"
	if courseName != "" {
		msg += fmt.Sprintf(" in course '%s'", courseName)
	}
	if lesson != nil {
		msg += fmt.Sprintf(" in lesson %d", *lesson)
	}
	return msg + "."
}
