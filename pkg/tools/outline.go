package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"courserag/internal/models"
)

// CourseOutlineTool answers structure questions: which lessons a course has,
// in what order, and where the course lives.
type CourseOutlineTool struct {
	store SearchStore
}

func NewCourseOutlineTool(s SearchStore) *CourseOutlineTool {
	return &CourseOutlineTool{store: s}
}

func (t *CourseOutlineTool) Name() string { return GetCourseOutline }

func (t *CourseOutlineTool) Definition() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        GetCourseOutline,
			Description: "Get a course's title, link and complete numbered lesson list",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"course_name": map[string]any{
						"type":        "string",
						"description": "Course title (partial matches work)",
					},
				},
				"required": []string{"course_name"},
			},
		},
	}
}

type outlineArgs struct {
	CourseName string `json:"course_name"`
}

func (t *CourseOutlineTool) Call(ctx context.Context, args json.RawMessage) (Result, error) {
	var params outlineArgs
	if err := json.Unmarshal(args, &params); err != nil {
		return Result{}, fmt.Errorf("decoding %s arguments: %w", GetCourseOutline, err)
	}
	if params.CourseName == "" {
		return Result{}, fmt.Errorf("%s requires a course_name", GetCourseOutline)
	}

	title, ok, err := t.store.SearchCatalog(ctx, params.CourseName)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{Output: fmt.Sprintf("No course found matching '%s'.", params.CourseName)}, nil
	}

	course, err := t.store.CourseOutline(ctx, title)
	if err != nil {
		return Result{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", course.Title)
	if course.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", course.Link)
	}
	if course.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", course.Instructor)
	}
	fmt.Fprintf(&b, "Lessons (%d):", len(course.Lessons))
	for _, lesson := range course.Lessons {
		fmt.Fprintf(&b, "\n%d. %s", lesson.Number, lesson.Title)
	}

	return Result{
		Output:  b.String(),
		Sources: []models.Source{{Label: course.Title, URL: course.Link}},
	}, nil
}
