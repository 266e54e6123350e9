package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"courserag/internal/models"
)

// ErrMalformedDocument marks course documents missing one of the required
// header fields. Callers skip the file and move on.
var ErrMalformedDocument = errors.New("malformed course document")

var lessonMarker = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// Parse turns one raw course document into a Course. The expected layout is
// three header lines (Course Title, Course Link, Course Instructor), then
// lesson blocks opened by "Lesson <n>: <title>" with an optional
// "Lesson Link:" line before the body text.
func Parse(raw string) (models.Course, error) {
	lines := strings.Split(raw, "\n")

	var course models.Course
	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if lessonMarker.MatchString(line) {
			break
		}
		switch {
		case strings.HasPrefix(line, "Course Title:"):
			course.Title = strings.TrimSpace(strings.TrimPrefix(line, "Course Title:"))
		case strings.HasPrefix(line, "Course Link:"):
			course.Link = strings.TrimSpace(strings.TrimPrefix(line, "Course Link:"))
		case strings.HasPrefix(line, "Course Instructor:"):
			course.Instructor = strings.TrimSpace(strings.TrimPrefix(line, "Course Instructor:"))
		}
	}

	var missing []string
	if course.Title == "" {
		missing = append(missing, "Course Title")
	}
	if course.Link == "" {
		missing = append(missing, "Course Link")
	}
	if course.Instructor == "" {
		missing = append(missing, "Course Instructor")
	}
	if len(missing) > 0 {
		return models.Course{}, fmt.Errorf("%w: missing %s", ErrMalformedDocument, strings.Join(missing, ", "))
	}

	var current *models.Lesson
	var body []string
	seenBody := false

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(strings.Join(body, "\n"))
		course.Lessons = append(course.Lessons, *current)
		current, body, seenBody = nil, nil, false
	}

	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])

		if m := lessonMarker.FindStringSubmatch(trimmed); m != nil {
			flush()
			number, err := strconv.Atoi(m[1])
			if err != nil {
				return models.Course{}, fmt.Errorf("%w: bad lesson number %q", ErrMalformedDocument, m[1])
			}
			current = &models.Lesson{Number: number, Title: strings.TrimSpace(m[2])}
			continue
		}

		if current == nil {
			continue
		}

		// The lesson link line, when present, sits between the marker and
		// the body.
		if !seenBody && current.Link == "" && strings.HasPrefix(trimmed, "Lesson Link:") {
			current.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, "Lesson Link:"))
			continue
		}

		if trimmed != "" {
			seenBody = true
		}
		body = append(body, lines[i])
	}
	flush()

	return course, nil
}
