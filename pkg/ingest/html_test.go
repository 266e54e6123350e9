package ingest_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courserag/pkg/ingest"
)

func TestExtractHTMLText_PreBlock(t *testing.T) {
	html := `<html><body><main><pre>Course Title: T
Course Link: http://t
Course Instructor: I

Lesson 0: Start
body line</pre></main></body></html>`

	text, err := ingest.ExtractHTMLText(strings.NewReader(html))
	require.NoError(t, err)

	course, err := ingest.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "T", course.Title)
	require.Len(t, course.Lessons, 1)
	assert.Equal(t, "body line", course.Lessons[0].Content)
}

func TestExtractHTMLText_ParagraphPerLine(t *testing.T) {
	html := `<html><body>
<nav>menu noise</nav>
<div id="content">
<p>Course Title: T</p>
<p>Course Link: http://t</p>
<p>Course Instructor: I</p>
<p>Lesson 0: Start</p>
<p>first body line</p>
</div>
</body></html>`

	text, err := ingest.ExtractHTMLText(strings.NewReader(html))
	require.NoError(t, err)
	assert.NotContains(t, text, "menu noise")

	course, err := ingest.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "T", course.Title)
	require.Len(t, course.Lessons, 1)
	assert.Contains(t, course.Lessons[0].Content, "first body line")
}

func TestExtractHTMLText_PlainBodyFallback(t *testing.T) {
	html := "<html><body>Course Title: T\nCourse Link: http://t\nCourse Instructor: I\n</body></html>"

	text, err := ingest.ExtractHTMLText(strings.NewReader(html))
	require.NoError(t, err)

	course, err := ingest.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "I", course.Instructor)
}
