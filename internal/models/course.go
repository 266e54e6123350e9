package models

type Course struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []Lesson
}

type Lesson struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Link    string `json:"link,omitempty"`
	Content string `json:"-"`
}

// Chunk is the unit stored in the content collection. Chunks are raw
// substrings of a lesson's text; Index orders them within the course.
type Chunk struct {
	CourseTitle  string
	LessonNumber int
	Index        int
	Content      string
}

// SearchHit is one scored match from the content collection.
type SearchHit struct {
	CourseTitle  string
	LessonNumber int
	Content      string
	Distance     float64
}

// Source identifies course material consulted while answering a query.
type Source struct {
	Label string `json:"label"`
	URL   string `json:"url,omitempty"`
}
