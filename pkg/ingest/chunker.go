package ingest

import (
	"courserag/internal/models"
)

type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) Chunker {
	if size <= 0 {
		size = 800
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 8
	}
	return Chunker{size: size, overlap: overlap}
}

// Split cuts text into chunks of at most size characters. Each chunk after
// the first starts exactly overlap characters before the previous chunk's
// end, so concatenating chunks with the overlap stripped reconstructs the
// input. When a cut would land mid-word it backs up to the nearest space,
// never into the overlap region.
func (c Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= c.size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for {
		end := start + c.size
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			return chunks
		}

		cut := end
		if !isSpace(text[cut]) && !isSpace(text[cut-1]) {
			for i := cut - 1; i > start+c.overlap; i-- {
				if isSpace(text[i]) {
					cut = i + 1
					break
				}
			}
		}

		chunks = append(chunks, text[start:cut])
		start = cut - c.overlap
	}
}

// ChunkCourse flattens a parsed course into content chunks, indexed in
// lesson order.
func (c Chunker) ChunkCourse(course models.Course) []models.Chunk {
	var chunks []models.Chunk
	index := 0
	for _, lesson := range course.Lessons {
		for _, piece := range c.Split(lesson.Content) {
			chunks = append(chunks, models.Chunk{
				CourseTitle:  course.Title,
				LessonNumber: lesson.Number,
				Index:        index,
				Content:      piece,
			})
			index++
		}
	}
	return chunks
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
