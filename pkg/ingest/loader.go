package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"courserag/internal/models"
)

// Loader reads course documents from disk. Plain-text files are parsed
// directly; HTML exports are stripped to text first.
type Loader struct {
	logger *slog.Logger

	// OnFile, when set, is called once per document before it is parsed.
	OnFile func(name string)
}

func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadDir parses every course document in dir. Files that fail to parse are
// logged and skipped; they never abort the batch.
func (l *Loader) LoadDir(dir string) ([]models.Course, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading docs dir: %w", err)
	}

	var courses []models.Course
	for _, entry := range entries {
		if entry.IsDir() || !supportedFile(entry.Name()) {
			continue
		}
		if l.OnFile != nil {
			l.OnFile(entry.Name())
		}

		course, err := l.LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			l.logger.Warn("skipping course document", "file", entry.Name(), "error", err)
			continue
		}
		courses = append(courses, course)
	}
	return courses, nil
}

// LoadFile parses a single course document.
func (l *Loader) LoadFile(path string) (models.Course, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return models.Course{}, fmt.Errorf("reading %s: %w", path, err)
		}
		return Parse(string(data))

	case ".html", ".htm":
		f, err := os.Open(path)
		if err != nil {
			return models.Course{}, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()

		text, err := ExtractHTMLText(f)
		if err != nil {
			return models.Course{}, fmt.Errorf("extracting text from %s: %w", path, err)
		}
		return Parse(text)

	default:
		return models.Course{}, fmt.Errorf("unsupported file type: %s", path)
	}
}

// CountDocuments reports how many loadable documents dir holds, so callers
// can size progress reporting before a LoadDir pass.
func CountDocuments(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, entry := range entries {
		if !entry.IsDir() && supportedFile(entry.Name()) {
			n++
		}
	}
	return n
}

func supportedFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".html", ".htm":
		return true
	}
	return false
}
