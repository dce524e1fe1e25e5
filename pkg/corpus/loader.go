package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/onepointconsulting/murli-chat/internal/models"
)

var newlineRuns = regexp.MustCompile(`\n+`)

// Loader reads a directory of plain-text Murli files. Each *.txt file
// becomes one immutable Document.
type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load enumerates the corpus directory in name order. Files that cannot be
// read are skipped and counted; an unreadable directory is an error. An
// empty directory yields zero documents, which is not an error here.
func (l *Loader) Load() ([]models.Document, int, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read corpus directory %s: %w", l.dir, err)
	}

	var docs []models.Document
	failed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			failed++
			continue
		}
		docs = append(docs, models.Document{
			Source:  path,
			Content: cleanContent(string(data)),
		})
	}

	return docs, failed, nil
}

// cleanContent collapses runs of newlines so blank lines between paragraphs
// do not end up as near-empty segments.
func cleanContent(content string) string {
	return newlineRuns.ReplaceAllString(content, "\n")
}
