package history

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store keeps a plain-text transcript of asked questions, one per line, so
// front-ends can offer previously asked questions again.
type Store struct {
	path string
}

func NewStore(location string) (*Store, error) {
	if location == "" {
		location = "."
	}
	if err := os.MkdirAll(location, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	return &Store{path: filepath.Join(location, "chat_history.txt")}, nil
}

// Append records a question. Blank questions are ignored.
func (s *Store) Append(question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening history file: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, question); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return nil
}

// Questions returns past questions, deduplicated, oldest first. A missing
// history file simply means no questions yet.
func (s *Store) Questions() ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening history file: %w", err)
	}
	defer f.Close()

	var questions []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		questions = append(questions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return questions, nil
}

// Path returns the transcript file path.
func (s *Store) Path() string {
	return s.path
}
