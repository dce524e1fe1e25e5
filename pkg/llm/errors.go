package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRateLimited reports provider throttling. Callers should back off
	// before retrying.
	ErrRateLimited = errors.New("rate limited by provider")

	// ErrContextTooLarge reports that the assembled prompt exceeds the
	// model's input window. Callers should shrink the context or truncate
	// the history and retry.
	ErrContextTooLarge = errors.New("prompt exceeds model context window")
)

// classify maps raw provider failures onto the recoverable error kinds the
// pipeline understands. Anything unrecognized stays a plain transient
// service error.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case strings.Contains(msg, "context_length_exceeded"),
		strings.Contains(msg, "maximum context length"):
		return fmt.Errorf("%w: %v", ErrContextTooLarge, err)
	}
	return err
}
