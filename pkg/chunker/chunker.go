package chunker

import (
	"fmt"

	"github.com/onepointconsulting/murli-chat/internal/models"
)

type ChunkerConfig struct {
	MaxLength int
	Overlap   int
}

// Chunker splits documents into fixed-stride, overlapping segments.
// Segment i+1 begins MaxLength-Overlap runes after segment i begins, so
// consecutive segments share exactly Overlap runes and the whole document
// is covered with no gaps.
type Chunker struct {
	config ChunkerConfig
}

func NewWithConfig(config ChunkerConfig) (*Chunker, error) {
	if config.MaxLength == 0 {
		config.MaxLength = 4000
	}
	if config.MaxLength < 0 {
		return nil, fmt.Errorf("max length must be positive, got %d", config.MaxLength)
	}
	if config.Overlap < 0 {
		return nil, fmt.Errorf("overlap cannot be negative, got %d", config.Overlap)
	}
	if config.Overlap >= config.MaxLength {
		return nil, fmt.Errorf("overlap (%d) must be less than max length (%d)", config.Overlap, config.MaxLength)
	}

	return &Chunker{config: config}, nil
}

// Split is a pure transformation; calling it again restarts the sequence.
func (c *Chunker) Split(doc models.Document) []models.Segment {
	runes := []rune(doc.Content)
	if len(runes) == 0 {
		return nil
	}

	stride := c.config.MaxLength - c.config.Overlap

	var segments []models.Segment
	for start := 0; start < len(runes); start += stride {
		end := start + c.config.MaxLength
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, models.Segment{
			Source: doc.Source,
			Index:  len(segments),
			Text:   string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}

	return segments
}

// Stride returns the rune distance between the starts of consecutive
// segments.
func (c *Chunker) Stride() int {
	return c.config.MaxLength - c.config.Overlap
}
