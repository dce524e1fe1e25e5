package chunker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onepointconsulting/murli-chat/internal/models"
	"github.com/onepointconsulting/murli-chat/pkg/chunker"
)

func TestNewWithConfig_RejectsBadOverlap(t *testing.T) {
	_, err := chunker.NewWithConfig(chunker.ChunkerConfig{MaxLength: 20, Overlap: 20})
	assert.Error(t, err)

	_, err = chunker.NewWithConfig(chunker.ChunkerConfig{MaxLength: 20, Overlap: 25})
	assert.Error(t, err)

	_, err = chunker.NewWithConfig(chunker.ChunkerConfig{MaxLength: 20, Overlap: -1})
	assert.Error(t, err)

	_, err = chunker.NewWithConfig(chunker.ChunkerConfig{MaxLength: -5})
	assert.Error(t, err)
}

func TestSplit_SegmentPlacement(t *testing.T) {
	c, err := chunker.NewWithConfig(chunker.ChunkerConfig{MaxLength: 20, Overlap: 5})
	require.NoError(t, err)

	doc := models.Document{
		Source:  "murli_en_2002-11-23.txt",
		Content: strings.Repeat("abcde", 12), // 60 runes
	}
	segments := c.Split(doc)
	require.NotEmpty(t, segments)

	runes := []rune(doc.Content)
	stride := c.Stride()
	for i, seg := range segments {
		assert.Equal(t, i, seg.Index)
		assert.Equal(t, doc.Source, seg.Source)
		assert.LessOrEqual(t, len([]rune(seg.Text)), 20)

		start := i * stride
		end := start + 20
		if end > len(runes) {
			end = len(runes)
		}
		assert.Equal(t, string(runes[start:end]), seg.Text)
	}
}

func TestSplit_ReconstructsDocument(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		maxLength int
		overlap   int
	}{
		{"even split", strings.Repeat("x", 100), 20, 5},
		{"short tail", "The knowledge of the soul and the Supreme Soul.", 10, 3},
		{"no overlap", strings.Repeat("om shanti ", 33), 16, 0},
		{"single segment", "short", 100, 10},
		{"unicode", strings.Repeat("ओम् शान्ति। ", 25), 21, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := chunker.NewWithConfig(chunker.ChunkerConfig{
				MaxLength: tt.maxLength,
				Overlap:   tt.overlap,
			})
			require.NoError(t, err)

			segments := c.Split(models.Document{Source: "doc.txt", Content: tt.content})
			require.NotEmpty(t, segments)

			// Concatenating each segment's unique span (everything before
			// the next segment's start) must reproduce the document.
			var rebuilt strings.Builder
			stride := c.Stride()
			for i, seg := range segments {
				runes := []rune(seg.Text)
				if i < len(segments)-1 {
					rebuilt.WriteString(string(runes[:stride]))
				} else {
					rebuilt.WriteString(seg.Text)
				}
			}
			assert.Equal(t, tt.content, rebuilt.String())
		})
	}
}

func TestSplit_EmptyDocument(t *testing.T) {
	c, err := chunker.NewWithConfig(chunker.ChunkerConfig{MaxLength: 20, Overlap: 5})
	require.NoError(t, err)

	segments := c.Split(models.Document{Source: "empty.txt"})
	assert.Empty(t, segments)
}

func TestSplit_OverlapSharedBetweenNeighbours(t *testing.T) {
	c, err := chunker.NewWithConfig(chunker.ChunkerConfig{MaxLength: 10, Overlap: 4})
	require.NoError(t, err)

	content := "0123456789abcdefghij"
	segments := c.Split(models.Document{Source: "doc.txt", Content: content})
	require.GreaterOrEqual(t, len(segments), 2)

	first := []rune(segments[0].Text)
	second := []rune(segments[1].Text)
	assert.Equal(t, string(first[len(first)-4:]), string(second[:4]))
}
