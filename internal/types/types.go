package types

import (
	"context"

	"github.com/onepointconsulting/murli-chat/internal/models"
)

// Core interfaces

// Chunker splits a document into ordered, bounded segments.
type Chunker interface {
	Split(doc models.Document) []models.Segment
}

// Embedder maps texts to fixed-dimension vectors, one per input,
// preserving input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex stores index entries and supports nearest-neighbour search.
// Insert and Rebuild batches are all-or-nothing; readers never observe a
// partially applied batch.
type VectorIndex interface {
	Insert(ctx context.Context, entries []models.IndexEntry) error
	Rebuild(ctx context.Context, entries []models.IndexEntry) error
	Search(ctx context.Context, query []float32, k int) ([]models.SearchResult, error)
	Len(ctx context.Context) (int, error)
	Close() error
}

// Generator produces a grounded answer from a question, retrieved context
// and explicit conversation history.
type Generator interface {
	Generate(ctx context.Context, question string, segments []models.Segment, history []models.Exchange) (string, error)
}

// Answerer is the single operation the core exposes to any front-end.
type Answerer interface {
	Answer(ctx context.Context, question string, history []models.Exchange) (models.Answer, error)
}
