package index

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/onepointconsulting/murli-chat/internal/types"
)

// ErrEmptyIndex reports a search against an index with zero entries.
// Callers should treat it as "no context available", not as a fault.
var ErrEmptyIndex = errors.New("vector index holds no entries")

// Config selects and configures the index backend.
type Config struct {
	Backend     string // memory | sqlite | pgvector
	Store       string // directory for the sqlite backend
	DatabaseURL string // pgvector connection string
	TableName   string
	VectorDim   int
}

// Open constructs the configured backend behind the VectorIndex interface.
func Open(ctx context.Context, config Config) (types.VectorIndex, error) {
	switch config.Backend {
	case "memory":
		return NewMemory(), nil
	case "sqlite", "":
		return NewSQLite(config.Store)
	case "pgvector":
		return NewPgVector(ctx, PgVectorConfig{
			ConnString: config.DatabaseURL,
			TableName:  config.TableName,
			VectorDim:  config.VectorDim,
		})
	default:
		return nil, fmt.Errorf("unknown index backend: %s", config.Backend)
	}
}

// cosine computes cosine similarity between two vectors of equal dimension.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
