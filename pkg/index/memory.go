package index

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/onepointconsulting/murli-chat/internal/models"
)

// Memory is a brute-force cosine similarity index held entirely in memory.
// Readers share the lock; Rebuild swaps the whole entry set so a concurrent
// reader sees either the old or the new set, never a mix.
type Memory struct {
	mu      sync.RWMutex
	entries []models.IndexEntry
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Insert(ctx context.Context, entries []models.IndexEntry) error {
	if err := checkDimensions(entries); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) > 0 && len(entries) > 0 &&
		len(entries[0].Embedding) != len(m.entries[0].Embedding) {
		return fmt.Errorf("vector dimension mismatch: index has %d, batch has %d",
			len(m.entries[0].Embedding), len(entries[0].Embedding))
	}
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *Memory) Rebuild(ctx context.Context, entries []models.IndexEntry) error {
	if err := checkDimensions(entries); err != nil {
		return err
	}
	fresh := make([]models.IndexEntry, len(entries))
	copy(fresh, entries)
	m.mu.Lock()
	m.entries = fresh
	m.mu.Unlock()
	return nil
}

func (m *Memory) Search(ctx context.Context, query []float32, k int) ([]models.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 {
		return nil, ErrEmptyIndex
	}

	results := make([]models.SearchResult, len(m.entries))
	for i, entry := range m.entries {
		results[i] = models.SearchResult{
			Segment: entry.Segment,
			Score:   cosine(query, entry.Embedding),
		}
	}

	// Stable sort keeps insertion order as the tie-break.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func (m *Memory) Len(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *Memory) Close() error { return nil }

func checkDimensions(entries []models.IndexEntry) error {
	for _, entry := range entries {
		if len(entry.Embedding) == 0 {
			return fmt.Errorf("entry %s:%d has an empty embedding", entry.Segment.Source, entry.Segment.Index)
		}
		if len(entry.Embedding) != len(entries[0].Embedding) {
			return fmt.Errorf("vector dimension mismatch within batch")
		}
	}
	return nil
}
