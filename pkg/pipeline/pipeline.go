package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/onepointconsulting/murli-chat/internal/models"
	"github.com/onepointconsulting/murli-chat/internal/types"
	"github.com/onepointconsulting/murli-chat/pkg/index"
	"github.com/onepointconsulting/murli-chat/pkg/llm"
)

// NoContextAnswer is returned when the index holds no entries at all.
const NoContextAnswer = "I could not find any relevant documents to answer your question."

type PipelineConfig struct {
	TopK        int
	Workers     int
	MaxAttempts int
	// OnDocument is called after each document has been chunked and
	// embedded. May be nil.
	OnDocument func(source string)
}

// Pipeline wires the chunker, embedder, index and generator into the two
// operations the application needs: Build and Answer. Answer is a pure
// function of (question, history, index snapshot); nothing is mutated at
// query time.
type Pipeline struct {
	chunker   types.Chunker
	embedder  types.Embedder
	index     types.VectorIndex
	generator types.Generator
	config    PipelineConfig
}

func NewWithConfig(chunker types.Chunker, embedder types.Embedder, vectorIndex types.VectorIndex, generator types.Generator, config PipelineConfig) *Pipeline {
	if config.TopK <= 0 {
		config.TopK = 5
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	return &Pipeline{
		chunker:   chunker,
		embedder:  embedder,
		index:     vectorIndex,
		generator: generator,
		config:    config,
	}
}

// Build chunks and embeds the documents through a bounded worker pool, then
// replaces the index contents in one atomic rebuild. Entries land in
// document order regardless of which worker finished first, so search
// tie-breaking stays deterministic across rebuilds. Returns the number of
// entries indexed.
func (p *Pipeline) Build(ctx context.Context, docs []models.Document) (int, error) {
	perDoc := make([][]models.IndexEntry, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			segments := p.chunker.Split(doc)
			if len(segments) == 0 {
				return nil
			}
			texts := make([]string, len(segments))
			for j, seg := range segments {
				texts[j] = seg.Text
			}

			vectors, err := p.embedWithRetry(gctx, texts)
			if err != nil {
				return fmt.Errorf("embedding %s: %w", doc.Source, err)
			}

			entries := make([]models.IndexEntry, len(segments))
			for j, seg := range segments {
				entries[j] = models.IndexEntry{Segment: seg, Embedding: vectors[j]}
			}
			perDoc[i] = entries

			if p.config.OnDocument != nil {
				p.config.OnDocument(doc.Source)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var all []models.IndexEntry
	for _, entries := range perDoc {
		all = append(all, entries...)
	}

	if err := p.index.Rebuild(ctx, all); err != nil {
		return 0, fmt.Errorf("rebuilding index: %w", err)
	}
	return len(all), nil
}

// Retrieve embeds the question and returns at most k matching segments,
// fewer only when the index is smaller than k.
func (p *Pipeline) Retrieve(ctx context.Context, question string, k int) ([]models.SearchResult, error) {
	vectors, err := p.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected one query vector, got %d", len(vectors))
	}
	return p.index.Search(ctx, vectors[0], k)
}

// Answer retrieves context for the question and asks the generator for a
// grounded response. An empty index yields a graceful answer rather than an
// error; an oversized prompt is retried once with half the context and a
// truncated history.
func (p *Pipeline) Answer(ctx context.Context, question string, history []models.Exchange) (models.Answer, error) {
	results, err := p.Retrieve(ctx, question, p.config.TopK)
	if errors.Is(err, index.ErrEmptyIndex) {
		return models.Answer{Text: NoContextAnswer}, nil
	}
	if err != nil {
		return models.Answer{}, err
	}

	segments := make([]models.Segment, len(results))
	for i, res := range results {
		segments[i] = res.Segment
	}

	text, err := p.generator.Generate(ctx, question, segments, history)
	if errors.Is(err, llm.ErrContextTooLarge) {
		segments = segments[:(len(segments)+1)/2]
		text, err = p.generator.Generate(ctx, question, segments, truncateHistory(history, 2))
	}
	if err != nil {
		return models.Answer{}, err
	}

	return models.Answer{
		Text:     text,
		Sources:  sourceNames(segments),
		Segments: segments,
	}, nil
}

// embedWithRetry retries transient embedding failures with exponential
// backoff, waiting longer when the provider signalled throttling.
func (p *Pipeline) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt < p.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := retryDelay(attempt)
			if errors.Is(lastErr, llm.ErrRateLimited) {
				delay *= 4
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		vectors, err := p.embedder.Embed(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func retryDelay(attempt int) time.Duration {
	base := 200 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func truncateHistory(history []models.Exchange, keep int) []models.Exchange {
	if len(history) <= keep {
		return history
	}
	return history[len(history)-keep:]
}

// sourceNames turns segment file paths into display names, deduplicated in
// retrieval order.
func sourceNames(segments []models.Segment) []string {
	var names []string
	seen := make(map[string]bool)
	for _, seg := range segments {
		name := strings.TrimSuffix(filepath.Base(seg.Source), filepath.Ext(seg.Source))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
