package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeEmbeddingClient struct {
	batches [][]string
	err     error
}

func (f *fakeEmbeddingClient) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func newTestEmbedder(client embeddingClient, batchSize int) *Embedder {
	return &Embedder{
		config:  EmbedderConfig{Model: "text-embedding-ada-002", BatchSize: batchSize},
		client:  client,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func TestEmbed_PreservesOrderAndBatches(t *testing.T) {
	client := &fakeEmbeddingClient{}
	emb := newTestEmbedder(client, 2)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := emb.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	for i, text := range texts {
		assert.Equal(t, float32(len(text)), vectors[i][0])
	}

	// 5 inputs in batches of 2 -> 3 requests
	assert.Len(t, client.batches, 3)
	assert.Equal(t, []string{"a", "bb"}, client.batches[0])
	assert.Equal(t, []string{"eeeee"}, client.batches[2])
}

func TestEmbed_EmptyInput(t *testing.T) {
	client := &fakeEmbeddingClient{}
	emb := newTestEmbedder(client, 2)

	vectors, err := emb.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Empty(t, client.batches)
}

func TestEmbed_ClassifiesRateLimit(t *testing.T) {
	client := &fakeEmbeddingClient{err: errors.New("API returned unexpected status code: 429")}
	emb := newTestEmbedder(client, 2)

	_, err := emb.Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestEmbed_CancelledContext(t *testing.T) {
	client := &fakeEmbeddingClient{}
	emb := newTestEmbedder(client, 2)
	emb.limiter = rate.NewLimiter(rate.Limit(0.001), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := emb.Embed(ctx, []string{"a", "b", "c"})
	assert.Error(t, err)
}

func TestNewEmbedderWithConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	emb, err := NewEmbedderWithConfig(EmbedderConfig{})
	require.NoError(t, err)
	assert.NotNil(t, emb)
	assert.Equal(t, "text-embedding-ada-002", emb.config.Model)
	assert.Equal(t, 25, emb.config.BatchSize)
	assert.Equal(t, 2.0, emb.config.RateRPS)
}
