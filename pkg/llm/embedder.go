package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// EmbedderConfig represents the configuration for the embedding client.
type EmbedderConfig struct {
	Model     string
	BatchSize int
	RateRPS   float64 // embedding requests per second
	BaseURL   string
}

// embeddingClient is the slice of the OpenAI client the embedder needs.
type embeddingClient interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedder turns texts into fixed-dimension vectors through the OpenAI
// embeddings API, batching inputs and throttling requests.
type Embedder struct {
	config  EmbedderConfig
	client  embeddingClient
	limiter *rate.Limiter
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "text-embedding-ada-002"
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 25
	}
	if config.RateRPS <= 0 {
		config.RateRPS = 2.0
	}

	opts := []openai.Option{openai.WithEmbeddingModel(config.Model)}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding client: %w", err)
	}

	return &Embedder{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.RateRPS), 1),
	}, nil
}

// Embed returns one vector per input text, preserving input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.config.BatchSize {
		end := start + e.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		embedded, err := e.client.CreateEmbedding(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embedding request failed: %w", classify(err))
		}
		if len(embedded) != len(batch) {
			return nil, fmt.Errorf("embedding service returned %d vectors for %d inputs", len(embedded), len(batch))
		}
		vectors = append(vectors, embedded...)
	}

	return vectors, nil
}
