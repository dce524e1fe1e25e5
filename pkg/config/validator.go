package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	if c.LLM.Model == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.model",
			Message: "model is required",
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 16384 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 16384",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.LLM.EmbedBatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.embed_batch_size",
			Message: "embed_batch_size must be positive",
		})
	}

	if c.LLM.EmbedRateRPS <= 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.embed_rate_rps",
			Message: "embed_rate_rps must be positive",
		})
	}

	// Validate Chunker config. A bad overlap corrupts the whole index, so
	// this is fatal at startup.
	if c.Chunker.MaxLength < 1 {
		errors = append(errors, ValidationError{
			Field:   "chunker.max_length",
			Message: "max_length must be positive",
		})
	}

	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.MaxLength {
		errors = append(errors, ValidationError{
			Field:   "chunker.overlap",
			Message: "overlap must be non-negative and less than max_length",
		})
	}

	// Validate Index config
	switch c.Index.Backend {
	case "memory", "sqlite", "pgvector":
	default:
		errors = append(errors, ValidationError{
			Field:   "index.backend",
			Message: fmt.Sprintf("unknown backend: %s", c.Index.Backend),
		})
	}

	if c.Index.Backend == "pgvector" {
		if c.Index.DatabaseURL == "" {
			errors = append(errors, ValidationError{
				Field:   "index.database_url",
				Message: "database URL is required for the pgvector backend",
			})
		} else if _, err := url.Parse(c.Index.DatabaseURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "index.database_url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Index.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "index.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	// Validate Retrieval config
	if c.Retrieval.TopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.top_k",
			Message: "top_k must be positive",
		})
	}

	// Validate Build config
	if c.Build.Workers < 1 {
		errors = append(errors, ValidationError{
			Field:   "build.workers",
			Message: "workers must be positive",
		})
	}

	if c.Build.MaxAttempts < 1 {
		errors = append(errors, ValidationError{
			Field:   "build.max_attempts",
			Message: "max_attempts must be positive",
		})
	}

	return errors
}
