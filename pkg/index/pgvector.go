package index

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/onepointconsulting/murli-chat/internal/models"
)

type PgVectorConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
}

// PgVector is a Postgres/pgvector backed index for corpora too large for
// the local sqlite store.
type PgVector struct {
	config PgVectorConfig
	pool   *pgxpool.Pool
}

func NewPgVector(ctx context.Context, config PgVectorConfig) (*PgVector, error) {
	if config.TableName == "" {
		config.TableName = "murli_segments"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 1536 // Default for OpenAI embeddings
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	pv := &PgVector{config: config, pool: pool}
	if err := pv.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pv, nil
}

func (pv *PgVector) initialize(ctx context.Context) error {
	// Enable pgvector extension
	_, err := pv.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	// seq preserves insertion order for deterministic tie-breaking
	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL PRIMARY KEY,
			source TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d)
		)`, pv.config.TableName, pv.config.VectorDim)

	_, err = pv.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		pv.config.TableName, pv.config.TableName)

	_, err = pv.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	return nil
}

func (pv *PgVector) Insert(ctx context.Context, entries []models.IndexEntry) error {
	if err := checkDimensions(entries); err != nil {
		return err
	}

	tx, err := pv.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (source, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4)`, pv.config.TableName)

	for _, entry := range entries {
		_, err := tx.Exec(ctx, stmt,
			entry.Segment.Source,
			entry.Segment.Index,
			entry.Segment.Text,
			pgvector.NewVector(entry.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert entry: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

func (pv *PgVector) Rebuild(ctx context.Context, entries []models.IndexEntry) error {
	if err := checkDimensions(entries); err != nil {
		return err
	}

	tx, err := pv.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", pv.config.TableName)); err != nil {
		return fmt.Errorf("failed to clear table: %v", err)
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (source, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4)`, pv.config.TableName)

	for _, entry := range entries {
		_, err := tx.Exec(ctx, stmt,
			entry.Segment.Source,
			entry.Segment.Index,
			entry.Segment.Text,
			pgvector.NewVector(entry.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert entry: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

func (pv *PgVector) Search(ctx context.Context, query []float32, k int) ([]models.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	count, err := pv.Len(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrEmptyIndex
	}

	// <=> is cosine distance; 1 - distance matches the other backends'
	// similarity scale. seq breaks ties in insertion order.
	sql := fmt.Sprintf(`
		SELECT source, chunk_index, content, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1, seq
		LIMIT $2`, pv.config.TableName)

	rows, err := pv.pool.Query(ctx, sql, pgvector.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %v", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var res models.SearchResult
		if err := rows.Scan(&res.Segment.Source, &res.Segment.Index, &res.Segment.Text, &res.Score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %v", err)
	}

	return results, nil
}

func (pv *PgVector) Len(ctx context.Context) (int, error) {
	var count int
	err := pv.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", pv.config.TableName)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %v", err)
	}
	return count, nil
}

func (pv *PgVector) Close() error {
	if pv.pool != nil {
		pv.pool.Close()
	}
	return nil
}
