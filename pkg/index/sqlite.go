package index

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/onepointconsulting/murli-chat/internal/models"
)

// SQLite is a durable local index. Entries are stored in insertion order
// (the seq column) with vectors encoded as little-endian float32 blobs, so
// reopening the store reproduces the exact entry sequence. Similarity is
// computed in-process over all rows, which is fine at Murli-corpus scale.
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (or creates) the index database under dir.
func NewSQLite(dir string) (*SQLite, error) {
	if dir == "" {
		dir = "index_store"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dir, "index.db")

	// WAL keeps concurrent readers from blocking each other.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	s := &SQLite{db: db, path: dbPath}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding BLOB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("creating entries table: %w", err)
	}
	return nil
}

// Insert appends the batch inside one transaction; a failure leaves no
// partial rows behind.
func (s *SQLite) Insert(ctx context.Context, entries []models.IndexEntry) error {
	if err := checkDimensions(entries); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert batch: %w", err)
	}
	defer tx.Rollback()

	if err := insertAll(ctx, tx, entries); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert batch: %w", err)
	}
	return nil
}

// Rebuild replaces the whole entry set in one transaction.
func (s *SQLite) Rebuild(ctx context.Context, entries []models.IndexEntry) error {
	if err := checkDimensions(entries); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}
	if err := insertAll(ctx, tx, entries); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rebuild: %w", err)
	}
	return nil
}

func insertAll(ctx context.Context, tx *sql.Tx, entries []models.IndexEntry) error {
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO entries (source, chunk_index, content, embedding) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		_, err := stmt.ExecContext(ctx,
			entry.Segment.Source,
			entry.Segment.Index,
			entry.Segment.Text,
			encodeVector(entry.Embedding),
		)
		if err != nil {
			return fmt.Errorf("inserting entry %s:%d: %w", entry.Segment.Source, entry.Segment.Index, err)
		}
	}
	return nil
}

func (s *SQLite) Search(ctx context.Context, query []float32, k int) ([]models.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT source, chunk_index, content, embedding FROM entries ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var seg models.Segment
		var blob []byte
		if err := rows.Scan(&seg.Source, &seg.Index, &seg.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		results = append(results, models.SearchResult{
			Segment: seg,
			Score:   cosine(query, vec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading entries: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrEmptyIndex
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func (s *SQLite) Len(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return count, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}

func encodeVector(vec []float32) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(vec)*4))
	for _, v := range vec {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		buf.Write(b[:])
	}
	return buf.Bytes()
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("corrupt embedding blob of %d bytes", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec, nil
}
