package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/dshills/pdfqa-mcp/pkg/types"
)

const metaDimension = "dimension"

// SQLiteStorage implements Store on a SQLite database. Chunk order and
// matrix rows are both keyed by the seq column.
type SQLiteStorage struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Single connection: SQLite has a single writer, and :memory: databases
	// are per-connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage opens (or creates) the database at dbPath and applies migrations
func NewSQLiteStorage(ctx context.Context, dbPath string, logger *slog.Logger) (*SQLiteStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath, logger: logger}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// withTx runs fn inside a transaction, committing only if fn succeeds
func (s *SQLiteStorage) withTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Load reads all chunks and embeddings in stored order
func (s *SQLiteStorage) Load(ctx context.Context) ([]types.Chunk, *types.Matrix, error) {
	return s.loadWithQuerier(ctx, s.db)
}

func (s *SQLiteStorage) loadWithQuerier(ctx context.Context, q querier) ([]types.Chunk, *types.Matrix, error) {
	query := `
		SELECT c.chunk_id, c.filename, c.page_start, c.page_end, c.text,
		       e.vector, e.dimension
		FROM chunks c
		LEFT JOIN embeddings e ON e.seq = c.seq
		ORDER BY c.seq
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	chunks := []types.Chunk{}
	var data []float32
	cols := 0

	for rows.Next() {
		var (
			c          types.Chunk
			start, end sql.NullInt64
			blob       []byte
			dim        sql.NullInt64
		)
		if err := rows.Scan(&c.ChunkID, &c.Filename, &start, &end, &c.Text, &blob, &dim); err != nil {
			return nil, nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if !dim.Valid {
			return nil, nil, fmt.Errorf("%w: chunk %s has no embedding", ErrCorrupt, c.ChunkID)
		}
		if cols == 0 {
			cols = int(dim.Int64)
		}
		if int(dim.Int64) != cols {
			return nil, nil, fmt.Errorf("%w: chunk %s has dimension %d, want %d", ErrCorrupt, c.ChunkID, dim.Int64, cols)
		}

		vector, err := deserializeVector(blob)
		if err != nil {
			return nil, nil, err
		}
		if len(vector) != cols {
			return nil, nil, fmt.Errorf("%w: chunk %s vector has %d values, want %d", ErrCorrupt, c.ChunkID, len(vector), cols)
		}

		c.PageStart = nullIntPtr(start)
		c.PageEnd = nullIntPtr(end)
		chunks = append(chunks, c)
		data = append(data, vector...)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	if len(chunks) == 0 {
		dim, err := s.storedDimension(ctx, q)
		if err != nil {
			return nil, nil, err
		}
		if dim <= types.PlaceholderCols {
			return chunks, types.EmptyMatrix(), nil
		}
		return chunks, &types.Matrix{Rows: 0, Cols: dim, Data: []float32{}}, nil
	}

	return chunks, &types.Matrix{Rows: len(chunks), Cols: cols, Data: data}, nil
}

// Save replaces the dataset in a single transaction
func (s *SQLiteStorage) Save(ctx context.Context, chunks []types.Chunk, m *types.Matrix) error {
	if err := checkAligned(len(chunks), m); err != nil {
		return err
	}

	return s.withTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx, "DELETE FROM embeddings"); err != nil {
			return fmt.Errorf("failed to clear embeddings: %w", err)
		}
		if _, err := q.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
			return fmt.Errorf("failed to clear chunks: %w", err)
		}
		if err := s.insertRows(ctx, q, 1, chunks, m); err != nil {
			return err
		}
		return s.setDimension(ctx, q, m.Cols)
	})
}

// Append inserts new rows after the existing ones in a single transaction
func (s *SQLiteStorage) Append(ctx context.Context, meta types.FileMeta, inputs []types.ChunkInput, m *types.Matrix) (int, error) {
	if err := checkAligned(len(inputs), m); err != nil {
		return 0, err
	}
	if len(inputs) == 0 {
		return 0, nil
	}

	fresh := newChunks(meta, inputs)

	err := s.withTx(ctx, func(q querier) error {
		var count int
		var maxSeq sql.NullInt64
		if err := q.QueryRowContext(ctx, "SELECT COUNT(*), MAX(seq) FROM chunks").Scan(&count, &maxSeq); err != nil {
			return fmt.Errorf("failed to read chunk count: %w", err)
		}

		if count > 0 {
			dim, err := s.storedDimension(ctx, q)
			if err != nil {
				return err
			}
			if dim != m.Cols {
				return fmt.Errorf("%w: stacking width %d onto width %d", types.ErrDimensionMismatch, m.Cols, dim)
			}
		}

		if err := s.insertRows(ctx, q, maxSeq.Int64+1, fresh, m); err != nil {
			return err
		}
		return s.setDimension(ctx, q, m.Cols)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug("appended chunks", "file", meta.Filename, "chunks", len(fresh))
	return len(fresh), nil
}

// ChunkCount returns the number of stored chunks
func (s *SQLiteStorage) ChunkCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// Status reports dataset statistics
func (s *SQLiteStorage) Status(ctx context.Context) (*Status, error) {
	chunks, m, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	st := newStatus(chunks, m)
	st.Backend = BackendSQLite
	st.BuildMode = BuildMode
	st.Location = s.path
	if info, err := os.Stat(s.path); err == nil {
		st.SizeBytes = info.Size()
	}

	return st, nil
}

func (s *SQLiteStorage) insertRows(ctx context.Context, q querier, firstSeq int64, chunks []types.Chunk, m *types.Matrix) error {
	chunkQuery := `
		INSERT INTO chunks (seq, chunk_id, filename, page_start, page_end, text)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	embeddingQuery := `
		INSERT INTO embeddings (seq, vector, dimension)
		VALUES (?, ?, ?)
	`

	for i := range chunks {
		c := &chunks[i]
		seq := firstSeq + int64(i)

		if _, err := q.ExecContext(ctx, chunkQuery,
			seq, c.ChunkID, c.Filename, intPtrArg(c.PageStart), intPtrArg(c.PageEnd), c.Text); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", c.ChunkID, err)
		}
		if _, err := q.ExecContext(ctx, embeddingQuery, seq, serializeVector(m.Row(i)), m.Cols); err != nil {
			return fmt.Errorf("failed to insert embedding for chunk %s: %w", c.ChunkID, err)
		}
	}

	return nil
}

// storedDimension returns the recorded embedding width, or 0 if none
func (s *SQLiteStorage) storedDimension(ctx context.Context, q querier) (int, error) {
	var value string
	err := q.QueryRowContext(ctx, "SELECT value FROM dataset_meta WHERE key = ?", metaDimension).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read dimension: %w", err)
	}

	dim, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: dimension %q", ErrCorrupt, value)
	}
	return dim, nil
}

func (s *SQLiteStorage) setDimension(ctx context.Context, q querier, dim int) error {
	query := `
		INSERT INTO dataset_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := q.ExecContext(ctx, query, metaDimension, strconv.Itoa(dim)); err != nil {
		return fmt.Errorf("failed to record dimension: %w", err)
	}
	return nil
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return types.IntPtr(int(v.Int64))
}

func intPtrArg(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
