package storage

import (
	"context"
	"errors"

	"github.com/dshills/pdfqa-mcp/pkg/types"
)

var (
	// ErrCorrupt is returned when persisted data cannot be decoded
	ErrCorrupt = errors.New("corrupt store data")
	// ErrClosed is returned when a store is used after Close
	ErrClosed = errors.New("store is closed")
)

// Backend names accepted by Open
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store persists the ordered chunk list and its row-aligned embedding matrix.
// Row i of the matrix is always the embedding of chunk i.
type Store interface {
	// Load returns the full dataset. An empty store yields no chunks and the
	// placeholder matrix.
	Load(ctx context.Context) ([]types.Chunk, *types.Matrix, error)

	// Save replaces the dataset with chunks and m.
	Save(ctx context.Context, chunks []types.Chunk, m *types.Matrix) error

	// Append mints an ID for each chunk, merges meta into it and appends the
	// chunks and their embeddings. It returns the number of chunks added.
	Append(ctx context.Context, meta types.FileMeta, chunks []types.ChunkInput, m *types.Matrix) (int, error)

	// ChunkCount returns the number of stored chunks without loading them.
	ChunkCount(ctx context.Context) (int, error)

	// Status reports dataset statistics.
	Status(ctx context.Context) (*Status, error)

	Close() error
}

// Status contains statistics about the stored dataset
type Status struct {
	Backend    string
	BuildMode  string
	Location   string
	ChunkCount int
	Dimension  int // 0 while the dimension is unknown
	FileCount  int
	Files      []string
	SizeBytes  int64
}

// newStatus computes the dataset-derived fields of a Status
func newStatus(chunks []types.Chunk, m *types.Matrix) *Status {
	st := &Status{ChunkCount: len(chunks)}
	if !m.IsPlaceholder() {
		st.Dimension = m.Cols
	}

	seen := make(map[string]struct{})
	for _, c := range chunks {
		if _, ok := seen[c.Filename]; ok {
			continue
		}
		seen[c.Filename] = struct{}{}
		st.Files = append(st.Files, c.Filename)
	}
	st.FileCount = len(st.Files)

	return st
}
