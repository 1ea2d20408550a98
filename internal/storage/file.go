package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/spf13/afero"

	"github.com/dshills/pdfqa-mcp/pkg/types"
)

const (
	// ChunksFile holds one JSON chunk record per line
	ChunksFile = "chunks.jsonl"
	// EmbeddingsFile holds the binary embedding matrix
	EmbeddingsFile = "embeddings.bin"
)

// FileStore keeps the dataset as two files in a directory: the chunk list as
// JSONL and the embedding matrix in a compact binary format.
type FileStore struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger
	closed atomic.Bool
}

// NewFileStore creates a file-backed store rooted at dir on fs
func NewFileStore(fs afero.Fs, dir string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	return &FileStore{fs: fs, dir: dir, logger: logger}, nil
}

// Load reads the dataset. Missing files mean an empty store.
func (s *FileStore) Load(ctx context.Context) ([]types.Chunk, *types.Matrix, error) {
	if s.closed.Load() {
		return nil, nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	chunks := []types.Chunk{}
	raw, err := afero.ReadFile(s.fs, s.path(ChunksFile))
	switch {
	case err == nil:
		if chunks, err = decodeChunks(raw); err != nil {
			return nil, nil, err
		}
	case os.IsNotExist(err):
	default:
		return nil, nil, fmt.Errorf("failed to read %s: %w", ChunksFile, err)
	}

	m := types.EmptyMatrix()
	raw, err = afero.ReadFile(s.fs, s.path(EmbeddingsFile))
	switch {
	case err == nil:
		if m, err = decodeMatrix(raw); err != nil {
			return nil, nil, err
		}
	case os.IsNotExist(err):
	default:
		return nil, nil, fmt.Errorf("failed to read %s: %w", EmbeddingsFile, err)
	}

	if err := checkAligned(len(chunks), m); err != nil {
		return nil, nil, fmt.Errorf("failed to load %s: %w", s.dir, err)
	}

	return chunks, m, nil
}

// Save replaces both files. Each file is swapped in atomically; the matrix is
// written before the chunk list.
func (s *FileStore) Save(ctx context.Context, chunks []types.Chunk, m *types.Matrix) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := checkAligned(len(chunks), m); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.writeAtomic(EmbeddingsFile, func(w io.Writer) error {
		return encodeMatrix(w, m)
	}); err != nil {
		return err
	}

	if err := s.writeAtomic(ChunksFile, func(w io.Writer) error {
		return encodeChunks(w, chunks)
	}); err != nil {
		return err
	}

	s.logger.Debug("saved index", "dir", s.dir, "chunks", len(chunks), "dim", m.Cols)
	return nil
}

// Append adds chunks and their embeddings to the stored dataset
func (s *FileStore) Append(ctx context.Context, meta types.FileMeta, inputs []types.ChunkInput, m *types.Matrix) (int, error) {
	if err := checkAligned(len(inputs), m); err != nil {
		return 0, err
	}
	if len(inputs) == 0 {
		return 0, nil
	}

	chunks, existing, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}

	all, merged, _, err := appendDataset(chunks, existing, meta, inputs, m)
	if err != nil {
		return 0, err
	}

	if err := s.Save(ctx, all, merged); err != nil {
		return 0, err
	}

	return len(inputs), nil
}

// ChunkCount reads only the matrix header, whose row count always equals
// the chunk count of a saved dataset
func (s *FileStore) ChunkCount(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f, err := s.fs.Open(s.path(EmbeddingsFile))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", EmbeddingsFile, err)
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, matrixHeaderSize)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("failed to read %s: %w", EmbeddingsFile, err)
	}

	rows, _, err := decodeMatrixHeader(header[:n])
	if err != nil {
		return 0, err
	}
	return rows, nil
}

// Status reports dataset statistics and on-disk size
func (s *FileStore) Status(ctx context.Context) (*Status, error) {
	chunks, m, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	st := newStatus(chunks, m)
	st.Backend = BackendFile
	st.BuildMode = BuildMode
	st.Location = s.dir
	for _, name := range []string{ChunksFile, EmbeddingsFile} {
		if info, err := s.fs.Stat(s.path(name)); err == nil {
			st.SizeBytes += info.Size()
		}
	}

	return st, nil
}

// Close marks the store closed
func (s *FileStore) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// writeAtomic writes name through a temp file in the same directory and
// renames it into place
func (s *FileStore) writeAtomic(name string, write func(io.Writer) error) error {
	tmp, err := afero.TempFile(s.fs, s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
	}

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		cleanup()
		return err
	}
	if err := bw.Flush(); err != nil {
		cleanup()
		return fmt.Errorf("failed to flush %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", name, err)
	}

	if err := s.fs.Rename(tmpName, s.path(name)); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
