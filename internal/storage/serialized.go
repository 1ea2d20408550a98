package storage

import (
	"context"
	"sync"

	"github.com/dshills/pdfqa-mcp/pkg/types"
)

// Serialized wraps a Store so that writers are exclusive. Append and Save
// take the write lock, so the load-modify-save sequence of one append can
// never interleave with another. Readers share the read lock.
type Serialized struct {
	mu    sync.RWMutex
	inner Store
}

// NewSerialized wraps inner; wrapping an already serialized store returns it
func NewSerialized(inner Store) *Serialized {
	if s, ok := inner.(*Serialized); ok {
		return s
	}
	return &Serialized{inner: inner}
}

func (s *Serialized) Load(ctx context.Context) ([]types.Chunk, *types.Matrix, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.Load(ctx)
}

func (s *Serialized) Save(ctx context.Context, chunks []types.Chunk, m *types.Matrix) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Save(ctx, chunks, m)
}

func (s *Serialized) Append(ctx context.Context, meta types.FileMeta, chunks []types.ChunkInput, m *types.Matrix) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Append(ctx, meta, chunks, m)
}

func (s *Serialized) ChunkCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.ChunkCount(ctx)
}

func (s *Serialized) Status(ctx context.Context) (*Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.Status(ctx)
}

func (s *Serialized) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Close()
}
