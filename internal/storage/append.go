package storage

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dshills/pdfqa-mcp/pkg/types"
)

// checkAligned enforces the row-alignment invariant between chunks and m
func checkAligned(numChunks int, m *types.Matrix) error {
	if m == nil {
		return fmt.Errorf("%w: nil matrix", types.ErrInvalidMatrix)
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if numChunks != m.Rows {
		return fmt.Errorf("%w: %d chunks, %d embedding rows", types.ErrRowCountMismatch, numChunks, m.Rows)
	}
	return nil
}

// newChunks assigns fresh IDs to inputs and merges the file metadata into them
func newChunks(meta types.FileMeta, inputs []types.ChunkInput) []types.Chunk {
	chunks := make([]types.Chunk, len(inputs))
	for i, in := range inputs {
		chunks[i] = types.Chunk{
			ChunkID:   uuid.NewString(),
			Filename:  meta.Filename,
			PageStart: in.PageStart,
			PageEnd:   in.PageEnd,
			Text:      in.Text,
		}
	}
	return chunks
}

// mergeMatrix applies the append policy. A store with no rows (including the
// placeholder) takes the new matrix as-is; otherwise rows are stacked and the
// widths must agree.
func mergeMatrix(existing, added *types.Matrix) (*types.Matrix, error) {
	if added.Rows == 0 {
		return existing.Clone(), nil
	}
	if existing.Rows == 0 {
		return added.Clone(), nil
	}
	return existing.Stack(added)
}

// appendDataset is the load-modify step shared by every backend. It returns
// the full new dataset and the chunks that were added.
func appendDataset(
	chunks []types.Chunk, m *types.Matrix,
	meta types.FileMeta, inputs []types.ChunkInput, added *types.Matrix,
) ([]types.Chunk, *types.Matrix, []types.Chunk, error) {
	fresh := newChunks(meta, inputs)

	merged, err := mergeMatrix(m, added)
	if err != nil {
		return nil, nil, nil, err
	}

	all := make([]types.Chunk, 0, len(chunks)+len(fresh))
	all = append(all, chunks...)
	all = append(all, fresh...)

	return all, merged, fresh, nil
}
