package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/pdfqa-mcp/pkg/types"
)

// backends returns a fresh instance of every Store implementation
func backends(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFileStore(afero.NewMemMapFs(), "/data/index", nil)
	require.NoError(t, err)

	sqliteStore, err := NewSQLiteStorage(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	return map[string]Store{
		BackendFile:   fileStore,
		BackendSQLite: sqliteStore,
	}
}

func inputs(texts ...string) []types.ChunkInput {
	out := make([]types.ChunkInput, len(texts))
	for i, text := range texts {
		out[i] = types.ChunkInput{Text: text, PageStart: types.IntPtr(i + 1), PageEnd: types.IntPtr(i + 1)}
	}
	return out
}

func matrix(t *testing.T, rows ...[]float32) *types.Matrix {
	t.Helper()
	m, err := types.NewMatrix(rows)
	require.NoError(t, err)
	return m
}

func TestStore_LoadEmpty(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			chunks, m, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Empty(t, chunks)
			assert.NotNil(t, chunks)
			assert.True(t, m.IsPlaceholder())
			assert.Equal(t, 0, m.Rows)
			assert.Equal(t, 1, m.Cols)
		})
	}
}

func TestStore_AppendToEmpty(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			n, err := store.Append(ctx, types.FileMeta{Filename: "a.pdf"},
				inputs("first chunk", "second chunk"),
				matrix(t, []float32{1, 0, 0}, []float32{0, 1, 0}))
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			chunks, m, err := store.Load(ctx)
			require.NoError(t, err)
			require.Len(t, chunks, 2)
			assert.Equal(t, 2, m.Rows)
			assert.Equal(t, 3, m.Cols)

			for i, c := range chunks {
				_, err := uuid.Parse(c.ChunkID)
				assert.NoError(t, err, "chunk ID should be a UUID")
				assert.Equal(t, "a.pdf", c.Filename)
				require.NotNil(t, c.PageStart)
				assert.Equal(t, i+1, *c.PageStart)
			}
			assert.Equal(t, "first chunk", chunks[0].Text)
			assert.Equal(t, []float32{0, 1, 0}, m.Row(1))
		})
	}
}

func TestStore_SuccessiveAppendsStayAligned(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			batches := []struct {
				file  string
				texts []string
			}{
				{"a.pdf", []string{"a1", "a2"}},
				{"b.pdf", []string{"b1"}},
				{"c.pdf", []string{"c1", "c2", "c3"}},
			}

			var want []string
			row := float32(0)
			for _, b := range batches {
				rows := make([][]float32, len(b.texts))
				for i := range rows {
					row++
					rows[i] = []float32{row, -row}
				}
				n, err := store.Append(ctx, types.FileMeta{Filename: b.file}, inputs(b.texts...), matrix(t, rows...))
				require.NoError(t, err)
				assert.Equal(t, len(b.texts), n)
				want = append(want, b.texts...)
			}

			chunks, m, err := store.Load(ctx)
			require.NoError(t, err)
			require.Len(t, chunks, len(want))
			require.Equal(t, len(chunks), m.Rows)

			for i, c := range chunks {
				assert.Equal(t, want[i], c.Text)
				assert.Equal(t, []float32{float32(i + 1), -float32(i + 1)}, m.Row(i))
			}
		})
	}
}

func TestStore_AppendNeverDeduplicates(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			meta := types.FileMeta{Filename: "same.pdf"}

			for i := 0; i < 2; i++ {
				_, err := store.Append(ctx, meta, inputs("identical text"), matrix(t, []float32{1, 2}))
				require.NoError(t, err)
			}

			chunks, m, err := store.Load(ctx)
			require.NoError(t, err)
			require.Len(t, chunks, 2)
			assert.Equal(t, 2, m.Rows)
			assert.NotEqual(t, chunks[0].ChunkID, chunks[1].ChunkID)
		})
	}
}

func TestStore_AppendRowCountMismatch(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Append(ctx, types.FileMeta{Filename: "a.pdf"},
				inputs("one", "two"), matrix(t, []float32{1, 0}))
			require.ErrorIs(t, err, types.ErrRowCountMismatch)

			chunks, m, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, chunks)
			assert.True(t, m.IsPlaceholder())
		})
	}
}

func TestStore_AppendDimensionMismatch(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Append(ctx, types.FileMeta{Filename: "a.pdf"}, inputs("one"), matrix(t, []float32{1, 0, 0}))
			require.NoError(t, err)

			_, err = store.Append(ctx, types.FileMeta{Filename: "b.pdf"}, inputs("two"), matrix(t, []float32{1, 0}))
			require.ErrorIs(t, err, types.ErrDimensionMismatch)

			chunks, m, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Len(t, chunks, 1)
			assert.Equal(t, 1, m.Rows)
			assert.Equal(t, 3, m.Cols)
		})
	}
}

func TestStore_AppendNothing(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			n, err := store.Append(context.Background(), types.FileMeta{Filename: "empty.pdf"}, nil, types.EmptyMatrix())
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestStore_SaveRoundTrip(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			chunks := []types.Chunk{
				{ChunkID: "c-1", Filename: "a.pdf", PageStart: types.IntPtr(1), PageEnd: types.IntPtr(2), Text: "alpha"},
				{ChunkID: "c-2", Filename: "notes.txt", Text: "beta without pages"},
			}
			m := matrix(t, []float32{0.5, 0.25}, []float32{-1, 3.5})

			require.NoError(t, store.Save(ctx, chunks, m))

			loaded, lm, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, chunks, loaded)
			assert.Equal(t, m.Data, lm.Data)
			assert.Equal(t, 2, lm.Cols)
			assert.Nil(t, loaded[1].PageStart)
		})
	}
}

func TestStore_SaveReplaces(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Append(ctx, types.FileMeta{Filename: "a.pdf"}, inputs("x", "y"), matrix(t, []float32{1}, []float32{2}))
			require.NoError(t, err)

			require.NoError(t, store.Save(ctx, []types.Chunk{}, types.EmptyMatrix()))

			chunks, m, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, chunks)
			assert.True(t, m.IsPlaceholder())
		})
	}
}

func TestStore_SaveRowCountMismatch(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Save(context.Background(),
				[]types.Chunk{{ChunkID: "x", Filename: "a.pdf", Text: "x"}},
				types.EmptyMatrix())
			assert.ErrorIs(t, err, types.ErrRowCountMismatch)
		})
	}
}

func TestStore_Status(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			st, err := store.Status(ctx)
			require.NoError(t, err)
			assert.Equal(t, name, st.Backend)
			assert.Zero(t, st.ChunkCount)
			assert.Zero(t, st.Dimension)

			_, err = store.Append(ctx, types.FileMeta{Filename: "a.pdf"}, inputs("1", "2"), matrix(t, []float32{1, 1, 1, 1}, []float32{2, 2, 2, 2}))
			require.NoError(t, err)
			_, err = store.Append(ctx, types.FileMeta{Filename: "b.pdf"}, inputs("3"), matrix(t, []float32{3, 3, 3, 3}))
			require.NoError(t, err)

			st, err = store.Status(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, st.ChunkCount)
			assert.Equal(t, 4, st.Dimension)
			assert.Equal(t, 2, st.FileCount)
			assert.Equal(t, []string{"a.pdf", "b.pdf"}, st.Files)
			assert.Equal(t, BuildMode, st.BuildMode)
		})
	}
}

func TestStore_ChunkCount(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			n, err := store.ChunkCount(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)

			_, err = store.Append(ctx, types.FileMeta{Filename: "a.pdf"}, inputs("1", "2"), matrix(t, []float32{1, 0}, []float32{0, 1}))
			require.NoError(t, err)
			_, err = store.Append(ctx, types.FileMeta{Filename: "b.pdf"}, inputs("3"), matrix(t, []float32{1, 1}))
			require.NoError(t, err)

			n, err = store.ChunkCount(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			n, err = NewSerialized(store).ChunkCount(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, n)
		})
	}
}
