package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/pdfqa-mcp/internal/config"
	"github.com/dshills/pdfqa-mcp/internal/extract/pdftest"
	"github.com/dshills/pdfqa-mcp/pkg/types"
)

// offlineConfig uses the local embedder and the extractive generator
func offlineConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Store.Path = cfg.IndexDir()
	cfg.Embedder.Provider = "local"
	cfg.Embedder.Model = "local-hash"
	cfg.Generator.Provider = "extractive"
	cfg.Chunking.SizeChars = 200
	cfg.Chunking.OverlapChars = 20
	cfg.Retrieval.SemanticMinSim = 0.1
	return cfg
}

func TestApp_IngestThenAsk(t *testing.T) {
	cfg := offlineConfig(t)
	ctx := context.Background()

	a, err := New(ctx, cfg, nil, nil)
	require.NoError(t, err)
	defer a.Close()

	pdf := filepath.Join(t.TempDir(), "handbook.pdf")
	require.NoError(t, afero.WriteFile(afero.NewOsFs(), pdf, pdftest.Build(
		"Vacation policy: employees receive twenty vacation days per year",
		"Parking permits are issued by the facilities office",
	), 0o644))

	ans, err := a.QA.Ask(ctx, "How many vacation days do employees receive?")
	require.NoError(t, err)
	require.NotNil(t, ans.Refusal)
	assert.Equal(t, types.RefusalNoData, ans.Refusal.Kind)

	stats, err := a.Indexer.IngestFiles(ctx, []string{pdf})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIngested)

	ans, err = a.QA.Ask(ctx, "How many vacation days do employees receive?")
	require.NoError(t, err)
	require.Nil(t, ans.Refusal, "refusal: %+v", ans.Refusal)
	require.NotEmpty(t, ans.Citations)
	assert.Equal(t, "handbook.pdf", ans.Citations[0].Filename)
	assert.Equal(t, 1, *ans.Citations[0].PageStart)
	assert.Contains(t, ans.Answer, "twenty vacation days")

	exists, err := afero.Exists(afero.NewOsFs(), filepath.Join(cfg.UploadsDir(), "handbook.pdf"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestApp_IngestInvalidatesCache(t *testing.T) {
	cfg := offlineConfig(t)
	ctx := context.Background()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/a.pdf", pdftest.Build("alpha beta gamma"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/in/b.pdf", pdftest.Build("delta epsilon"), 0o644))

	a, err := New(ctx, cfg, fs, nil)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Indexer.IngestFiles(ctx, []string{"/in/a.pdf"})
	require.NoError(t, err)

	_, err = a.QA.Search(ctx, "alpha", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Searcher.CacheLen())

	_, err = a.Indexer.IngestFiles(ctx, []string{"/in/b.pdf"})
	require.NoError(t, err)
	assert.Zero(t, a.Searcher.CacheLen())
}

func TestApp_InvalidConfig(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Embedder.Provider = "word2vec"

	_, err := New(context.Background(), cfg, nil, nil)
	assert.Error(t, err)
}
