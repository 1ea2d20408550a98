// Package app wires the store, embedder, generator, searcher, indexer and
// question-answering service from a configuration. The MCP server and the
// CLI both run on an App.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/dshills/pdfqa-mcp/internal/chunker"
	"github.com/dshills/pdfqa-mcp/internal/config"
	"github.com/dshills/pdfqa-mcp/internal/embedder"
	"github.com/dshills/pdfqa-mcp/internal/generator"
	"github.com/dshills/pdfqa-mcp/internal/indexer"
	"github.com/dshills/pdfqa-mcp/internal/qa"
	"github.com/dshills/pdfqa-mcp/internal/searcher"
	"github.com/dshills/pdfqa-mcp/internal/storage"
)

// App holds the application components. Every component shares one store.
type App struct {
	Config    *config.Config
	Store     storage.Store
	Embedder  embedder.Embedder
	Generator generator.Generator
	Searcher  *searcher.Searcher
	Indexer   *indexer.Indexer
	QA        *qa.Service

	logger *slog.Logger
}

// New builds an App from cfg. fs holds the PDFs to ingest and the uploads
// directory; nil means the OS filesystem.
func New(ctx context.Context, cfg *config.Config, fs afero.Fs, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}

	store, err := storage.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	a := &App{Config: cfg, Store: store, logger: logger}
	if err := a.init(fs); err != nil {
		_ = a.Close()
		return nil, err
	}

	logger.Info("application ready",
		"store", cfg.Store.Backend, "embedder", a.Embedder.Provider(), "embed_model", a.Embedder.Model(),
		"generator", a.Generator.Provider())
	return a, nil
}

func (a *App) init(fs afero.Fs) error {
	cfg := a.Config

	emb, err := embedder.New(cfg.Embedder, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %w", err)
	}
	a.Embedder = emb

	gen, err := generator.New(cfg.Generator, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize generator: %w", err)
	}
	a.Generator = gen

	srch, err := searcher.New(a.Store, searcher.OptionsFromConfig(cfg.Retrieval), a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize searcher: %w", err)
	}
	a.Searcher = srch

	ch, err := chunker.New(cfg.Chunking.SizeChars, cfg.Chunking.OverlapChars)
	if err != nil {
		return fmt.Errorf("failed to initialize chunker: %w", err)
	}

	a.Indexer = indexer.New(fs, a.Store, emb, ch, indexer.Config{
		UploadsDir:  cfg.UploadsDir(),
		BatchSize:   cfg.Embedder.BatchSize,
		Concurrency: cfg.Embedder.Concurrency,
	}, a.logger)
	a.Indexer.OnAppend(srch.InvalidateCache)

	a.QA = qa.New(a.Store, srch, emb, gen, qa.Options{QueryRewrite: cfg.Retrieval.QueryRewrite}, a.logger)
	return nil
}

// Close releases the embedder and the store
func (a *App) Close() error {
	var errs []error
	if a.Embedder != nil {
		errs = append(errs, a.Embedder.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
