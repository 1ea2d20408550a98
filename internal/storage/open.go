package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/dshills/pdfqa-mcp/internal/config"
)

// Open creates the backend named by cfg and wraps it for single-writer use
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case BackendFile, "":
		fs, err := NewFileStore(afero.NewOsFs(), cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		return NewSerialized(fs), nil

	case BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := NewSQLiteStorage(ctx, cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		return NewSerialized(db), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
