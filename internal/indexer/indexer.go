package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/pdfqa-mcp/internal/chunker"
	"github.com/dshills/pdfqa-mcp/internal/embedder"
	"github.com/dshills/pdfqa-mcp/internal/extract"
	"github.com/dshills/pdfqa-mcp/internal/storage"
	"github.com/dshills/pdfqa-mcp/pkg/types"
)

// ErrIngestInProgress is returned when another ingestion holds the lock
var ErrIngestInProgress = errors.New("ingestion already in progress")

// Indexer coordinates the ingest pipeline: copy -> extract -> chunk -> embed -> append
type Indexer struct {
	fs        afero.Fs
	store     storage.Store
	extractor *extract.Extractor
	chunker   *chunker.Chunker
	embedder  embedder.Embedder
	logger    *slog.Logger

	uploadsDir  string
	batchSize   int
	concurrency int

	lock     IndexLock
	onAppend []func()
}

// Config contains configuration for the indexer
type Config struct {
	UploadsDir  string // Where ingested PDFs are copied
	BatchSize   int    // Texts per embedding request (default: embedder.DefaultBatchSize)
	Concurrency int    // Embedding requests in flight (default: 4)
}

// FileResult describes the outcome for one input path
type FileResult struct {
	Path    string `json:"path"`
	Status  string `json:"status"` // ingested, skipped or failed
	Pages   int    `json:"pages,omitempty"`
	Chunks  int    `json:"chunks,omitempty"`
	Message string `json:"message,omitempty"`
}

// File result statuses
const (
	StatusIngested = "ingested"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

// Statistics contains statistics about an ingestion
type Statistics struct {
	FilesIngested int           `json:"files_ingested"`
	FilesSkipped  int           `json:"files_skipped"`
	FilesFailed   int           `json:"files_failed"`
	ChunksAdded   int           `json:"chunks_added"`
	Duration      time.Duration `json:"duration"`
	Files         []FileResult  `json:"files"`
}

// New creates a new Indexer. fs holds both the source files and the uploads directory.
func New(fs afero.Fs, store storage.Store, emb embedder.Embedder, ch *chunker.Chunker, cfg Config, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = embedder.DefaultBatchSize
	}
	if cfg.BatchSize > embedder.MaxBatchSize {
		cfg.BatchSize = embedder.MaxBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	return &Indexer{
		fs:          fs,
		store:       store,
		extractor:   extract.New(fs, logger),
		chunker:     ch,
		embedder:    emb,
		logger:      logger,
		uploadsDir:  cfg.UploadsDir,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
	}
}

// OnAppend registers fn to run after every successful append, e.g. to
// invalidate retrieval caches
func (idx *Indexer) OnAppend(fn func()) {
	idx.onAppend = append(idx.onAppend, fn)
}

// Busy reports whether an ingestion is running
func (idx *Indexer) Busy() bool {
	return idx.lock.Held()
}

// IngestFiles ingests every .pdf path in order. Other paths are skipped.
// A failure on one file is recorded in its FileResult and the next file is
// processed; only context cancellation aborts the run.
func (idx *Indexer) IngestFiles(ctx context.Context, paths []string) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIngestInProgress
	}
	defer idx.lock.Release()

	start := time.Now()
	stats := &Statistics{Files: make([]FileResult, 0, len(paths))}

	if err := idx.fs.MkdirAll(idx.uploadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res := FileResult{Path: path}
		if !extract.IsPDF(path) {
			res.Status = StatusSkipped
			res.Message = "not a .pdf file"
			stats.FilesSkipped++
			stats.Files = append(stats.Files, res)
			continue
		}

		pages, chunks, err := idx.ingestFile(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			idx.logger.Warn("ingest failed", "path", path, "error", err)
			res.Status = StatusFailed
			res.Message = err.Error()
			stats.FilesFailed++
			stats.Files = append(stats.Files, res)
			continue
		}

		res.Status = StatusIngested
		res.Pages = pages
		res.Chunks = chunks
		stats.FilesIngested++
		stats.ChunksAdded += chunks
		stats.Files = append(stats.Files, res)
	}

	stats.Duration = time.Since(start)
	idx.logger.Info("ingest complete",
		"ingested", stats.FilesIngested, "skipped", stats.FilesSkipped, "failed", stats.FilesFailed,
		"chunks", stats.ChunksAdded, "duration", stats.Duration)

	return stats, nil
}

// ingestFile runs the pipeline for one PDF and returns its page and chunk counts
func (idx *Indexer) ingestFile(ctx context.Context, path string) (int, int, error) {
	filename := filepath.Base(path)

	stored, err := idx.copyToUploads(path, filename)
	if err != nil {
		return 0, 0, err
	}

	pages, err := idx.extractor.Pages(ctx, stored)
	if err != nil {
		return 0, 0, err
	}

	inputs := idx.chunker.ChunkPages(pages)
	if len(inputs) == 0 {
		idx.logger.Info("no extractable text", "file", filename, "pages", len(pages))
		return len(pages), 0, nil
	}

	texts := make([]string, len(inputs))
	for i := range inputs {
		texts[i] = inputs[i].Text
	}

	m, err := idx.embedAll(ctx, texts)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to embed %s: %w", filename, err)
	}

	n, err := idx.store.Append(ctx, types.FileMeta{Filename: filename}, inputs, m)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to store %s: %w", filename, err)
	}

	for _, fn := range idx.onAppend {
		fn()
	}

	idx.logger.Debug("file ingested", "file", filename, "pages", len(pages), "chunks", n)
	return len(pages), n, nil
}

// copyToUploads copies path into the uploads directory under filename and
// returns the stored path. A later upload with the same name overwrites it.
func (idx *Indexer) copyToUploads(path, filename string) (string, error) {
	dest := filepath.Join(idx.uploadsDir, filename)
	if filepath.Clean(path) == filepath.Clean(dest) {
		return dest, nil
	}

	src, err := idx.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := idx.fs.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", fmt.Errorf("failed to copy %s: %w", path, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", dest, err)
	}

	return dest, nil
}

// embedAll embeds texts in batches, running up to concurrency requests at
// once, and returns the matrix whose row i embeds texts[i]
func (idx *Indexer) embedAll(ctx context.Context, texts []string) (*types.Matrix, error) {
	results := make([]*embedder.Embedding, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.concurrency)

	var mu sync.Mutex
	dimension := 0

	for i := 0; i < len(texts); i += idx.batchSize {
		start := i
		end := i + idx.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		g.Go(func() error {
			resp, err := idx.embedder.GenerateBatch(gctx, embedder.BatchEmbeddingRequest{Texts: texts[start:end]})
			if err != nil {
				return err
			}
			if len(resp.Embeddings) != end-start {
				return fmt.Errorf("%w: requested %d embeddings, got %d", embedder.ErrProviderFailed, end-start, len(resp.Embeddings))
			}

			mu.Lock()
			defer mu.Unlock()
			for j, emb := range resp.Embeddings {
				if dimension == 0 {
					dimension = len(emb.Vector)
				}
				if len(emb.Vector) != dimension {
					return fmt.Errorf("%w: embedding width %d, want %d", types.ErrDimensionMismatch, len(emb.Vector), dimension)
				}
				results[start+j] = emb
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return embedder.ToMatrix(results)
}
