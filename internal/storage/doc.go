// Package storage persists document chunks and their embedding matrix.
//
// The store holds two parallel sequences: chunk metadata and embedding rows.
// Row i of the matrix is always the embedding of chunk i. Every mutating
// operation preserves this alignment; a caller that hands over a different
// number of chunks and rows gets types.ErrRowCountMismatch and nothing is
// written.
//
// The store only grows. Append never updates, deletes or deduplicates:
// ingesting the same text twice yields two chunks with distinct IDs.
//
// # Backends
//
// FileStore (default) keeps the dataset in a directory:
//   - chunks.jsonl: one JSON record per chunk
//     (chunk_id, filename, page_start, page_end, text)
//   - embeddings.bin: magic "PQAM", a version byte, little-endian uint32
//     rows and cols, then rows*cols little-endian float32 values
//
// Each file is written to a temp file and renamed into place. The matrix
// is replaced before the chunk list.
//
// SQLiteStorage keeps chunks and embeddings in two tables keyed by a shared
// seq column. Save and Append each run in one transaction.
//
// # Basic Usage
//
//	store, err := storage.Open(ctx, cfg.Store, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	n, err := store.Append(ctx, types.FileMeta{Filename: "handbook.pdf"}, chunks, embeddings)
//
//	chunks, matrix, err := store.Load(ctx)
//	if matrix.IsPlaceholder() {
//	    // nothing ingested yet
//	}
//
// # Concurrency
//
// Every Append is a load-modify-save sequence. Stores returned by Open are
// wrapped in Serialized, which gives writers exclusive access and lets
// readers share.
//
// # Build Tags
//
// The SQLite backend supports two drivers:
//
// Pure Go build (default):
//
//   - Uses modernc.org/sqlite
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build ./...
//
// CGO build (sqlite_cgo tag):
//
//   - Uses github.com/mattn/go-sqlite3
//
//     CGO_ENABLED=1 go build -tags "sqlite_cgo" ./...
package storage
