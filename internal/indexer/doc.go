// Package indexer ingests PDF files into the store.
//
// For every path ending in .pdf the pipeline:
//
//  1. copies the file into the uploads directory
//  2. extracts per-page text
//  3. chunks the pages into overlapping windows
//  4. embeds the chunks in batches, several batches in flight at once
//  5. appends chunks and embeddings to the store in one call
//
// Other paths are skipped and reported. A failing file does not stop the
// run; its error is reported in the file's result.
//
// # Concurrency
//
// Only one ingestion runs at a time. IngestFiles returns ErrIngestInProgress
// immediately when another ingestion holds the lock:
//
//	stats, err := idx.IngestFiles(ctx, paths)
//	if errors.Is(err, indexer.ErrIngestInProgress) {
//	    // try again later
//	}
//
// Callbacks registered with OnAppend run after each successful append;
// the server uses this to invalidate the retrieval cache.
package indexer
