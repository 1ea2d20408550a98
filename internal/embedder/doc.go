// Package embedder turns text into vector embeddings.
//
// Four providers implement Embedder:
//
//   - mistral: mistral-embed through Mistral's OpenAI-compatible API (1024 dims)
//   - openai: text-embedding-3-small/large (1536/3072 dims)
//   - jina: jina-embeddings-v3 over plain HTTP (1024 dims)
//   - local: offline hashed bag-of-words vectors (384 dims by default)
//
// # Basic Usage
//
//	emb, err := embedder.New(cfg.Embedder, logger)
//	if err != nil {
//	    return err
//	}
//	defer emb.Close()
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
//	if err != nil {
//	    return err
//	}
//	m, err := embedder.ToMatrix(resp.Embeddings)
//
// Embeddings come back in input order, so row i of the matrix belongs to texts[i].
//
// # Caching
//
// Providers share an LRU cache keyed by SHA-256 of model and text. Only texts
// missing from the cache are sent to the remote API.
//
// # Error Handling
//
// Transient failures (network errors, 5xx, 429) are retried with exponential
// backoff. Other 4xx responses fail immediately. Exhausted retries surface as
// ErrProviderFailed:
//
//	if errors.Is(err, embedder.ErrProviderFailed) {
//	    // provider unavailable
//	}
package embedder
