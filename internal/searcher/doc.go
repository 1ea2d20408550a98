// Package searcher ranks stored chunks against a query and decides whether
// the best results carry enough evidence to answer.
//
// A retrieval runs these stages over one loaded snapshot of the store:
//
//  1. Semantic scoring: cosine similarity between the query vector and
//     every embedding row.
//  2. Lexical scoring: TF-IDF keyword scores (see package lexical).
//  3. Fusion: each score family is min-max normalized on its own, then
//     combined as WeightSem×sem + WeightKW×kw.
//  4. Pooling: the max(4K, 20) best hybrid scores go to the reranker.
//  5. Reranking: final = hybrid + 0.10×coverage + 0.05×sem, plus 0.03 when
//     the chunk's file appears at least twice in the pool.
//  6. Gating: the top K are refused when the best candidate's raw semantic
//     similarity is below the threshold (0.25 by default).
//
// The weights above are defaults; all of them come from Options.
//
// # Basic Usage
//
//	s, err := searcher.New(store, searcher.OptionsFromConfig(cfg.Retrieval), logger)
//	if err != nil {
//	    return err
//	}
//
//	res, err := s.Retrieve(ctx, question, queryVector, 6)
//	if err != nil {
//	    return err
//	}
//	if res.Refused() {
//	    fmt.Println(res.Refusal.Reason)
//	    return nil
//	}
//	for _, c := range res.Candidates {
//	    fmt.Printf("%s p.%d (%.3f)\n", c.Filename, *c.PageStart, c.Final)
//	}
//
// An empty store is refused with RefusalNoData before any scoring runs.
// A refusal is a value on the result, never an error.
//
// # Caching
//
// Retrievals are cached in an LRU keyed by a SHA-256 of the query text,
// query vector and K, with a TTL. Call InvalidateCache after appending to
// the store.
package searcher
