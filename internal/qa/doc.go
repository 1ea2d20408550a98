// Package qa answers questions from ingested PDFs.
//
// Ask runs the full flow: policy check, intent detection, an empty-store
// check, optional query rewrite, query embedding, hybrid retrieval with the
// evidence gate and finally answer generation from the retrieved snippets.
// Every path that cannot be answered from evidence returns the answer text
// "insufficient evidence" together with a Refusal describing why.
//
// Search exposes retrieval on its own for callers that only need ranked
// chunks.
package qa
