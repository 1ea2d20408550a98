// Package types provides shared type definitions for the pdfqa MCP server.
//
// This package defines domain types used across multiple components,
// including chunks, embedding matrices, retrieval candidates and refusals.
//
// # Core Types
//
// Chunk is a unit of retrievable text extracted from a PDF page range:
//
//	chunk := types.Chunk{
//	    ChunkID:   "0d9c4f0e-...",
//	    Filename:  "handbook.pdf",
//	    PageStart: types.IntPtr(3),
//	    PageEnd:   types.IntPtr(4),
//	    Text:      "Employees accrue leave monthly...",
//	}
//
// Matrix is the dense float32 embedding matrix kept row-aligned with the
// chunk list: row i is the embedding of chunk i. An empty store is
// represented by the placeholder returned from EmptyMatrix, which has zero
// rows and one column:
//
//	m := types.EmptyMatrix()
//	m.IsPlaceholder() // true
//
// # Retrieval Results
//
// Candidate carries a chunk with its raw semantic and keyword scores, the
// fused hybrid score and the final reranked score. Retrieval holds either
// the ranked candidates or a Refusal; insufficient evidence is reported as
// a value, never as an error:
//
//	if res.Refused() {
//	    fmt.Println(res.Refusal.Reason)
//	}
package types
