package types

import "time"

// Candidate is a chunk under consideration for a query, with its scores.
// Candidates are transient and never persisted.
type Candidate struct {
	Chunk

	// Scoring
	Sem    float64 // Raw cosine similarity, not normalized
	KW     float64 // Raw TF-IDF keyword score, not normalized
	Hybrid float64 // Weighted sum of the normalized Sem and KW scores
	Final  float64 // Hybrid plus rerank bonuses
}

// RefusalKind classifies why a query was refused
type RefusalKind string

const (
	RefusalNoData               RefusalKind = "no_data"
	RefusalInsufficientEvidence RefusalKind = "insufficient_evidence"
	RefusalPolicy               RefusalKind = "policy"
)

// Refusal signals that no answer should be produced. It is a value, not an error.
type Refusal struct {
	Kind          RefusalKind `json:"kind"`
	Reason        string      `json:"reason"`
	TopSimilarity float64     `json:"top_similarity,omitempty"`
	Threshold     float64     `json:"threshold,omitempty"`
}

// Retrieval is the outcome of a retrieve call: either ranked candidates or a refusal
type Retrieval struct {
	Candidates []Candidate
	Refusal    *Refusal

	// Metadata
	PoolSize int
	Duration time.Duration
	CacheHit bool
}

// Refused reports whether the retrieval ended in a refusal
func (r *Retrieval) Refused() bool {
	return r.Refusal != nil
}

// Citation points an answer back to the chunk it was drawn from
type Citation struct {
	ChunkID   string  `json:"chunk_id"`
	Filename  string  `json:"filename"`
	PageStart *int    `json:"page_start"`
	PageEnd   *int    `json:"page_end"`
	Score     float64 `json:"score"`
	Excerpt   string  `json:"excerpt"`
}

// NewCitation builds a citation from a ranked candidate
func NewCitation(c Candidate, excerptRunes int) Citation {
	return Citation{
		ChunkID:   c.ChunkID,
		Filename:  c.Filename,
		PageStart: c.PageStart,
		PageEnd:   c.PageEnd,
		Score:     c.Final,
		Excerpt:   c.Excerpt(excerptRunes),
	}
}

// Answer is the response to a question
type Answer struct {
	Answer     string     `json:"answer"`
	Citations  []Citation `json:"citations"`
	Refusal    *Refusal   `json:"refusal,omitempty"`
	Intent     string     `json:"intent,omitempty"`
	UsedSearch bool       `json:"used_search"`
	Query      string     `json:"query,omitempty"` // Search query after rewriting
}
