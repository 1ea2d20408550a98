package searcher

import (
	"fmt"

	"github.com/dshills/pdfqa-mcp/pkg/types"
)

// DefaultMinSimilarity is the reference evidence threshold
const DefaultMinSimilarity = 0.25

// NoDataReason is the refusal text for an empty store
const NoDataReason = "No PDFs ingested yet."

// Gate decides whether ranked results carry enough evidence to answer.
// Only the semantic similarity of the best candidate counts; lexical
// overlap alone never passes.
type Gate struct {
	MinSimilarity float64
}

// Check returns a refusal when ranked is empty or its first candidate's
// semantic similarity is below the threshold, and nil otherwise
func (g Gate) Check(ranked []types.Candidate) *types.Refusal {
	if len(ranked) == 0 {
		return NoData()
	}

	top := ranked[0].Sem
	if top < g.MinSimilarity {
		return &types.Refusal{
			Kind:          types.RefusalInsufficientEvidence,
			Reason:        fmt.Sprintf("Top similarity %.3f below threshold %.3f.", top, g.MinSimilarity),
			TopSimilarity: top,
			Threshold:     g.MinSimilarity,
		}
	}

	return nil
}

// NoData returns the refusal for an empty store
func NoData() *types.Refusal {
	return &types.Refusal{Kind: types.RefusalNoData, Reason: NoDataReason}
}
