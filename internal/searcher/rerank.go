package searcher

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/dshills/pdfqa-mcp/internal/lexical"
	"github.com/dshills/pdfqa-mcp/pkg/types"
)

// RerankWeights are the heuristic bonuses applied on top of the hybrid score
type RerankWeights struct {
	Coverage         float64 // Scale for the fraction of distinct query tokens present
	Semantic         float64 // Scale for the raw cosine similarity
	CoherenceBonus   float64 // Flat bonus for chunks whose file recurs in the pool
	CoherenceMinHits int     // How many pool hits a file needs to earn the bonus
}

// DefaultRerankWeights returns the reference tuning
func DefaultRerankWeights() RerankWeights {
	return RerankWeights{
		Coverage:         0.10,
		Semantic:         0.05,
		CoherenceBonus:   0.03,
		CoherenceMinHits: 2,
	}
}

// Coverage returns the fraction of distinct query tokens that occur as
// substrings of the case-folded text
func Coverage(text string, distinctTokens []string) float64 {
	if len(distinctTokens) == 0 {
		return 0
	}

	folded := cases.Fold().String(text)

	hits := 0
	for _, t := range distinctTokens {
		if strings.Contains(folded, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(distinctTokens))
}

// Rerank computes
//
//	final = hybrid + w.Coverage×coverage + w.Semantic×sem [+ w.CoherenceBonus]
//
// for each pool candidate and returns the pool sorted by final score,
// highest first. The coherence bonus applies to every candidate whose file
// appears at least w.CoherenceMinHits times in the pool. The sort is stable,
// so exact ties keep their hybrid order.
func Rerank(pool []types.Candidate, queryTokens []string, w RerankWeights) []types.Candidate {
	distinct := lexical.Distinct(queryTokens)

	fileHits := make(map[string]int, len(pool))
	for _, c := range pool {
		fileHits[c.Filename]++
	}

	out := make([]types.Candidate, len(pool))
	for i, c := range pool {
		c.Final = c.Hybrid + w.Coverage*Coverage(c.Text, distinct) + w.Semantic*c.Sem
		if fileHits[c.Filename] >= w.CoherenceMinHits {
			c.Final += w.CoherenceBonus
		}
		out[i] = c
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Final > out[j].Final
	})

	return out
}
