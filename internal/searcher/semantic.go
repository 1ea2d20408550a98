package searcher

import (
	"math"

	"github.com/dshills/pdfqa-mcp/pkg/types"
)

// normEpsilon is added to every L2 norm so zero vectors score 0 instead of NaN
const normEpsilon = 1e-9

// CosineSimilarity returns the cosine similarity between query and every row
// of m. The query and each row are L2-normalized independently with
// normEpsilon added to each norm. A matrix with no rows yields an empty
// slice. The caller must ensure len(query) == m.Cols.
func CosineSimilarity(query []float32, m *types.Matrix) []float64 {
	if m == nil || m.Rows == 0 {
		return []float64{}
	}

	qNorm := l2Norm(query) + normEpsilon

	scores := make([]float64, m.Rows)
	for i := 0; i < m.Rows; i++ {
		row := m.Row(i)

		var dot, sumSq float64
		for j, v := range row {
			fv := float64(v)
			dot += float64(query[j]) * fv
			sumSq += fv * fv
		}

		scores[i] = dot / (qNorm * (math.Sqrt(sumSq) + normEpsilon))
	}

	return scores
}

func l2Norm(v []float32) float64 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	return math.Sqrt(sumSq)
}
