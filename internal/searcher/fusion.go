package searcher

import (
	"sort"

	"github.com/dshills/pdfqa-mcp/pkg/types"
)

// degenerateRange is the spread below which scores carry no signal
const degenerateRange = 1e-9

// Default pool sizing
const (
	DefaultPoolMultiplier = 4
	DefaultPoolMin        = 20
)

// Normalize min-max scales scores into [0,1]. When every value lies within
// degenerateRange of the others, all outputs are 0.
func Normalize(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}

	spread := hi - lo
	if spread < degenerateRange {
		return out
	}

	for i, s := range scores {
		out[i] = (s - lo) / spread
	}
	return out
}

// Fuse normalizes both score families independently and returns their
// weighted sum. Weights are applied as given, without renormalization.
func Fuse(sem, kw []float64, weightSem, weightKW float64) []float64 {
	ns := Normalize(sem)
	nk := Normalize(kw)

	out := make([]float64, len(ns))
	for i := range ns {
		out[i] = weightSem*ns[i] + weightKW*nk[i]
	}
	return out
}

// PoolSize returns max(multiplier*k, floor)
func PoolSize(k, multiplier, floor int) int {
	if size := multiplier * k; size > floor {
		return size
	}
	return floor
}

// SelectPool orders candidates by hybrid score, highest first, and keeps at
// most size of them. Equal scores keep their input order.
func SelectPool(candidates []types.Candidate, size int) []types.Candidate {
	pool := make([]types.Candidate, len(candidates))
	copy(pool, candidates)

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Hybrid > pool[j].Hybrid
	})

	if size < len(pool) {
		pool = pool[:size]
	}
	return pool
}
