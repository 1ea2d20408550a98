package searcher

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/pdfqa-mcp/internal/config"
	"github.com/dshills/pdfqa-mcp/internal/lexical"
	"github.com/dshills/pdfqa-mcp/internal/storage"
	"github.com/dshills/pdfqa-mcp/pkg/types"
)

// Default request limits
const (
	DefaultTopK = 6
	MaxTopK     = 100
)

// Options tunes retrieval. The zero value is not usable; start from
// DefaultOptions or OptionsFromConfig.
type Options struct {
	TopK           int
	WeightSem      float64
	WeightKW       float64
	PoolMultiplier int
	PoolMin        int
	Rerank         RerankWeights
	MinSimilarity  float64
	CacheSize      int // 0 disables the retrieval cache
	CacheTTL       time.Duration
}

// DefaultOptions returns the reference tuning
func DefaultOptions() Options {
	return Options{
		TopK:           DefaultTopK,
		WeightSem:      0.7,
		WeightKW:       0.3,
		PoolMultiplier: DefaultPoolMultiplier,
		PoolMin:        DefaultPoolMin,
		Rerank:         DefaultRerankWeights(),
		MinSimilarity:  DefaultMinSimilarity,
		CacheSize:      256,
		CacheTTL:       10 * time.Minute,
	}
}

// OptionsFromConfig maps the retrieval configuration onto Options
func OptionsFromConfig(cfg config.RetrievalConfig) Options {
	return Options{
		TopK:           cfg.TopK,
		WeightSem:      cfg.WeightSem,
		WeightKW:       cfg.WeightKW,
		PoolMultiplier: cfg.PoolMultiplier,
		PoolMin:        cfg.PoolMin,
		Rerank: RerankWeights{
			Coverage:         cfg.CoverageWeight,
			Semantic:         cfg.SemanticWeight,
			CoherenceBonus:   cfg.CoherenceBonus,
			CoherenceMinHits: cfg.CoherenceMinHits,
		},
		MinSimilarity: cfg.SemanticMinSim,
		CacheSize:     cfg.CacheSize,
		CacheTTL:      cfg.CacheTTL,
	}
}

// Rank scores one loaded snapshot of the store against a query and returns
// the top k reranked candidates, or a refusal. It performs no I/O.
func Rank(chunks []types.Chunk, m *types.Matrix, queryText string, queryVec []float32, k int, opts Options) (*types.Retrieval, error) {
	if len(chunks) == 0 {
		return &types.Retrieval{Refusal: NoData()}, nil
	}
	if len(chunks) != m.Rows {
		return nil, fmt.Errorf("%w: %d chunks, %d embedding rows", types.ErrRowCountMismatch, len(chunks), m.Rows)
	}
	if len(queryVec) != m.Cols {
		return nil, fmt.Errorf("%w: query has %d dimensions, store has %d", types.ErrDimensionMismatch, len(queryVec), m.Cols)
	}

	// Semantic and lexical scoring are independent passes over the same snapshot
	sem := CosineSimilarity(queryVec, m)

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	kw := lexical.Score(texts, queryText)

	hybrid := Fuse(sem, kw, opts.WeightSem, opts.WeightKW)

	candidates := make([]types.Candidate, len(chunks))
	for i := range chunks {
		candidates[i] = types.Candidate{
			Chunk:  chunks[i],
			Sem:    sem[i],
			KW:     kw[i],
			Hybrid: hybrid[i],
		}
	}

	pool := SelectPool(candidates, PoolSize(k, opts.PoolMultiplier, opts.PoolMin))
	ranked := Rerank(pool, lexical.Tokenize(queryText), opts.Rerank)
	if k < len(ranked) {
		ranked = ranked[:k]
	}

	res := &types.Retrieval{PoolSize: len(pool)}
	gate := Gate{MinSimilarity: opts.MinSimilarity}
	if refusal := gate.Check(ranked); refusal != nil {
		res.Refusal = refusal
		return res, nil
	}

	res.Candidates = ranked
	return res, nil
}

// cacheEntry represents a cached retrieval with expiration time
type cacheEntry struct {
	retrieval *types.Retrieval
	expiresAt time.Time
}

// Searcher answers retrieval requests against a Store
type Searcher struct {
	store   storage.Store
	opts    Options
	logger  *slog.Logger
	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex

	// generation is bumped by InvalidateCache; results loaded under an
	// older generation are never cached
	generation atomic.Uint64
}

// New creates a Searcher. A nil logger uses slog.Default().
func New(store storage.Store, opts Options, logger *slog.Logger) (*Searcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Searcher{store: store, opts: opts, logger: logger}

	if opts.CacheSize > 0 {
		cache, err := lru.New[[32]byte, *cacheEntry](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create retrieval cache: %w", err)
		}
		s.cache = cache
	}

	return s, nil
}

// Options returns the searcher's tuning
func (s *Searcher) Options() Options {
	return s.opts
}

// Retrieve loads the store and ranks it against the query. k <= 0 uses the
// configured TopK. An empty store is refused before any scoring.
func (s *Searcher) Retrieve(ctx context.Context, queryText string, queryVec []float32, k int) (*types.Retrieval, error) {
	start := time.Now()
	k = s.clampK(k)

	key := computeQueryHash(queryText, queryVec, k)
	if cached := s.checkCache(key); cached != nil {
		cached.CacheHit = true
		cached.Duration = time.Since(start)
		return cached, nil
	}

	gen := s.generation.Load()
	chunks, m, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	res, err := Rank(chunks, m, queryText, queryVec, k, s.opts)
	if err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)

	if res.Refused() {
		s.logger.Debug("retrieval refused", "kind", res.Refusal.Kind, "reason", res.Refusal.Reason)
	} else {
		s.logger.Debug("retrieval complete",
			"chunks", len(chunks), "pool", res.PoolSize, "results", len(res.Candidates),
			"top_final", res.Candidates[0].Final, "duration", res.Duration)
	}

	// An empty store is not cached so the first ingest is seen immediately
	if !(res.Refused() && res.Refusal.Kind == types.RefusalNoData) {
		s.storeInCache(key, res, gen)
	}

	return res, nil
}

// InvalidateCache drops every cached retrieval. Call it after the store changes.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.generation.Add(1)
	if s.cache != nil {
		s.cache.Purge()
	}
}

// CacheLen returns the number of cached retrievals
func (s *Searcher) CacheLen() int {
	if s.cache == nil {
		return 0
	}
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cache.Len()
}

func (s *Searcher) clampK(k int) int {
	if k <= 0 {
		k = s.opts.TopK
	}
	if k <= 0 {
		k = DefaultTopK
	}
	if k > MaxTopK {
		k = MaxTopK
	}
	return k
}

// checkCache returns a copy of a live cached retrieval, or nil
func (s *Searcher) checkCache(key [32]byte) *types.Retrieval {
	if s.cache == nil {
		return nil
	}

	s.cacheMu.RLock()
	entry, found := s.cache.Get(key)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}

	if s.opts.CacheTTL > 0 && time.Now().After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		s.cacheMu.Lock()
		s.cache.Remove(key)
		s.cacheMu.Unlock()
		return nil
	}

	res := copyRetrieval(entry.retrieval)
	s.cacheMu.RUnlock()

	return res
}

// storeInCache caches res unless the cache was invalidated after the
// snapshot it was ranked from had been requested
func (s *Searcher) storeInCache(key [32]byte, res *types.Retrieval, gen uint64) {
	if s.cache == nil {
		return
	}

	entry := &cacheEntry{
		retrieval: copyRetrieval(res),
		expiresAt: time.Now().Add(s.opts.CacheTTL),
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.generation.Load() != gen {
		return
	}
	s.cache.Add(key, entry)
}

// copyRetrieval copies the candidate slice and refusal so cached values
// cannot be modified through returned results. Chunk page pointers are
// shared; chunks are immutable.
func copyRetrieval(src *types.Retrieval) *types.Retrieval {
	dst := *src
	if src.Candidates != nil {
		dst.Candidates = make([]types.Candidate, len(src.Candidates))
		copy(dst.Candidates, src.Candidates)
	}
	if src.Refusal != nil {
		refusal := *src.Refusal
		dst.Refusal = &refusal
	}
	return &dst
}

// computeQueryHash computes a unique hash for a retrieval request
func computeQueryHash(queryText string, queryVec []float32, k int) [32]byte {
	h := sha256.New()

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(queryText)))
	h.Write(buf[:])
	h.Write([]byte(queryText))

	binary.LittleEndian.PutUint64(buf[:], uint64(k))
	h.Write(buf[:])

	for _, v := range queryVec {
		binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(v))
		h.Write(buf[:4])
	}

	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}
