package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dshills/pdfqa-mcp/internal/embedder"
	"github.com/dshills/pdfqa-mcp/internal/generator"
	"github.com/dshills/pdfqa-mcp/internal/policy"
	"github.com/dshills/pdfqa-mcp/internal/searcher"
	"github.com/dshills/pdfqa-mcp/internal/storage"
	"github.com/dshills/pdfqa-mcp/pkg/types"
)

// DefaultExcerptRunes bounds the excerpt carried by each citation
const DefaultExcerptRunes = 240

// SmalltalkReply answers greetings without touching the store
const SmalltalkReply = "Hi! Ingest some PDFs, then ask me about them and I will answer with citations."

// Options tunes the question-answering flow
type Options struct {
	QueryRewrite bool // Ask the generator to rewrite questions before retrieval
	ExcerptRunes int  // Citation excerpt length (default: DefaultExcerptRunes)
}

// Service answers questions from the ingested documents
type Service struct {
	store     storage.Store
	searcher  *searcher.Searcher
	embedder  embedder.Embedder
	generator generator.Generator
	opts      Options
	logger    *slog.Logger
}

// New creates a Service. All components must share the same store.
func New(store storage.Store, srch *searcher.Searcher, emb embedder.Embedder, gen generator.Generator, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ExcerptRunes <= 0 {
		opts.ExcerptRunes = DefaultExcerptRunes
	}
	return &Service{
		store:     store,
		searcher:  srch,
		embedder:  emb,
		generator: gen,
		opts:      opts,
		logger:    logger,
	}
}

// Ask answers question. Policy refusals, greetings, an empty store and weak
// evidence all produce an Answer rather than an error; errors are reserved
// for failing dependencies.
func (s *Service) Ask(ctx context.Context, question string) (*types.Answer, error) {
	if refusal := policy.Check(question); refusal != nil {
		s.logger.Info("question refused by policy", "reason", refusal.Reason)
		return refused(string(policy.IntentRefused), false, refusal), nil
	}

	intent := policy.DetectIntent(question)
	if !intent.ShouldSearch() {
		return &types.Answer{Answer: SmalltalkReply, Citations: []types.Citation{}, Intent: string(intent)}, nil
	}

	// Checked before rewriting and embedding so an empty store costs no API calls
	n, err := s.store.ChunkCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	if n == 0 {
		return refused(string(intent), true, &types.Refusal{Kind: types.RefusalNoData, Reason: searcher.NoDataReason}), nil
	}

	query := s.rewrite(ctx, question)

	res, err := s.retrieve(ctx, query, 0)
	if err != nil {
		return nil, err
	}
	if res.Refused() {
		ans := refused(string(intent), true, res.Refusal)
		ans.Query = query
		return ans, nil
	}

	snippets := make([]string, len(res.Candidates))
	for i := range res.Candidates {
		snippets[i] = res.Candidates[i].Text
	}

	text, err := s.generator.Answer(ctx, generator.AnswerRequest{
		Question:  question,
		Snippets:  snippets,
		Sensitive: policy.Sensitive(question),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	citations := make([]types.Citation, len(res.Candidates))
	for i := range res.Candidates {
		citations[i] = types.NewCitation(res.Candidates[i], s.opts.ExcerptRunes)
	}

	s.logger.Info("question answered",
		"intent", intent, "citations", len(citations), "top_final", res.Candidates[0].Final, "cache_hit", res.CacheHit)

	return &types.Answer{
		Answer:     text,
		Citations:  citations,
		Intent:     string(intent),
		UsedSearch: true,
		Query:      query,
	}, nil
}

// Search retrieves the top k chunks for query without policy checks,
// rewriting or answer generation. k <= 0 uses the configured default.
func (s *Service) Search(ctx context.Context, query string, k int) (*types.Retrieval, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, types.ErrEmptyQuery
	}

	n, err := s.store.ChunkCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	if n == 0 {
		return &types.Retrieval{Refusal: &types.Refusal{Kind: types.RefusalNoData, Reason: searcher.NoDataReason}}, nil
	}

	return s.retrieve(ctx, query, k)
}

// rewrite returns the search query for question, falling back to the
// question itself when rewriting is off or fails
func (s *Service) rewrite(ctx context.Context, question string) string {
	if !s.opts.QueryRewrite {
		return question
	}

	rewritten, err := s.generator.Rewrite(ctx, question)
	if err != nil {
		s.logger.Warn("query rewrite failed, using original question", "error", err)
		return question
	}
	if strings.TrimSpace(rewritten) == "" {
		return question
	}

	s.logger.Debug("query rewritten", "question", question, "query", rewritten)
	return rewritten
}

func (s *Service) retrieve(ctx context.Context, query string, k int) (*types.Retrieval, error) {
	emb, err := s.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	res, err := s.searcher.Retrieve(ctx, query, emb.Vector, k)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	return res, nil
}

func refused(intent string, usedSearch bool, refusal *types.Refusal) *types.Answer {
	return &types.Answer{
		Answer:     generator.InsufficientEvidence,
		Citations:  []types.Citation{},
		Refusal:    refusal,
		Intent:     intent,
		UsedSearch: usedSearch,
	}
}
