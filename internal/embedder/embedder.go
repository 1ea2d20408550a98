package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/pdfqa-mcp/pkg/types"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrProviderFailed    = errors.New("embedding provider failed")
	ErrUnsupportedModel  = errors.New("unsupported model")
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrBatchTooLarge     = errors.New("batch size exceeds limit")
	ErrNoProviderEnabled = errors.New("no embedding provider configured")
)

// defaultCacheLen is used when NewCache is given a non-positive size
const defaultCacheLen = 10000

// Embedding is one vector together with the provider and model that made it
type Embedding struct {
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
	Hash      string // ComputeHash(Model, text)
}

// clone copies e so callers can modify the vector freely
func (e *Embedding) clone() *Embedding {
	out := *e
	out.Vector = append([]float32(nil), e.Vector...)
	return &out
}

// EmbeddingRequest asks for the embedding of one text. An empty Model uses
// the provider's model.
type EmbeddingRequest struct {
	Text  string
	Model string
}

// BatchEmbeddingRequest asks for the embeddings of several texts
type BatchEmbeddingRequest struct {
	Texts []string
	Model string
}

// BatchEmbeddingResponse holds one embedding per requested text, in order
type BatchEmbeddingResponse struct {
	Embeddings []*Embedding
	Provider   string
	Model      string
}

// Embedder turns page text and questions into vectors. Every text embedded
// into one store must go through the same provider and model.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error)

	// GenerateBatch returns embeddings in input order regardless of the
	// order the provider answers in
	GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error)

	// Dimension is the vector width this embedder produces
	Dimension() int
	Provider() string
	Model() string
	Close() error
}

// Cache is an LRU of embeddings keyed by ComputeHash. Providers consult it
// before calling out, so re-ingesting a file only embeds unseen text.
type Cache struct {
	entries *lru.Cache[string, *Embedding]
}

// NewCache creates a cache holding at most maxLen embeddings
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = defaultCacheLen
	}
	// lru.New fails only for a non-positive size
	entries, _ := lru.New[string, *Embedding](maxLen)
	return &Cache{entries: entries}
}

// Get returns a copy of the cached embedding for hash
func (c *Cache) Get(hash string) (*Embedding, bool) {
	emb, ok := c.entries.Get(hash)
	if !ok {
		return nil, false
	}
	return emb.clone(), true
}

func (c *Cache) Set(hash string, emb *Embedding) {
	c.entries.Add(hash, emb)
}

func (c *Cache) Size() int {
	return c.entries.Len()
}

func (c *Cache) Clear() {
	c.entries.Purge()
}

// ComputeHash is the cache key of text embedded by model. A zero byte
// separates the two so ("ab", "c") and ("a", "bc") differ.
func ComputeHash(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// ValidateRequest rejects a request without text
func ValidateRequest(req EmbeddingRequest) error {
	if req.Text == "" {
		return ErrEmptyText
	}
	return nil
}

// ValidateBatchRequest rejects an empty batch or one containing an empty text
func ValidateBatchRequest(req BatchEmbeddingRequest) error {
	if len(req.Texts) == 0 {
		return fmt.Errorf("%w: no texts provided", ErrInvalidInput)
	}
	for i := range req.Texts {
		if req.Texts[i] == "" {
			return fmt.Errorf("%w: text at index %d is empty", ErrInvalidInput, i)
		}
	}
	return nil
}

// ToMatrix stacks embeddings into a matrix, row i holding embeddings[i].
// All vectors must share one width.
func ToMatrix(embeddings []*Embedding) (*types.Matrix, error) {
	rows := make([][]float32, len(embeddings))
	for i, emb := range embeddings {
		if emb == nil {
			return nil, fmt.Errorf("%w: missing embedding at index %d", ErrProviderFailed, i)
		}
		rows[i] = emb.Vector
	}

	m, err := types.NewMatrix(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDimensionMismatch, err)
	}
	return m, nil
}

// NormalizeVector returns v scaled to unit length. A zero vector is
// returned unchanged.
func NormalizeVector(v []float32) []float32 {
	var sq float64
	for _, x := range v {
		sq += float64(x) * float64(x)
	}
	if sq == 0 {
		return v
	}

	inv := 1 / math.Sqrt(sq)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
