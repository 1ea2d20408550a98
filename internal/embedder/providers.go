package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dshills/pdfqa-mcp/internal/lexical"
)

// Provider configuration
const (
	ProviderMistral = "mistral"
	ProviderOpenAI  = "openai"
	ProviderJina    = "jina"
	ProviderLocal   = "local"

	// Default endpoints
	DefaultMistralBaseURL = "https://api.mistral.ai/v1"
	DefaultJinaBaseURL    = "https://api.jina.ai/v1"

	// Default models
	DefaultMistralModel = "mistral-embed"
	DefaultOpenAIModel  = "text-embedding-3-small"
	DefaultJinaModel    = "jina-embeddings-v3"
	DefaultLocalModel   = "local-hash"

	// Dimensions
	MistralDimension     = 1024
	OpenAIDimension      = 1536
	OpenAILargeDimension = 3072
	JinaDimension        = 1024
	LocalDimension       = 384

	// Batch limits
	DefaultBatchSize = 32
	MaxBatchSize     = 100

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0

	requestTimeout = 60 * time.Second
)

// ProviderOptions configures a remote provider
type ProviderOptions struct {
	APIKey    string
	BaseURL   string // Empty uses the provider's public endpoint
	Model     string // Empty uses the provider's default model
	Dimension int    // 0 uses the model's known dimension
}

// embedCached serves texts from cache where possible and calls fetch for the
// rest, preserving input order
func embedCached(ctx context.Context, cache *Cache, model string, texts []string,
	fetch func(ctx context.Context, texts []string) ([]*Embedding, error)) ([]*Embedding, error) {

	out := make([]*Embedding, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if cache != nil {
			if emb, ok := cache.Get(ComputeHash(model, text)); ok {
				out[i] = emb
				continue
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := fetch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(fetched) != len(missing) {
		return nil, fmt.Errorf("%w: requested %d embeddings, got %d", ErrProviderFailed, len(missing), len(fetched))
	}

	for j, emb := range fetched {
		hash := ComputeHash(model, missing[j])
		emb.Hash = hash
		if cache != nil {
			cache.Set(hash, emb)
		}
		out[missingIdx[j]] = emb
	}

	return out, nil
}

// OpenAIProvider implements Embedder for OpenAI and OpenAI-compatible APIs
// such as Mistral
type OpenAIProvider struct {
	name      string
	client    *openai.Client
	model     string
	dimension int
	cache     *Cache
}

// NewOpenAIProvider creates an embedder backed by the OpenAI embeddings API
func NewOpenAIProvider(opts ProviderOptions, cache *Cache) (*OpenAIProvider, error) {
	if opts.Model == "" {
		opts.Model = DefaultOpenAIModel
	}
	if opts.Dimension == 0 {
		opts.Dimension = OpenAIDimension
		if opts.Model == "text-embedding-3-large" {
			opts.Dimension = OpenAILargeDimension
		}
	}
	return newOpenAICompatible(ProviderOpenAI, opts, cache)
}

// NewMistralProvider creates an embedder backed by Mistral's
// OpenAI-compatible embeddings endpoint
func NewMistralProvider(opts ProviderOptions, cache *Cache) (*OpenAIProvider, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultMistralBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultMistralModel
	}
	if opts.Dimension == 0 {
		opts.Dimension = MistralDimension
	}
	return newOpenAICompatible(ProviderMistral, opts, cache)
}

func newOpenAICompatible(name string, opts ProviderOptions, cache *Cache) (*OpenAIProvider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: %s API key not set", ErrNoProviderEnabled, name)
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: requestTimeout}

	return &OpenAIProvider{
		name:      name,
		client:    openai.NewClientWithConfig(cfg),
		model:     opts.Model,
		dimension: opts.Dimension,
		cache:     cache,
	}, nil
}

func (o *OpenAIProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	resp, err := o.GenerateBatch(ctx, BatchEmbeddingRequest{
		Texts: []string{req.Text},
		Model: req.Model,
	})
	if err != nil {
		return nil, err
	}

	return resp.Embeddings[0], nil
}

func (o *OpenAIProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	if len(req.Texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}

	model := req.Model
	if model == "" {
		model = o.model
	}

	embeddings, err := embedCached(ctx, o.cache, model, req.Texts, func(ctx context.Context, texts []string) ([]*Embedding, error) {
		config := DefaultRetryConfig()
		embs, err := retryWithBackoff(ctx, config, func() ([]*Embedding, error) {
			return o.callAPI(ctx, texts, model)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrProviderFailed, o.name, err)
		}
		return embs, nil
	})
	if err != nil {
		return nil, err
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   o.name,
		Model:      model,
	}, nil
}

func (o *OpenAIProvider) callAPI(ctx context.Context, texts []string, model string) ([]*Embedding, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("requested %d embeddings, got %d", len(texts), len(resp.Data))
	}

	// The API reports an index per item; order by it rather than trusting the array order
	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	embeddings := make([]*Embedding, len(data))
	for i, d := range data {
		vector := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vector[j] = float32(v)
		}
		embeddings[i] = &Embedding{
			Vector:    vector,
			Dimension: len(vector),
			Provider:  o.name,
			Model:     model,
		}
	}

	return embeddings, nil
}

func (o *OpenAIProvider) Dimension() int {
	return o.dimension
}

func (o *OpenAIProvider) Provider() string {
	return o.name
}

func (o *OpenAIProvider) Model() string {
	return o.model
}

func (o *OpenAIProvider) Close() error {
	return nil
}

// JinaProvider implements Embedder using Jina AI API
type JinaProvider struct {
	apiKey     string
	baseURL    string
	model      string
	dimension  int
	httpClient *http.Client
	cache      *Cache
}

// NewJinaProvider creates a new Jina AI embedder
func NewJinaProvider(opts ProviderOptions, cache *Cache) (*JinaProvider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: jina API key not set", ErrNoProviderEnabled)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultJinaBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultJinaModel
	}
	if opts.Dimension == 0 {
		opts.Dimension = JinaDimension
	}

	return &JinaProvider{
		apiKey:    opts.APIKey,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		model:     opts.Model,
		dimension: opts.Dimension,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		cache: cache,
	}, nil
}

func (j *JinaProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	resp, err := j.GenerateBatch(ctx, BatchEmbeddingRequest{
		Texts: []string{req.Text},
		Model: req.Model,
	})
	if err != nil {
		return nil, err
	}

	return resp.Embeddings[0], nil
}

func (j *JinaProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	if len(req.Texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}

	model := req.Model
	if model == "" {
		model = j.model
	}

	embeddings, err := embedCached(ctx, j.cache, model, req.Texts, func(ctx context.Context, texts []string) ([]*Embedding, error) {
		config := DefaultRetryConfig()
		embs, err := retryWithBackoff(ctx, config, func() ([]*Embedding, error) {
			return j.callAPI(ctx, texts, model)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: jina: %v", ErrProviderFailed, err)
		}
		return embs, nil
	})
	if err != nil {
		return nil, err
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   ProviderJina,
		Model:      model,
	}, nil
}

func (j *JinaProvider) callAPI(ctx context.Context, texts []string, model string) ([]*Embedding, error) {
	reqBody := map[string]interface{}{
		"input": texts,
		"model": model,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, permanent(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+j.apiKey)

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, classifyStatus(resp.StatusCode, fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes)))
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
		Model string `json:"model"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(apiResp.Data) != len(texts) {
		return nil, fmt.Errorf("requested %d embeddings, got %d", len(texts), len(apiResp.Data))
	}

	embeddings := make([]*Embedding, len(apiResp.Data))
	for _, data := range apiResp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		embeddings[data.Index] = &Embedding{
			Vector:    data.Embedding,
			Dimension: len(data.Embedding),
			Provider:  ProviderJina,
			Model:     model,
		}
	}
	for i, emb := range embeddings {
		if emb == nil {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
	}

	return embeddings, nil
}

func (j *JinaProvider) Dimension() int {
	return j.dimension
}

func (j *JinaProvider) Provider() string {
	return ProviderJina
}

func (j *JinaProvider) Model() string {
	return j.model
}

func (j *JinaProvider) Close() error {
	j.httpClient.CloseIdleConnections()
	return nil
}

// LocalProvider is an offline embedder that hashes case-folded tokens into
// a fixed number of buckets. Texts sharing words get similar vectors, which
// is enough for tests and air-gapped demos.
type LocalProvider struct {
	model     string
	dimension int
	cache     *Cache
}

// NewLocalProvider creates a new local embedder. dimension 0 uses LocalDimension.
func NewLocalProvider(dimension int, cache *Cache) (*LocalProvider, error) {
	if dimension < 0 {
		return nil, fmt.Errorf("%w: negative dimension %d", ErrInvalidInput, dimension)
	}
	if dimension == 0 {
		dimension = LocalDimension
	}
	return &LocalProvider{
		model:     DefaultLocalModel,
		dimension: dimension,
		cache:     cache,
	}, nil
}

func (l *LocalProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := ComputeHash(l.model, req.Text)
	if l.cache != nil {
		if emb, ok := l.cache.Get(hash); ok {
			return emb, nil
		}
	}

	emb := &Embedding{
		Vector:    l.vectorize(req.Text),
		Dimension: l.dimension,
		Provider:  ProviderLocal,
		Model:     l.model,
		Hash:      hash,
	}

	if l.cache != nil {
		l.cache.Set(hash, emb)
	}

	return emb, nil
}

// vectorize builds a unit-length bag-of-words vector. Text without tokens
// maps to the zero vector.
func (l *LocalProvider) vectorize(text string) []float32 {
	vector := make([]float32, l.dimension)
	for _, token := range lexical.Tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum32()

		sign := float32(1)
		if sum&1 == 1 {
			sign = -1
		}
		vector[int((sum>>1)%uint32(l.dimension))] += sign
	}
	return NormalizeVector(vector)
}

func (l *LocalProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := l.GenerateEmbedding(ctx, EmbeddingRequest{Text: text, Model: req.Model})
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   ProviderLocal,
		Model:      l.model,
	}, nil
}

func (l *LocalProvider) Dimension() int {
	return l.dimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Model() string {
	return l.model
}

func (l *LocalProvider) Close() error {
	return nil
}
