package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeddingServer emulates the /embeddings endpoint shared by OpenAI,
// Mistral and Jina. Each returned vector is [index, len(text)]. The first
// failures requests answer with failStatus.
type embeddingServer struct {
	*httptest.Server
	calls      atomic.Int32
	texts      atomic.Int32
	failures   int32
	failStatus int
	reverse    bool
}

func newEmbeddingServer(t *testing.T) *embeddingServer {
	t.Helper()
	es := &embeddingServer{failStatus: http.StatusInternalServerError}
	es.Server = httptest.NewServer(http.HandlerFunc(es.handle))
	t.Cleanup(es.Close)
	return es
}

func (es *embeddingServer) handle(w http.ResponseWriter, r *http.Request) {
	n := es.calls.Add(1)

	if r.URL.Path != "/v1/embeddings" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if r.Header.Get("Authorization") != "Bearer test-key" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"auth"}}`))
		return
	}
	if n <= es.failures {
		w.WriteHeader(es.failStatus)
		_, _ = w.Write([]byte(`{"error":{"message":"try again","type":"server"}}`))
		return
	}

	var req struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	es.texts.Add(int32(len(req.Input)))

	data := make([]map[string]interface{}, len(req.Input))
	for i, text := range req.Input {
		data[i] = map[string]interface{}{
			"object":    "embedding",
			"index":     i,
			"embedding": []float32{float32(i), float32(len(text))},
		}
	}
	if es.reverse {
		for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
			data[i], data[j] = data[j], data[i]
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"object": "list",
		"model":  req.Model,
		"data":   data,
		"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
	})
}

func (es *embeddingServer) opts() ProviderOptions {
	return ProviderOptions{APIKey: "test-key", BaseURL: es.URL + "/v1"}
}

// remoteProviders builds every remote provider against the same test server
func remoteProviders(t *testing.T, es *embeddingServer, cache *Cache) map[string]Embedder {
	t.Helper()

	mistral, err := NewMistralProvider(es.opts(), cache)
	require.NoError(t, err)
	openaiProvider, err := NewOpenAIProvider(es.opts(), cache)
	require.NoError(t, err)
	jina, err := NewJinaProvider(es.opts(), cache)
	require.NoError(t, err)

	return map[string]Embedder{
		ProviderMistral: mistral,
		ProviderOpenAI:  openaiProvider,
		ProviderJina:    jina,
	}
}

func TestRemoteProviders_Batch(t *testing.T) {
	es := newEmbeddingServer(t)

	for name, provider := range remoteProviders(t, es, nil) {
		t.Run(name, func(t *testing.T) {
			resp, err := provider.GenerateBatch(context.Background(), BatchEmbeddingRequest{
				Texts: []string{"a", "bb", "ccc"},
			})
			require.NoError(t, err)
			require.Len(t, resp.Embeddings, 3)
			assert.Equal(t, name, resp.Provider)

			for i, emb := range resp.Embeddings {
				assert.Equal(t, []float32{float32(i), float32(i + 1)}, emb.Vector)
				assert.Equal(t, 2, emb.Dimension)
				assert.NotEmpty(t, emb.Hash)
			}
		})
	}
}

func TestRemoteProviders_OrderByIndex(t *testing.T) {
	es := newEmbeddingServer(t)
	es.reverse = true

	for name, provider := range remoteProviders(t, es, nil) {
		t.Run(name, func(t *testing.T) {
			resp, err := provider.GenerateBatch(context.Background(), BatchEmbeddingRequest{
				Texts: []string{"a", "bb", "ccc"},
			})
			require.NoError(t, err)
			for i, emb := range resp.Embeddings {
				assert.Equal(t, float32(i+1), emb.Vector[1], "embedding %d out of order", i)
			}
		})
	}
}

func TestRemoteProviders_Single(t *testing.T) {
	es := newEmbeddingServer(t)

	for name, provider := range remoteProviders(t, es, nil) {
		t.Run(name, func(t *testing.T) {
			emb, err := provider.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "four"})
			require.NoError(t, err)
			assert.Equal(t, []float32{0, 4}, emb.Vector)
		})
	}
}

func TestRemoteProviders_CacheSkipsKnownTexts(t *testing.T) {
	es := newEmbeddingServer(t)

	for name, provider := range remoteProviders(t, es, NewCache(100)) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			before := es.texts.Load()

			_, err := provider.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{name + "-x", name + "-y"}})
			require.NoError(t, err)
			assert.Equal(t, before+2, es.texts.Load())

			resp, err := provider.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{name + "-x", name + "-zz", name + "-y"}})
			require.NoError(t, err)
			assert.Equal(t, before+3, es.texts.Load(), "only the new text should be sent")

			require.Len(t, resp.Embeddings, 3)
			assert.Equal(t, float32(len(name)+3), resp.Embeddings[1].Vector[1])
			assert.Equal(t, float32(len(name)+2), resp.Embeddings[2].Vector[1])
		})
	}
}

func TestRemoteProviders_RetryTransient(t *testing.T) {
	es := newEmbeddingServer(t)
	es.failures = 2

	provider, err := NewJinaProvider(es.opts(), nil)
	require.NoError(t, err)

	resp, err := provider.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: []string{"x"}})
	require.NoError(t, err)
	assert.Len(t, resp.Embeddings, 1)
	assert.Equal(t, int32(3), es.calls.Load())
}

func TestRemoteProviders_RetryTransientOpenAI(t *testing.T) {
	es := newEmbeddingServer(t)
	es.failures = 1
	es.failStatus = http.StatusTooManyRequests

	provider, err := NewMistralProvider(es.opts(), nil)
	require.NoError(t, err)

	_, err = provider.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, int32(2), es.calls.Load())
}

func TestRemoteProviders_NoRetryOnAuthError(t *testing.T) {
	es := newEmbeddingServer(t)
	opts := es.opts()
	opts.APIKey = "wrong-key"

	mistral, err := NewMistralProvider(opts, nil)
	require.NoError(t, err)
	jina, err := NewJinaProvider(opts, nil)
	require.NoError(t, err)

	for name, provider := range map[string]Embedder{ProviderMistral: mistral, ProviderJina: jina} {
		t.Run(name, func(t *testing.T) {
			before := es.calls.Load()
			_, err := provider.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: []string{"x"}})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrProviderFailed))
			assert.Equal(t, before+1, es.calls.Load(), "auth failures should not be retried")
		})
	}
}

func TestRemoteProviders_ExhaustedRetries(t *testing.T) {
	es := newEmbeddingServer(t)
	es.failures = 100

	provider, err := NewOpenAIProvider(es.opts(), nil)
	require.NoError(t, err)

	_, err = provider.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: []string{"x"}})
	assert.ErrorIs(t, err, ErrProviderFailed)
	assert.Equal(t, int32(MaxRetries), es.calls.Load())
}

func TestRemoteProviders_Validation(t *testing.T) {
	es := newEmbeddingServer(t)

	for name, provider := range remoteProviders(t, es, nil) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: ""})
			assert.ErrorIs(t, err, ErrEmptyText)

			_, err = provider.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{}})
			assert.ErrorIs(t, err, ErrInvalidInput)

			large := make([]string, MaxBatchSize+1)
			for i := range large {
				large[i] = "text"
			}
			_, err = provider.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: large})
			assert.ErrorIs(t, err, ErrBatchTooLarge)
		})
	}
	assert.Zero(t, es.calls.Load(), "invalid requests should never reach the API")
}

func TestProviderDefaults(t *testing.T) {
	tests := []struct {
		name      string
		build     func() (Embedder, error)
		provider  string
		model     string
		dimension int
	}{
		{
			name:      "mistral",
			build:     func() (Embedder, error) { return NewMistralProvider(ProviderOptions{APIKey: "k"}, nil) },
			provider:  ProviderMistral,
			model:     DefaultMistralModel,
			dimension: MistralDimension,
		},
		{
			name:      "openai",
			build:     func() (Embedder, error) { return NewOpenAIProvider(ProviderOptions{APIKey: "k"}, nil) },
			provider:  ProviderOpenAI,
			model:     DefaultOpenAIModel,
			dimension: OpenAIDimension,
		},
		{
			name: "openai large",
			build: func() (Embedder, error) {
				return NewOpenAIProvider(ProviderOptions{APIKey: "k", Model: "text-embedding-3-large"}, nil)
			},
			provider:  ProviderOpenAI,
			model:     "text-embedding-3-large",
			dimension: OpenAILargeDimension,
		},
		{
			name:      "jina",
			build:     func() (Embedder, error) { return NewJinaProvider(ProviderOptions{APIKey: "k"}, nil) },
			provider:  ProviderJina,
			model:     DefaultJinaModel,
			dimension: JinaDimension,
		},
		{
			name:      "local",
			build:     func() (Embedder, error) { return NewLocalProvider(0, nil) },
			provider:  ProviderLocal,
			model:     DefaultLocalModel,
			dimension: LocalDimension,
		},
		{
			name: "explicit dimension",
			build: func() (Embedder, error) {
				return NewMistralProvider(ProviderOptions{APIKey: "k", Dimension: 256}, nil)
			},
			provider:  ProviderMistral,
			model:     DefaultMistralModel,
			dimension: 256,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb, err := tt.build()
			require.NoError(t, err)
			defer emb.Close()

			assert.Equal(t, tt.provider, emb.Provider())
			assert.Equal(t, tt.model, emb.Model())
			assert.Equal(t, tt.dimension, emb.Dimension())
		})
	}
}

func TestProviders_MissingAPIKey(t *testing.T) {
	_, err := NewMistralProvider(ProviderOptions{}, nil)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)

	_, err = NewOpenAIProvider(ProviderOptions{}, nil)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)

	_, err = NewJinaProvider(ProviderOptions{}, nil)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}
