package embedder

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dshills/pdfqa-mcp/internal/config"
)

// Provider-specific API key variables, consulted when the config carries no key
const (
	EnvMistralAPIKey = "MISTRAL_API_KEY"
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvJinaAPIKey    = "JINA_API_KEY"
)

// New creates an embedder from configuration
func New(cfg config.EmbedderConfig, logger *slog.Logger) (Embedder, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(cfg.Provider)
	opts := ProviderOptions{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		Dimension: cfg.Dimension,
	}

	var (
		emb Embedder
		err error
	)
	switch provider {
	case ProviderMistral:
		opts.APIKey = apiKey(opts.APIKey, EnvMistralAPIKey)
		emb, err = NewMistralProvider(opts, cache)
	case ProviderOpenAI:
		opts.APIKey = apiKey(opts.APIKey, EnvOpenAIAPIKey)
		emb, err = NewOpenAIProvider(opts, cache)
	case ProviderJina:
		opts.APIKey = apiKey(opts.APIKey, EnvJinaAPIKey)
		emb, err = NewJinaProvider(opts, cache)
	case ProviderLocal:
		emb, err = NewLocalProvider(cfg.Dimension, cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("embedder ready", "provider", emb.Provider(), "model", emb.Model(), "dimension", emb.Dimension())
	return emb, nil
}

func apiKey(configured, envName string) string {
	if configured != "" {
		return configured
	}
	return os.Getenv(envName)
}
