package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configName = "pdfqa"
	envPrefix  = "PDFQA"
)

// Config is the root application configuration
type Config struct {
	DataDir   string          `mapstructure:"data_dir" yaml:"data_dir" validate:"required"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Retrieval RetrievalConfig `mapstructure:"retrieval" yaml:"retrieval"`
	Chunking  ChunkingConfig  `mapstructure:"chunking" yaml:"chunking"`
	Embedder  EmbedderConfig  `mapstructure:"embedder" yaml:"embedder"`
	Generator GeneratorConfig `mapstructure:"generator" yaml:"generator"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// StoreConfig selects the persistence backend. An empty Path is derived
// from DataDir.
type StoreConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend" validate:"oneof=file sqlite"`
	Path    string `mapstructure:"path" yaml:"path,omitempty"`
}

// RetrievalConfig holds the scoring weights, pool sizing and evidence threshold
type RetrievalConfig struct {
	TopK             int           `mapstructure:"top_k" yaml:"top_k" validate:"gte=1,lte=100"`
	SemanticMinSim   float64       `mapstructure:"semantic_min_sim" yaml:"semantic_min_sim" validate:"gte=-1,lte=1"`
	WeightSem        float64       `mapstructure:"weight_sem" yaml:"weight_sem" validate:"gte=0,lte=1"`
	WeightKW         float64       `mapstructure:"weight_kw" yaml:"weight_kw" validate:"gte=0,lte=1"`
	PoolMultiplier   int           `mapstructure:"pool_multiplier" yaml:"pool_multiplier" validate:"gte=1"`
	PoolMin          int           `mapstructure:"pool_min" yaml:"pool_min" validate:"gte=1"`
	CoverageWeight   float64       `mapstructure:"coverage_weight" yaml:"coverage_weight" validate:"gte=0,lte=1"`
	SemanticWeight   float64       `mapstructure:"semantic_weight" yaml:"semantic_weight" validate:"gte=0,lte=1"`
	CoherenceBonus   float64       `mapstructure:"coherence_bonus" yaml:"coherence_bonus" validate:"gte=0,lte=1"`
	CoherenceMinHits int           `mapstructure:"coherence_min_hits" yaml:"coherence_min_hits" validate:"gte=1"`
	QueryRewrite     bool          `mapstructure:"query_rewrite" yaml:"query_rewrite"`
	CacheSize        int           `mapstructure:"cache_size" yaml:"cache_size" validate:"gte=0"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl" validate:"gte=0"`
}

// ChunkingConfig controls the character window used to split pages
type ChunkingConfig struct {
	SizeChars    int `mapstructure:"size_chars" yaml:"size_chars" validate:"gte=1"`
	OverlapChars int `mapstructure:"overlap_chars" yaml:"overlap_chars" validate:"gte=0,ltfield=SizeChars"`
}

// EmbedderConfig selects the embedding provider
type EmbedderConfig struct {
	Provider    string `mapstructure:"provider" yaml:"provider" validate:"oneof=mistral openai jina local"`
	Model       string `mapstructure:"model" yaml:"model"`
	APIKey      string `mapstructure:"api_key" yaml:"-"`
	BaseURL     string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	BatchSize   int    `mapstructure:"batch_size" yaml:"batch_size" validate:"gte=1"`
	CacheSize   int    `mapstructure:"cache_size" yaml:"cache_size" validate:"gte=0"`
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency" validate:"gte=1"`
	Dimension   int    `mapstructure:"dimension" yaml:"dimension,omitempty" validate:"gte=0"`
}

// GeneratorConfig selects the answer generator
type GeneratorConfig struct {
	Provider    string  `mapstructure:"provider" yaml:"provider" validate:"oneof=mistral openai extractive"`
	Model       string  `mapstructure:"model" yaml:"model"`
	APIKey      string  `mapstructure:"api_key" yaml:"-"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Temperature float32 `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

var validate = validator.New()

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		DataDir: "data",
		Store:   StoreConfig{Backend: "file"},
		Retrieval: RetrievalConfig{
			TopK:             6,
			SemanticMinSim:   0.25,
			WeightSem:        0.7,
			WeightKW:         0.3,
			PoolMultiplier:   4,
			PoolMin:          20,
			CoverageWeight:   0.10,
			SemanticWeight:   0.05,
			CoherenceBonus:   0.03,
			CoherenceMinHits: 2,
			QueryRewrite:     true,
			CacheSize:        256,
			CacheTTL:         10 * time.Minute,
		},
		Chunking: ChunkingConfig{SizeChars: 1200, OverlapChars: 200},
		Embedder: EmbedderConfig{
			Provider:    "mistral",
			Model:       "mistral-embed",
			BatchSize:   32,
			CacheSize:   10000,
			Concurrency: 4,
		},
		Generator: GeneratorConfig{
			Provider:    "mistral",
			Model:       "mistral-small-latest",
			Temperature: 0.2,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// setDefaults registers every default with v so environment variables can
// override keys that appear in no config file
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.path", "")

	v.SetDefault("retrieval.top_k", d.Retrieval.TopK)
	v.SetDefault("retrieval.semantic_min_sim", d.Retrieval.SemanticMinSim)
	v.SetDefault("retrieval.weight_sem", d.Retrieval.WeightSem)
	v.SetDefault("retrieval.weight_kw", d.Retrieval.WeightKW)
	v.SetDefault("retrieval.pool_multiplier", d.Retrieval.PoolMultiplier)
	v.SetDefault("retrieval.pool_min", d.Retrieval.PoolMin)
	v.SetDefault("retrieval.coverage_weight", d.Retrieval.CoverageWeight)
	v.SetDefault("retrieval.semantic_weight", d.Retrieval.SemanticWeight)
	v.SetDefault("retrieval.coherence_bonus", d.Retrieval.CoherenceBonus)
	v.SetDefault("retrieval.coherence_min_hits", d.Retrieval.CoherenceMinHits)
	v.SetDefault("retrieval.query_rewrite", d.Retrieval.QueryRewrite)
	v.SetDefault("retrieval.cache_size", d.Retrieval.CacheSize)
	v.SetDefault("retrieval.cache_ttl", d.Retrieval.CacheTTL)

	v.SetDefault("chunking.size_chars", d.Chunking.SizeChars)
	v.SetDefault("chunking.overlap_chars", d.Chunking.OverlapChars)

	v.SetDefault("embedder.provider", d.Embedder.Provider)
	v.SetDefault("embedder.model", "")
	v.SetDefault("embedder.api_key", "")
	v.SetDefault("embedder.base_url", "")
	v.SetDefault("embedder.batch_size", d.Embedder.BatchSize)
	v.SetDefault("embedder.cache_size", d.Embedder.CacheSize)
	v.SetDefault("embedder.concurrency", d.Embedder.Concurrency)
	v.SetDefault("embedder.dimension", 0)

	v.SetDefault("generator.provider", d.Generator.Provider)
	v.SetDefault("generator.model", "")
	v.SetDefault("generator.api_key", "")
	v.SetDefault("generator.base_url", "")
	v.SetDefault("generator.temperature", d.Generator.Temperature)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// bindLegacyEnv maps the unprefixed environment names used by earlier
// deployments onto config keys. Provider API keys are not bound here: the
// embedder and generator factories read the variable of the selected provider.
func bindLegacyEnv(v *viper.Viper) error {
	legacy := map[string][]string{
		"data_dir":                   {"DATA_DIR"},
		"embedder.model":             {"EMBED_MODEL"},
		"generator.model":            {"CHAT_MODEL"},
		"retrieval.top_k":            {"TOP_K"},
		"retrieval.semantic_min_sim": {"SEMANTIC_MIN_SIM"},
		"retrieval.weight_sem":       {"HYBRID_WEIGHT_SEM"},
		"retrieval.weight_kw":        {"HYBRID_WEIGHT_KW"},
	}
	for key, names := range legacy {
		// The prefixed name always wins over the legacy one
		envs := append([]string{envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

// Load builds the configuration from defaults, an optional config file,
// a .env file and the environment, in increasing order of precedence.
// An empty path searches ./pdfqa.yaml and $HOME/.config/pdfqa/pdfqa.yaml.
func Load(path string) (*Config, error) {
	// It's okay if the .env file doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDerived fills fields whose defaults depend on other fields
func (c *Config) applyDerived() {
	if c.Store.Path == "" {
		switch c.Store.Backend {
		case "sqlite":
			c.Store.Path = filepath.Join(c.IndexDir(), "pdfqa.db")
		default:
			c.Store.Path = c.IndexDir()
		}
	}
	if c.Embedder.Model == "" {
		c.Embedder.Model = defaultEmbedModel(c.Embedder.Provider)
	}
	if c.Generator.Model == "" {
		c.Generator.Model = defaultChatModel(c.Generator.Provider)
	}
}

// Validate checks field ranges and enums
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IndexDir is where the file store keeps its data
func (c *Config) IndexDir() string {
	return filepath.Join(c.DataDir, "index")
}

// UploadsDir is where ingested PDFs are copied
func (c *Config) UploadsDir() string {
	return filepath.Join(c.DataDir, "uploads")
}

// Save writes cfg as YAML to path, creating directories as needed.
// API keys are never written.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultEmbedModel(provider string) string {
	switch provider {
	case "openai":
		return "text-embedding-3-small"
	case "jina":
		return "jina-embeddings-v3"
	case "local":
		return "local-hash"
	default:
		return "mistral-embed"
	}
}

func defaultChatModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "extractive":
		return ""
	default:
		return "mistral-small-latest"
	}
}
