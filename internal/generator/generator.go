package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dshills/pdfqa-mcp/internal/config"
)

// Common errors
var (
	ErrNoProviderEnabled = errors.New("no generator provider configured")
	ErrUnsupported       = errors.New("unsupported generator provider")
	ErrEmptyCompletion   = errors.New("model returned an empty completion")
)

// Provider names
const (
	ProviderMistral    = "mistral"
	ProviderOpenAI     = "openai"
	ProviderExtractive = "extractive"
)

// InsufficientEvidence is the exact answer text used whenever the evidence
// cannot support an answer
const InsufficientEvidence = "insufficient evidence"

// AnswerRequest carries a question and the numbered evidence for it
type AnswerRequest struct {
	Question  string
	Snippets  []string // Snippet i is cited as [i+1]
	Sensitive bool     // Medical or legal topic; the answer must carry a disclaimer
}

// Generator produces text from retrieved evidence
type Generator interface {
	// Rewrite turns a conversational question into a search query
	Rewrite(ctx context.Context, question string) (string, error)

	// Answer answers from the supplied snippets only
	Answer(ctx context.Context, req AnswerRequest) (string, error)

	// Provider returns the provider name
	Provider() string

	// Model returns the model name
	Model() string
}

// New creates a generator from configuration
func New(cfg config.GeneratorConfig, logger *slog.Logger) (Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		gen Generator
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case ProviderMistral:
		gen, err = NewChatGenerator(ProviderMistral, ChatOptions{
			APIKey:      keyOrEnv(cfg.APIKey, "MISTRAL_API_KEY"),
			BaseURL:     orDefault(cfg.BaseURL, DefaultMistralBaseURL),
			Model:       orDefault(cfg.Model, DefaultMistralModel),
			Temperature: cfg.Temperature,
		})
	case ProviderOpenAI:
		gen, err = NewChatGenerator(ProviderOpenAI, ChatOptions{
			APIKey:      keyOrEnv(cfg.APIKey, "OPENAI_API_KEY"),
			BaseURL:     cfg.BaseURL,
			Model:       orDefault(cfg.Model, DefaultOpenAIModel),
			Temperature: cfg.Temperature,
		})
	case ProviderExtractive:
		gen = NewExtractive()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("generator ready", "provider", gen.Provider(), "model", gen.Model())
	return gen, nil
}

func keyOrEnv(configured, envName string) string {
	if configured != "" {
		return configured
	}
	return os.Getenv(envName)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
