package generator

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Default chat endpoints and models
const (
	DefaultMistralBaseURL = "https://api.mistral.ai/v1"
	DefaultMistralModel   = "mistral-small-latest"
	DefaultOpenAIModel    = "gpt-4o-mini"

	requestTimeout = 120 * time.Second
)

// ChatOptions configures a chat-completions generator
type ChatOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

// ChatGenerator implements Generator over an OpenAI-compatible
// chat-completions API
type ChatGenerator struct {
	name        string
	client      *openai.Client
	model       string
	temperature float32
}

// NewChatGenerator creates a chat generator. name is reported by Provider.
func NewChatGenerator(name string, opts ChatOptions) (*ChatGenerator, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: %s API key not set", ErrNoProviderEnabled, name)
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("%w: %s model not set", ErrNoProviderEnabled, name)
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: requestTimeout}

	return &ChatGenerator{
		name:        name,
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
	}, nil
}

func (g *ChatGenerator) Rewrite(ctx context.Context, question string) (string, error) {
	out, err := g.complete(ctx, rewriteSystemPrompt, question)
	if err != nil {
		return "", fmt.Errorf("rewrite: %w", err)
	}
	// Models occasionally wrap the query in quotes despite the prompt
	return strings.Trim(out, "\"'` "), nil
}

func (g *ChatGenerator) Answer(ctx context.Context, req AnswerRequest) (string, error) {
	if len(req.Snippets) == 0 {
		return InsufficientEvidence, nil
	}
	out, err := g.complete(ctx, answerSystem(req.Sensitive), answerUser(req))
	if err != nil {
		return "", fmt.Errorf("answer: %w", err)
	}
	return out, nil
}

func (g *ChatGenerator) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", g.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}

func (g *ChatGenerator) Provider() string {
	return g.name
}

func (g *ChatGenerator) Model() string {
	return g.model
}
