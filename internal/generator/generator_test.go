package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/pdfqa-mcp/internal/config"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatServer answers every completion with reply and records the last request
type chatServer struct {
	*httptest.Server
	reply    string
	status   int
	model    string
	auth     string
	messages []chatMessage
}

func newChatServer(t *testing.T, reply string) *chatServer {
	t.Helper()
	cs := &chatServer{reply: reply, status: http.StatusOK}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model    string        `json:"model"`
			Messages []chatMessage `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		cs.model = req.Model
		cs.auth = r.Header.Get("Authorization")
		cs.messages = req.Messages

		w.Header().Set("Content-Type", "application/json")
		if cs.status != http.StatusOK {
			w.WriteHeader(cs.status)
			_, _ = w.Write([]byte(`{"error":{"message":"unavailable","type":"server"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]string{"role": "assistant", "content": cs.reply},
				},
			},
		})
	}))
	t.Cleanup(cs.Close)
	return cs
}

func newTestChat(t *testing.T, cs *chatServer) *ChatGenerator {
	t.Helper()
	gen, err := NewChatGenerator(ProviderMistral, ChatOptions{
		APIKey:  "test-key",
		BaseURL: cs.URL + "/v1",
		Model:   "test-model",
	})
	require.NoError(t, err)
	return gen
}

func TestChatGenerator_Answer(t *testing.T) {
	cs := newChatServer(t, "  Employees get 20 days [1].\n")
	gen := newTestChat(t, cs)

	out, err := gen.Answer(context.Background(), AnswerRequest{
		Question: "How many vacation days?",
		Snippets: []string{"Employees get 20 days.", "Unused days carry over."},
	})
	require.NoError(t, err)
	assert.Equal(t, "Employees get 20 days [1].", out)

	assert.Equal(t, "test-model", cs.model)
	require.Len(t, cs.messages, 2)
	assert.Equal(t, "system", cs.messages[0].Role)
	assert.Contains(t, cs.messages[0].Content, InsufficientEvidence)
	assert.NotContains(t, cs.messages[0].Content, "disclaimer")
	assert.Equal(t, "user", cs.messages[1].Role)
	assert.Contains(t, cs.messages[1].Content, "[1] Employees get 20 days.")
	assert.Contains(t, cs.messages[1].Content, "[2] Unused days carry over.")
}

func TestChatGenerator_AnswerSensitive(t *testing.T) {
	cs := newChatServer(t, "Not advice. The policy says [1].")
	gen := newTestChat(t, cs)

	_, err := gen.Answer(context.Background(), AnswerRequest{
		Question:  "Can I sue my landlord?",
		Snippets:  []string{"Disputes go to arbitration."},
		Sensitive: true,
	})
	require.NoError(t, err)
	assert.Contains(t, cs.messages[0].Content, "disclaimer")
}

func TestChatGenerator_AnswerWithoutEvidence(t *testing.T) {
	cs := newChatServer(t, "should not be called")
	gen := newTestChat(t, cs)

	out, err := gen.Answer(context.Background(), AnswerRequest{Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, InsufficientEvidence, out)
	assert.Nil(t, cs.messages)
}

func TestChatGenerator_Rewrite(t *testing.T) {
	cs := newChatServer(t, `"annual leave entitlement days"`)
	gen := newTestChat(t, cs)

	out, err := gen.Rewrite(context.Background(), "hey, how many days off do I get a year?")
	require.NoError(t, err)
	assert.Equal(t, "annual leave entitlement days", out)
	assert.Equal(t, "hey, how many days off do I get a year?", cs.messages[1].Content)
}

func TestChatGenerator_Errors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		cs := newChatServer(t, "")
		cs.status = http.StatusServiceUnavailable
		gen := newTestChat(t, cs)

		_, err := gen.Answer(context.Background(), AnswerRequest{Question: "q", Snippets: []string{"s"}})
		assert.Error(t, err)
	})

	t.Run("empty completion", func(t *testing.T) {
		cs := newChatServer(t, "   ")
		gen := newTestChat(t, cs)

		_, err := gen.Rewrite(context.Background(), "q")
		assert.ErrorIs(t, err, ErrEmptyCompletion)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := NewChatGenerator(ProviderOpenAI, ChatOptions{Model: "m"})
		assert.ErrorIs(t, err, ErrNoProviderEnabled)
	})
}

func TestExtractive(t *testing.T) {
	gen := NewExtractive()
	ctx := context.Background()

	q, err := gen.Rewrite(ctx, "unchanged question")
	require.NoError(t, err)
	assert.Equal(t, "unchanged question", q)

	out, err := gen.Answer(ctx, AnswerRequest{Question: "q", Snippets: []string{" best snippet ", "second"}})
	require.NoError(t, err)
	assert.Equal(t, "best snippet [1]", out)

	out, err = gen.Answer(ctx, AnswerRequest{Question: "q", Snippets: []string{"text"}, Sensitive: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "This is not professional advice."))

	out, err = gen.Answer(ctx, AnswerRequest{Question: "q", Snippets: []string{strings.Repeat("x", 1000)}})
	require.NoError(t, err)
	assert.Equal(t, extractiveMaxRunes+len("... [1]"), len(out))

	out, err = gen.Answer(ctx, AnswerRequest{Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, InsufficientEvidence, out)
}

func TestNew(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	gen, err := New(config.GeneratorConfig{Provider: "extractive"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderExtractive, gen.Provider())

	gen, err = New(config.GeneratorConfig{Provider: "mistral", APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderMistral, gen.Provider())
	assert.Equal(t, DefaultMistralModel, gen.Model())

	t.Setenv("OPENAI_API_KEY", "env-key")
	gen, err = New(config.GeneratorConfig{Provider: "openai", Model: "gpt-x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "gpt-x", gen.Model())

	_, err = New(config.GeneratorConfig{Provider: "mistral"}, nil)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)

	_, err = New(config.GeneratorConfig{Provider: "llama"}, nil)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestNew_KeyMatchesProvider(t *testing.T) {
	cs := newChatServer(t, "leave policy")
	t.Setenv("MISTRAL_API_KEY", "mistral-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")

	tests := []struct {
		provider string
		wantAuth string
	}{
		{provider: "openai", wantAuth: "Bearer openai-key"},
		{provider: "mistral", wantAuth: "Bearer mistral-key"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			gen, err := New(config.GeneratorConfig{Provider: tt.provider, BaseURL: cs.URL + "/v1"}, nil)
			require.NoError(t, err)

			_, err = gen.Rewrite(context.Background(), "How much leave do I get?")
			require.NoError(t, err)
			assert.Equal(t, tt.wantAuth, cs.auth)
		})
	}
}
