package generator

import (
	"context"
	"strings"
)

// extractiveMaxRunes bounds the quoted evidence
const extractiveMaxRunes = 600

// Extractive answers offline by quoting the best snippet. It never rewrites.
type Extractive struct{}

// NewExtractive creates an extractive generator
func NewExtractive() *Extractive {
	return &Extractive{}
}

func (e *Extractive) Rewrite(ctx context.Context, question string) (string, error) {
	return question, nil
}

func (e *Extractive) Answer(ctx context.Context, req AnswerRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(req.Snippets) == 0 {
		return InsufficientEvidence, nil
	}

	quote := strings.TrimSpace(req.Snippets[0])
	if runes := []rune(quote); len(runes) > extractiveMaxRunes {
		quote = string(runes[:extractiveMaxRunes]) + "..."
	}

	var b strings.Builder
	if req.Sensitive {
		b.WriteString("This is not professional advice. ")
	}
	b.WriteString(quote)
	b.WriteString(" [1]")
	return b.String(), nil
}

func (e *Extractive) Provider() string {
	return ProviderExtractive
}

func (e *Extractive) Model() string {
	return ""
}
