package policy

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dshills/pdfqa-mcp/pkg/types"
)

// Intent classifies what a question is asking for
type Intent string

const (
	IntentEmpty     Intent = "empty"
	IntentSmalltalk Intent = "smalltalk"
	IntentKnowledge Intent = "knowledge_query"
	IntentRefused   Intent = "refused"
)

// Refusal reasons
const (
	ReasonEmpty = "Empty question."
	ReasonPII   = "Refusing request involving sensitive personal data (PII)."
)

// smalltalkMaxRunes bounds how long a greeting can be; longer questions that
// merely open with "hi" are still treated as knowledge queries
const smalltalkMaxRunes = 18

var (
	piiRE       = regexp.MustCompile(`(?i)\b(ssn|social security|passport number|credit card|cvv|bank account)\b`)
	medicalRE   = regexp.MustCompile(`(?i)\b(diagnose|treatment|prescription|symptoms)\b`)
	legalRE     = regexp.MustCompile(`(?i)\b(legal advice|sue|lawsuit|contract|attorney)\b`)
	smalltalkRE = regexp.MustCompile(`(?i)^(hi|hello|hey|yo)\b|how are you|what'?s up|good (morning|evening)`)
)

// Check returns a policy refusal for questions that must not be answered,
// or nil
func Check(question string) *types.Refusal {
	q := strings.TrimSpace(question)
	if q == "" {
		return &types.Refusal{Kind: types.RefusalPolicy, Reason: ReasonEmpty}
	}
	if piiRE.MatchString(q) {
		return &types.Refusal{Kind: types.RefusalPolicy, Reason: ReasonPII}
	}
	return nil
}

// Sensitive reports whether the question touches medical or legal topics.
// Such questions are answered, but with a disclaimer.
func Sensitive(question string) bool {
	return medicalRE.MatchString(question) || legalRE.MatchString(question)
}

// DetectIntent classifies a question
func DetectIntent(question string) Intent {
	q := strings.TrimSpace(question)
	if q == "" {
		return IntentEmpty
	}
	if utf8.RuneCountInString(q) <= smalltalkMaxRunes && smalltalkRE.MatchString(q) {
		return IntentSmalltalk
	}
	return IntentKnowledge
}

// ShouldSearch reports whether an intent needs retrieval
func (i Intent) ShouldSearch() bool {
	return i == IntentKnowledge
}
