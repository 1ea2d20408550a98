package lexical

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "Hello World", []string{"hello", "world"}},
		{"punctuation separates", "leave-policy, v2.1!", []string{"leave", "policy", "v2", "1"}},
		{"digits kept", "Form 1099 filed in 2023", []string{"form", "1099", "filed", "in", "2023"}},
		{"unicode letters", "Über ÉCOLE", []string{"über", "école"}},
		{"whitespace only", " \t\n ", []string{}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// Accented letters belong to their word instead of splitting it
func TestTokenize_NonASCII(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"accent inside word", "café", []string{"café"}},
		{"accented capitals fold", "ÉCOLE", []string{"école"}},
		{"hyphenated accents", "naïve-résumé", []string{"naïve", "résumé"}},
		{"greek", "ΑΘΗΝΑ", []string{"αθηνα"}},
		{"cjk run with digits", "東京 2024年", []string{"東京", "2024年"}},
		{"non-ascii punctuation separates", "«prime»—bonus", []string{"prime", "bonus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestScore_AccentedTermsMatchWhole(t *testing.T) {
	scores := Score([]string{"Le Café ouvre à 8h", "caf"}, "café")
	assert.Greater(t, scores[0], 0.0)
	assert.Zero(t, scores[1])
}

func TestDocumentFrequency_CountsOncePerText(t *testing.T) {
	df := DocumentFrequency([]string{
		"apple apple apple",
		"apple banana",
		"cherry",
	})

	assert.Equal(t, 2, df["apple"])
	assert.Equal(t, 1, df["banana"])
	assert.Equal(t, 1, df["cherry"])
	assert.Zero(t, df["durian"])
}

func TestIDF(t *testing.T) {
	// ln((N+1)/(df+1)) + 1
	assert.InDelta(t, math.Log(4.0/2.0)+1, IDF(1, 3), 1e-12)
	assert.InDelta(t, 1.0, IDF(3, 3), 1e-12)
	// Unseen terms get the largest weight
	assert.Greater(t, IDF(0, 3), IDF(1, 3))
	assert.Greater(t, IDF(3, 3), 0.0)
}

func TestScore_Formula(t *testing.T) {
	texts := []string{
		"leave policy leave",
		"expense policy",
		"holiday calendar",
	}

	scores := Score(texts, "leave policy")

	idfLeave := math.Log(4.0/2.0) + 1
	idfPolicy := math.Log(4.0/3.0) + 1

	assert.InDelta(t, 2*idfLeave+1*idfPolicy, scores[0], 1e-12)
	assert.InDelta(t, idfPolicy, scores[1], 1e-12)
	assert.Equal(t, 0.0, scores[2])
}

func TestScore_QueryTermFrequencyIsAdditive(t *testing.T) {
	texts := []string{"budget report", "travel"}

	once := Score(texts, "budget")
	twice := Score(texts, "budget budget")

	assert.InDelta(t, 2*once[0], twice[0], 1e-12)
}

func TestScore_ZeroOverlapIsExactlyZero(t *testing.T) {
	scores := Score([]string{"alpha beta", "gamma"}, "delta epsilon")
	assert.Equal(t, []float64{0, 0}, scores)
}

func TestScore_NonDecreasingInTermFrequency(t *testing.T) {
	texts := []string{"contract", "contract contract", "contract contract contract", "other"}
	scores := Score(texts, "contract")

	assert.LessOrEqual(t, scores[0], scores[1])
	assert.LessOrEqual(t, scores[1], scores[2])
}

func TestScore_Degenerate(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		assert.Equal(t, []float64{0, 0}, Score([]string{"a", "b"}, ""))
	})
	t.Run("punctuation-only query", func(t *testing.T) {
		assert.Equal(t, []float64{0}, Score([]string{"a"}, "?!"))
	})
	t.Run("empty corpus", func(t *testing.T) {
		assert.Empty(t, Score(nil, "anything"))
	})
}

func TestScore_CaseInsensitive(t *testing.T) {
	scores := Score([]string{"GDPR compliance"}, "gdpr")
	assert.Greater(t, scores[0], 0.0)
}

func TestIndex_ReusedAcrossQueries(t *testing.T) {
	idx := NewIndex([]string{"red apple", "green pear"})
	assert.Equal(t, 2, idx.Len())

	apple := idx.Score("apple")
	pear := idx.Score("pear")

	assert.Greater(t, apple[0], 0.0)
	assert.Zero(t, apple[1])
	assert.Zero(t, pear[0])
	assert.Greater(t, pear[1], 0.0)
}

func TestDistinct(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, Distinct([]string{"b", "a", "b", "c", "a"}))
	assert.Empty(t, Distinct(nil))
}

func BenchmarkScore(b *testing.B) {
	texts := make([]string, 1000)
	for i := range texts {
		texts[i] = "the quarterly revenue report covers sales operations and regional growth metrics"
	}
	idx := NewIndex(texts)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = idx.Score("regional revenue growth")
	}
}
