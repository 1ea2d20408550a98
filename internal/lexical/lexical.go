package lexical

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Tokenize case-folds text and splits it into runs of letters and digits
func Tokenize(text string) []string {
	// A Caser is stateful, so one is built per call
	folded := cases.Fold().String(text)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Distinct returns the unique tokens of tokens in first-seen order
func Distinct(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// termFrequency counts occurrences of each token
func termFrequency(tokens []string) map[string]int {
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}

// DocumentFrequency counts, for each token, how many texts contain it.
// Repeated tokens within one text count once.
func DocumentFrequency(texts []string) map[string]int {
	df := make(map[string]int)
	for _, text := range texts {
		for _, t := range Distinct(Tokenize(text)) {
			df[t]++
		}
	}
	return df
}

// IDF returns the smoothed inverse document frequency for a token that
// occurs in df of n documents. It is always positive.
func IDF(df, n int) float64 {
	return math.Log(float64(n+1)/float64(df+1)) + 1
}

// Index holds the per-chunk term frequencies and corpus document
// frequencies, so several queries can be scored against one snapshot.
type Index struct {
	tfs []map[string]int
	df  map[string]int
}

// NewIndex tokenizes texts once
func NewIndex(texts []string) *Index {
	idx := &Index{
		tfs: make([]map[string]int, len(texts)),
		df:  make(map[string]int),
	}
	for i, text := range texts {
		tf := termFrequency(Tokenize(text))
		idx.tfs[i] = tf
		for t := range tf {
			idx.df[t]++
		}
	}
	return idx
}

// Len returns the number of indexed texts
func (idx *Index) Len() int {
	return len(idx.tfs)
}

// Score returns one score per indexed text, in index order
func (idx *Index) Score(query string) []float64 {
	scores := make([]float64, len(idx.tfs))

	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 || len(idx.tfs) == 0 {
		return scores
	}

	// Weights are summed in first-seen query order so scores are reproducible
	qtf := termFrequency(queryTokens)
	terms := Distinct(queryTokens)
	n := len(idx.tfs)
	weights := make([]float64, len(terms))
	for i, t := range terms {
		weights[i] = IDF(idx.df[t], n) * float64(qtf[t])
	}

	for i, tf := range idx.tfs {
		var s float64
		for j, t := range terms {
			if c := tf[t]; c > 0 {
				s += float64(c) * weights[j]
			}
		}
		scores[i] = s
	}

	return scores
}

// Score scores every text against query
func Score(texts []string, query string) []float64 {
	return NewIndex(texts).Score(query)
}
