// Package lexical implements TF-IDF keyword scoring over chunk text.
//
// Tokens are maximal runs of Unicode letters and digits after case folding;
// everything else separates tokens. A chunk's score for a query is
//
//	Σ_t tf(t, chunk) × idf(t) × qtf(t)
//
// over the query tokens t, with the smoothed
//
//	idf(t) = ln((N+1)/(df(t)+1)) + 1
//
// where N is the number of chunks. Chunks that share no token with the
// query score exactly 0. An empty query or corpus yields all zeros.
package lexical
