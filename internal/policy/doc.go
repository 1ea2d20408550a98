// Package policy screens questions before retrieval: it refuses empty and
// PII-seeking questions, flags medical and legal topics for a disclaimer,
// and separates small talk from knowledge queries.
package policy
