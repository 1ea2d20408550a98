package types

import "errors"

// Domain errors shared by the store, scorers and boundary layers
var (
	// Store contract errors
	ErrRowCountMismatch  = errors.New("chunk count does not match embedding row count")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrInvalidMatrix     = errors.New("invalid embedding matrix")

	// Record errors
	ErrInvalidChunkID = errors.New("invalid chunk ID")
	ErrEmptyContent   = errors.New("content cannot be empty")

	// Query errors
	ErrEmptyQuery = errors.New("query cannot be empty")
)
