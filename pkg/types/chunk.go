package types

import (
	"errors"
	"strings"
)

// FileMeta carries the per-document fields merged into every chunk on append
type FileMeta struct {
	Filename string
}

// ChunkInput is a text fragment produced upstream by the chunker, before it
// has been assigned an identity
type ChunkInput struct {
	Text      string
	PageStart *int // Nullable - sources without pages
	PageEnd   *int // Nullable - sources without pages
}

// Chunk is an immutable unit of retrievable text as persisted by the store
type Chunk struct {
	// Identification
	ChunkID  string `json:"chunk_id"`
	Filename string `json:"filename"`

	// Location
	PageStart *int `json:"page_start"`
	PageEnd   *int `json:"page_end"`

	// Content
	Text string `json:"text"`
}

// Page is a single page of extracted document text (1-based page number)
type Page struct {
	Number int
	Text   string
}

// IntPtr returns a pointer to v, for populating nullable page fields
func IntPtr(v int) *int {
	return &v
}

// Validate checks the chunk invariants established at creation time
func (c *Chunk) Validate() error {
	if c.ChunkID == "" {
		return ErrInvalidChunkID
	}
	if strings.TrimSpace(c.Text) == "" {
		return ErrEmptyContent
	}
	if c.PageStart != nil && c.PageEnd != nil && *c.PageStart > *c.PageEnd {
		return errors.New("page start must be before or equal to page end")
	}
	return nil
}

// Excerpt returns at most maxRunes runes of the chunk text, with a trailing
// ellipsis when the text was cut
func (c *Chunk) Excerpt(maxRunes int) string {
	runes := []rune(c.Text)
	if len(runes) <= maxRunes {
		return c.Text
	}
	return string(runes[:maxRunes]) + "..."
}
