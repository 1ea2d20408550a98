package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/dshills/pdfqa-mcp/pkg/types"
)

const (
	// DefaultSize is the window length in characters
	DefaultSize = 1200

	// DefaultOverlap is how many characters consecutive windows share
	DefaultOverlap = 200
)

// ErrInvalidWindow is returned for a window that cannot make progress
var ErrInvalidWindow = errors.New("chunk overlap must be smaller than chunk size")

// Chunker splits page text into overlapping character windows. Lengths are
// measured in runes, so multi-byte text is never cut mid-character.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. size must be positive and overlap in [0, size).
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size %d, overlap %d", ErrInvalidWindow, size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the window length
func (c *Chunker) Size() int { return c.size }

// Overlap returns the window overlap
func (c *Chunker) Overlap() int { return c.overlap }

// buffer holds pending text with the page number of every rune
type buffer struct {
	runes []rune
	pages []int
}

func (b *buffer) appendPage(page int, text string) {
	if len(b.runes) > 0 {
		b.runes = append(b.runes, ' ')
		b.pages = append(b.pages, page)
	}
	for _, r := range text {
		b.runes = append(b.runes, r)
		b.pages = append(b.pages, page)
	}
}

// trimLeft drops leading spaces
func (b *buffer) trimLeft() {
	i := 0
	for i < len(b.runes) && unicode.IsSpace(b.runes[i]) {
		i++
	}
	b.runes = b.runes[i:]
	b.pages = b.pages[i:]
}

func (b *buffer) drop(n int) {
	b.runes = b.runes[n:]
	b.pages = b.pages[n:]
}

// ChunkPages normalizes whitespace on every page, concatenates the pages and
// cuts the text into windows of Size runes advancing by Size-Overlap. Each
// chunk records the first and last page its text came from. Pages without
// text are skipped and no chunk is ever empty.
func (c *Chunker) ChunkPages(pages []types.Page) []types.ChunkInput {
	chunks := make([]types.ChunkInput, 0)
	buf := &buffer{}

	for _, page := range pages {
		cleaned := normalizeWhitespace(page.Text)
		if cleaned == "" {
			continue
		}
		buf.appendPage(page.Number, cleaned)

		for len(buf.runes) > c.size {
			if chunk, ok := window(buf.runes[:c.size], buf.pages[:c.size]); ok {
				chunks = append(chunks, chunk)
			}
			buf.drop(c.size - c.overlap)
			buf.trimLeft()
		}
	}

	if chunk, ok := window(buf.runes, buf.pages); ok {
		chunks = append(chunks, chunk)
	}

	return chunks
}

// ChunkText chunks text that has no page structure
func (c *Chunker) ChunkText(text string) []types.ChunkInput {
	chunks := c.ChunkPages([]types.Page{{Number: 0, Text: text}})
	for i := range chunks {
		chunks[i].PageStart = nil
		chunks[i].PageEnd = nil
	}
	return chunks
}

// window trims a rune span and returns it as a chunk with its page range
func window(runes []rune, pages []int) (types.ChunkInput, bool) {
	start, end := 0, len(runes)
	for start < end && unicode.IsSpace(runes[start]) {
		start++
	}
	for end > start && unicode.IsSpace(runes[end-1]) {
		end--
	}
	if start == end {
		return types.ChunkInput{}, false
	}

	return types.ChunkInput{
		Text:      string(runes[start:end]),
		PageStart: types.IntPtr(pages[start]),
		PageEnd:   types.IntPtr(pages[end-1]),
	}, true
}

// normalizeWhitespace collapses every whitespace run to a single space and
// trims the ends
func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
