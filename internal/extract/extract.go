package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/spf13/afero"

	"github.com/dshills/pdfqa-mcp/pkg/types"
)

// Common errors
var (
	ErrNotPDF    = errors.New("not a PDF file")
	ErrMalformed = errors.New("malformed PDF")
)

// IsPDF reports whether path has a .pdf extension, ignoring case
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Extractor reads per-page text from PDF files
type Extractor struct {
	fs     afero.Fs
	logger *slog.Logger
}

// New creates an Extractor over fs. A nil logger uses slog.Default().
func New(fs afero.Fs, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{fs: fs, logger: logger}
}

// Pages returns the text of every page of the PDF at path, numbered from 1.
// Pages without extractable text (scans, images) are returned with empty
// text so page numbering stays intact.
func (e *Extractor) Pages(ctx context.Context, path string) (pages []types.Page, err error) {
	if !IsPDF(path) {
		return nil, fmt.Errorf("%w: %s", ErrNotPDF, path)
	}

	f, err := e.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	// The PDF reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %s: %v", ErrMalformed, path, r)
		}
	}()

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}

	n := reader.NumPage()
	pages = make([]types.Page, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages = append(pages, types.Page{Number: i, Text: e.pageText(reader, i, path)})
	}

	e.logger.Debug("extracted pdf", "path", path, "pages", n)
	return pages, nil
}

func (e *Extractor) pageText(reader *pdf.Reader, i int, path string) string {
	p := reader.Page(i)
	if p.V.IsNull() {
		return ""
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		e.logger.Warn("page text unavailable", "path", path, "page", i, "error", err)
		return ""
	}
	return text
}
