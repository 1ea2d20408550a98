package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/dshills/pdfqa-mcp/internal/indexer"
	"github.com/dshills/pdfqa-mcp/internal/storage"
	"github.com/dshills/pdfqa-mcp/pkg/types"
)

var (
	heading = color.New(color.FgGreen, color.Bold).SprintFunc()
	prompt  = color.New(color.FgCyan, color.Bold).SprintFunc()
	success = color.New(color.FgGreen).SprintFunc()
	warning = color.New(color.FgYellow).SprintFunc()
	failure = color.New(color.FgRed, color.Bold).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(v)
}

// pages formats a chunk's page range
func pages(start, end *int) string {
	switch {
	case start == nil:
		return ""
	case end == nil || *end == *start:
		return fmt.Sprintf("p. %d", *start)
	default:
		return fmt.Sprintf("pp. %d-%d", *start, *end)
	}
}

func source(filename string, start, end *int) string {
	if p := pages(start, end); p != "" {
		return filename + ", " + p
	}
	return filename
}

func renderAnswer(w io.Writer, ans *types.Answer) {
	if ans.Refusal != nil {
		fmt.Fprintln(w, warning(ans.Answer))
		fmt.Fprintln(w, faint(refusalText(ans.Refusal)))
		return
	}

	fmt.Fprintln(w, ans.Answer)
	if len(ans.Citations) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, heading("Sources"))
	for i, c := range ans.Citations {
		fmt.Fprintf(w, "  [%d] %s %s\n", i+1, source(c.Filename, c.PageStart, c.PageEnd), faint(fmt.Sprintf("(%.3f)", c.Score)))
		fmt.Fprintf(w, "      %s\n", faint(oneLine(c.Excerpt)))
	}
}

func renderRetrieval(w io.Writer, res *types.Retrieval) {
	if res.Refusal != nil {
		fmt.Fprintln(w, warning(refusalText(res.Refusal)))
		return
	}

	for i, c := range res.Candidates {
		fmt.Fprintf(w, "%s %s\n", heading(fmt.Sprintf("%d.", i+1)), source(c.Filename, c.PageStart, c.PageEnd))
		fmt.Fprintf(w, "   %s\n", faint(fmt.Sprintf("final %.3f  hybrid %.3f  sem %.3f  kw %.3f  id %s",
			c.Final, c.Hybrid, c.Sem, c.KW, c.ChunkID)))
		fmt.Fprintf(w, "   %s\n", oneLine(c.Excerpt(200)))
	}
	fmt.Fprintln(w, faint(fmt.Sprintf("%d results from a pool of %d in %s", len(res.Candidates), res.PoolSize, res.Duration)))
}

func renderIngest(w io.Writer, stats *indexer.Statistics) {
	for _, f := range stats.Files {
		switch f.Status {
		case indexer.StatusIngested:
			fmt.Fprintf(w, "%s %s %s\n", success("ingested"), f.Path, faint(fmt.Sprintf("(%d pages, %d chunks)", f.Pages, f.Chunks)))
		case indexer.StatusSkipped:
			fmt.Fprintf(w, "%s  %s %s\n", warning("skipped"), f.Path, faint(f.Message))
		default:
			fmt.Fprintf(w, "%s   %s %s\n", failure("failed"), f.Path, f.Message)
		}
	}
	fmt.Fprintf(w, "%d ingested, %d skipped, %d failed, %d chunks added in %s\n",
		stats.FilesIngested, stats.FilesSkipped, stats.FilesFailed, stats.ChunksAdded, stats.Duration.Round(time.Millisecond))
}

func renderStatus(w io.Writer, st *storage.Status, embedder string) {
	fmt.Fprintf(w, "%s %s (%s, %s)\n", heading("Store:"), st.Location, st.Backend, st.BuildMode)
	fmt.Fprintf(w, "%s %d\n", heading("Chunks:"), st.ChunkCount)
	if st.Dimension > 0 {
		fmt.Fprintf(w, "%s %d\n", heading("Dimension:"), st.Dimension)
	} else {
		fmt.Fprintf(w, "%s %s\n", heading("Dimension:"), faint("unknown"))
	}
	fmt.Fprintf(w, "%s %s\n", heading("Embedder:"), embedder)
	fmt.Fprintf(w, "%s %d\n", heading("Files:"), st.FileCount)
	for _, f := range st.Files {
		fmt.Fprintf(w, "  %s\n", f)
	}
}

func refusalText(r *types.Refusal) string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Reason)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
