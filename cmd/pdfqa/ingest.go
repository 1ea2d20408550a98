package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.pdf>...",
	Short: "Ingest PDF files into the store",
	Long: `Extract, chunk and embed each PDF and append it to the store. A copy of each
file is kept in <data_dir>/uploads. Files that do not end in .pdf are skipped.

Ingesting the same file twice stores its chunks twice.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, _, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		paths := make([]string, len(args))
		for i, arg := range args {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return fmt.Errorf("invalid path %s: %w", arg, err)
			}
			paths[i] = abs
		}

		stats, err := a.Indexer.IngestFiles(ctx, paths)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(os.Stdout, stats)
		}
		renderIngest(os.Stdout, stats)
		if stats.FilesFailed > 0 {
			return fmt.Errorf("%d file(s) failed", stats.FilesFailed)
		}
		return nil
	},
}
