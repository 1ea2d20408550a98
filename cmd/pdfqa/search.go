package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Show the ranked chunks for a query",
	Long: `Run hybrid retrieval for a query and print the ranked chunks with their
scores. No policy checks, query rewriting or answer generation take place.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, _, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		res, err := a.QA.Search(ctx, strings.Join(args, " "), searchLimit)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(os.Stdout, res)
		}
		renderRetrieval(os.Stdout, res)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "k", 0, "number of results (default: retrieval.top_k)")
}
