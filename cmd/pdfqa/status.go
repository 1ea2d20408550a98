package main

import (
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what has been ingested",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, _, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		st, err := a.Store.Status(ctx)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(os.Stdout, st)
		}
		renderStatus(os.Stdout, st, a.Embedder.Provider()+"/"+a.Embedder.Model())
		return nil
	},
}
