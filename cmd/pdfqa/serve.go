package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/pdfqa-mcp/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the MCP tools over stdio",
	Long: `Start the MCP server on stdin/stdout. Logs go to stderr.

Tools: ingest_pdfs, ask_question, search_chunks, get_status.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, logger, err := openApp(ctx)
		if err != nil {
			return err
		}
		server := mcp.NewServer(a, logger)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		errChan := make(chan error, 1)
		go func() {
			errChan <- server.Serve(ctx)
		}()

		select {
		case sig := <-sigChan:
			logger.Info("shutting down", "signal", sig.String())
			return nil
		case err := <-errChan:
			if err != nil {
				logger.Error("server error", "error", err)
			}
			return err
		}
	},
}
