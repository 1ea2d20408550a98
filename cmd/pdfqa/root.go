package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/pdfqa-mcp/internal/app"
	"github.com/dshills/pdfqa-mcp/internal/config"
	"github.com/dshills/pdfqa-mcp/internal/logging"
	"github.com/dshills/pdfqa-mcp/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	// cfgFile is the path to the configuration file
	cfgFile string
	// verbose forces debug logging
	verbose bool
	// jsonOutput prints machine-readable results
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pdfqa",
	Short: "Ask questions about your PDFs and get cited answers",
	Long: `pdfqa ingests PDF files into a local store and answers questions from them
using hybrid semantic and keyword retrieval. Answers cite the file and pages
they come from; when the evidence is too weak the answer is "insufficient evidence".

Run "pdfqa serve" to expose the same operations as MCP tools over stdio.`,
	SilenceUsage: true,
	Version:      version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("pdfqa {{.Version}}\nBuild Time: %s\nBuild Mode: %s\nSQLite Driver: %s\n",
		buildTime, storage.BuildMode, storage.DriverName))

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./pdfqa.yaml or $HOME/.config/pdfqa/pdfqa.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(serveCmd, ingestCmd, askCmd, searchCmd, statusCmd, embedCmd, configCmd)
}

// loadConfig reads the configuration and builds the stderr logger
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)

	return cfg, logger, nil
}

// openApp loads the configuration and wires the application
func openApp(ctx context.Context) (*app.App, *slog.Logger, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(ctx, cfg, nil, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}
