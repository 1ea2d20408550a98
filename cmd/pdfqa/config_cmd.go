package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/pdfqa-mcp/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Long: `Write the default configuration as YAML (default ./pdfqa.yaml).
API keys are never written; set MISTRAL_API_KEY, OPENAI_API_KEY or
JINA_API_KEY in the environment or a .env file instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "pdfqa.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := config.Save(path, config.Default()); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), success("wrote"), path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		return printYAML(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
}
