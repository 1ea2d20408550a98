package main

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/pdfqa-mcp/internal/embedder"
)

var embedCmd = &cobra.Command{
	Use:   "embed <text>",
	Short: "Embed text with the configured provider and print the vector summary",
	Long: `Check the embedding provider configuration without touching the store.
Prints the provider, model, dimension, L2 norm and the first values.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		emb, err := embedder.New(cfg.Embedder, logger)
		if err != nil {
			return err
		}
		defer func() { _ = emb.Close() }()

		res, err := emb.GenerateEmbedding(cmd.Context(), embedder.EmbeddingRequest{Text: strings.Join(args, " ")})
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(os.Stdout, res)
		}

		var norm float64
		for _, v := range res.Vector {
			norm += float64(v) * float64(v)
		}
		head := res.Vector
		if len(head) > 8 {
			head = head[:8]
		}

		fmt.Printf("%s %s/%s\n", heading("Provider:"), emb.Provider(), emb.Model())
		fmt.Printf("%s %d\n", heading("Dimension:"), len(res.Vector))
		fmt.Printf("%s %.4f\n", heading("Norm:"), math.Sqrt(norm))
		fmt.Printf("%s %v\n", heading("Head:"), head)
		return nil
	},
}
