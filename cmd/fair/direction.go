package main

import (
	"fmt"

	"github.com/4thel00z/fairkit/internal"
	"github.com/spf13/cobra"
)

func addEmbeddingFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("method", "m", "", "Direction method (single|sum|pca, default from config)")
	cmd.Flags().Bool("normalize", true, "Scale every vector to unit length after loading (default from config)")
}

func embeddingInput(cmd *cobra.Command, path string) internal.EmbeddingInput {
	method, _ := cmd.Flags().GetString("method")
	scopeHint, _ := cmd.Flags().GetString("scope")
	input := internal.EmbeddingInput{EmbeddingsPath: path, Method: method, Scope: scopeHint}
	if cmd.Flags().Changed("normalize") {
		normalize, _ := cmd.Flags().GetBool("normalize")
		input.Normalize = &normalize
	}
	return input
}

func NewDirectionCmd(uc func() *internal.DirectionUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "direction <embeddings.txt>",
		Short: "Identify the bias direction of a word embedding",
		Args:  cobra.ExactArgs(1),
		RunE:  makeDirectionRunner(uc),
	}

	addEmbeddingFlags(cmd)
	return cmd
}

func makeDirectionRunner(uc func() *internal.DirectionUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		out, err := uc().Execute(cmd.Context(), embeddingInput(cmd, args[0]))
		if err != nil {
			return err
		}

		if asJSON {
			return writeJSON(cmd, out)
		}

		d := out.Direction
		fmt.Fprintf(cmd.OutOrStdout(), "%s <-> %s (method %s)\n", d.NegativeEnd, d.PositiveEnd, d.Method)
		if d.Method == internal.DirectionPCA {
			fmt.Fprintf(cmd.OutOrStdout(), "explained variance %.4f\n", d.ExplainedVariance)
		}
		for _, e := range out.Ends {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %+.4f\n", e.Word, e.Projection)
		}
		return nil
	}
}
