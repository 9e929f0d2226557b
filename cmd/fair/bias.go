package main

import (
	"fmt"

	"github.com/4thel00z/fairkit/internal"
	"github.com/spf13/cobra"
)

func NewBiasCmd(uc func() *internal.BiasUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bias <embeddings.txt> [word...]",
		Short: "Measure direct and indirect bias",
		Long: `Project words on the bias direction and report their direct bias.
Without words, the neutral profession names of the word lists are used.`,
		Args: cobra.MinimumNArgs(1),
		RunE: makeBiasRunner(uc),
	}

	addEmbeddingFlags(cmd)
	cmd.Flags().Float64P("exponent", "c", 1, "Strictness exponent of the direct bias")
	cmd.Flags().StringSlice("indirect", nil, "word1:word2 pairs to compute indirect bias for")
	return cmd
}

func makeBiasRunner(uc func() *internal.BiasUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		exponent, _ := cmd.Flags().GetFloat64("exponent")
		rawPairs, _ := cmd.Flags().GetStringSlice("indirect")
		asJSON, _ := cmd.Flags().GetBool("json")

		pairs, err := parsePairs(rawPairs)
		if err != nil {
			return err
		}

		out, err := uc().Execute(cmd.Context(), internal.BiasInput{
			EmbeddingInput: embeddingInput(cmd, args[0]),
			Words:          args[1:],
			Exponent:       exponent,
			IndirectPairs:  pairs,
		})
		if err != nil {
			return err
		}

		if asJSON {
			return writeJSON(cmd, out)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "direct bias %.4f over %d words\n", out.DirectBias, len(out.Projections))
		for _, p := range out.Projections {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-16s %+.4f\n", p.Word, p.Projection)
		}
		for _, ib := range out.IndirectBias {
			fmt.Fprintf(cmd.OutOrStdout(), "indirect %s/%s %.4f\n", ib.Word1, ib.Word2, ib.Bias)
		}
		return nil
	}
}
