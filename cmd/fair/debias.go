package main

import (
	"fmt"

	"github.com/4thel00z/fairkit/internal"
	"github.com/spf13/cobra"
)

func NewDebiasCmd(uc func() *internal.DebiasUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debias <embeddings.txt>",
		Short: "Remove the bias direction from a word embedding",
		Long: `Neutralize every neutral word (the vocabulary minus bias specific words
and .fairignore matches) and, with the hard method, equalize the definitional
pairs. The input file is never modified; use --output to write the result.`,
		Args: cobra.ExactArgs(1),
		RunE: makeDebiasRunner(uc),
	}

	addEmbeddingFlags(cmd)
	cmd.Flags().String("debias-method", string(internal.DebiasHard), "Debias method (neutralize|hard|soft)")
	cmd.Flags().StringP("output", "o", "", "Write the debiased embedding to this file")
	cmd.Flags().StringSlice("neighbors", nil, "Words whose nearest neighbors are compared before and after")
	cmd.Flags().IntP("number", "n", 10, "Neighbors per word")
	cmd.Flags().Bool("save", false, "Save the report under .fair/reports")
	return cmd
}

func makeDebiasRunner(uc func() *internal.DebiasUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		method, _ := cmd.Flags().GetString("debias-method")
		output, _ := cmd.Flags().GetString("output")
		words, _ := cmd.Flags().GetStringSlice("neighbors")
		topn, _ := cmd.Flags().GetInt("number")
		save, _ := cmd.Flags().GetBool("save")
		asJSON, _ := cmd.Flags().GetBool("json")

		out, err := uc().Execute(cmd.Context(), internal.DebiasInput{
			EmbeddingInput: embeddingInput(cmd, args[0]),
			DebiasMethod:   method,
			OutputPath:     output,
			NeighborWords:  words,
			TopN:           topn,
			Save:           save,
		})
		if err != nil {
			return err
		}

		if asJSON {
			return writeJSON(cmd, out)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "run %s  method %s  neutralized %d words\n", out.RunID, out.Method, out.Neutralized)
		fmt.Fprintf(cmd.OutOrStdout(), "direct bias %.4f -> %.4f\n", out.DirectBiasBefore, out.DirectBiasAfter)
		for _, c := range out.Changes {
			if !c.Changed() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: neighbors unchanged\n", c.Word)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s:\n%s", c.Word, c.Diff)
		}
		if out.OutputPath != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "written to %s\n", out.OutputPath)
		}
		return nil
	}
}
