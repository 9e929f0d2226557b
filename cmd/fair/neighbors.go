package main

import (
	"fmt"

	"github.com/4thel00z/fairkit/internal"
	"github.com/spf13/cobra"
)

func NewNeighborsCmd(uc func() *internal.NeighborsUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "neighbors <embeddings.txt> <word...>",
		Short: "List the nearest neighbors of words",
		Long: `Rank the vocabulary by cosine similarity to the sum of the given words
minus the --minus words, as in word analogies.`,
		Args: cobra.MinimumNArgs(2),
		RunE: makeNeighborsRunner(uc),
	}

	cmd.Flags().StringSlice("minus", nil, "Words that contribute negatively")
	cmd.Flags().IntP("number", "n", 10, "Maximum results")
	cmd.Flags().Bool("unrestricted", false, "Include the query words in the results")
	return cmd
}

func makeNeighborsRunner(uc func() *internal.NeighborsUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		minus, _ := cmd.Flags().GetStringSlice("minus")
		topn, _ := cmd.Flags().GetInt("number")
		unrestricted, _ := cmd.Flags().GetBool("unrestricted")
		asJSON, _ := cmd.Flags().GetBool("json")

		out, err := uc().Execute(cmd.Context(), internal.NeighborsInput{
			EmbeddingsPath: args[0],
			Positive:       args[1:],
			Negative:       minus,
			TopN:           topn,
			Unrestricted:   unrestricted,
		})
		if err != nil {
			return err
		}

		if asJSON {
			return writeJSON(cmd, out.Neighbors)
		}

		for _, n := range out.Neighbors {
			fmt.Fprintf(cmd.OutOrStdout(), "%.4f  %s\n", n.Similarity, n.Word)
		}
		return nil
	}
}
