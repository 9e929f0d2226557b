package main

import (
	"fmt"

	"github.com/4thel00z/fairkit/internal"
	"github.com/spf13/cobra"
)

func NewROCCmd(uc func() *internal.ROCUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roc <scores.csv>",
		Short: "Build per-group ROC curves from scored samples",
		Long: `Read y_true,y_score,group rows and print per-group AUC, base rates and
proportions. With --output the curves are written as group,threshold,fpr,tpr.`,
		Args: cobra.ExactArgs(1),
		RunE: makeROCRunner(uc),
	}

	cmd.Flags().StringP("output", "o", "", "Write the curves to this CSV file")
	return cmd
}

func makeROCRunner(uc func() *internal.ROCUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		asJSON, _ := cmd.Flags().GetBool("json")

		out, err := uc().Execute(cmd.Context(), internal.ROCInput{
			ScoresPath: args[0],
			OutputPath: output,
		})
		if err != nil {
			return err
		}

		if asJSON {
			return writeJSON(cmd, out)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "overall base rate %.4f\n", out.BaseRate)
		for _, g := range out.Curves.Groups() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s auc=%.4f base_rate=%.4f proportion=%.4f points=%d\n",
				g, out.AUC[g], out.BaseRates[g], out.Proportions[g], out.Curves[g].Len())
		}
		return nil
	}
}
