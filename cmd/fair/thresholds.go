package main

import (
	"fmt"

	"github.com/4thel00z/fairkit/internal"
	"github.com/spf13/cobra"
)

func NewThresholdsCmd(uc func() *internal.ThresholdsUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thresholds <problem.yaml>",
		Short: "Find decision thresholds under fairness constraints",
		Long: `Run the threshold strategies (single, min_cost, independence, fnr,
separation) over the per-group ROC curves described by a problem file.`,
		Args: cobra.ExactArgs(1),
		RunE: makeThresholdsRunner(uc),
	}

	cmd.Flags().StringSliceP("strategy", "s", nil, "Strategies to run (default: config or all)")
	cmd.Flags().Bool("save", false, "Save the report under .fair/reports")
	return cmd
}

func makeThresholdsRunner(uc func() *internal.ThresholdsUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		strategies, _ := cmd.Flags().GetStringSlice("strategy")
		save, _ := cmd.Flags().GetBool("save")
		scopeHint, _ := cmd.Flags().GetString("scope")
		asJSON, _ := cmd.Flags().GetBool("json")

		out, err := uc().Execute(cmd.Context(), internal.ThresholdsInput{
			ProblemPath: args[0],
			Strategies:  strategies,
			Scope:       scopeHint,
			Save:        save,
		})
		if err != nil {
			return err
		}

		if asJSON {
			return writeJSON(cmd, out)
		}
		printThresholds(cmd, out)
		return nil
	}
}

func printThresholds(cmd *cobra.Command, out *internal.ThresholdsOutput) {
	fmt.Fprintf(cmd.OutOrStdout(), "run %s  base rate %.4f\n", out.RunID, out.BaseRate)
	for _, st := range internal.AllStrategies {
		res, ok := out.Results[st]
		if !ok {
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatThresholdResult(res))
	}
}
