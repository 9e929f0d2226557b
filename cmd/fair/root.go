package main

import (
	"github.com/4thel00z/fairkit/internal"
	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fair",
		Short: "Fairness toolkit for classifiers and word embeddings",
		Long: `Pick fair decision thresholds for binary classifiers and measure or
remove bias directions in word embeddings.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)

	if a != nil {
		rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
			scopeHint, _ := cmd.Flags().GetString("scope")
			level, _ := cmd.Flags().GetString("log-level")
			return a.configure(scopeHint, level, cmd.ErrOrStderr())
		}
		addSubcommands(rootCmd, a)
	}

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("scope", "", "Target scope (global|project)")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
}

func addSubcommands(root *cobra.Command, a *app) {
	thresholds := func() *internal.ThresholdsUseCase { return a.uc.Thresholds }
	roc := func() *internal.ROCUseCase { return a.uc.ROC }
	direction := func() *internal.DirectionUseCase { return a.uc.Direction }
	bias := func() *internal.BiasUseCase { return a.uc.Bias }
	debias := func() *internal.DebiasUseCase { return a.uc.Debias }
	neighbors := func() *internal.NeighborsUseCase { return a.uc.Neighbors }

	root.AddCommand(
		NewInitCmd(a.resolver),
		NewThresholdsCmd(thresholds),
		NewROCCmd(roc),
		NewDirectionCmd(direction),
		NewBiasCmd(bias),
		NewDebiasCmd(debias),
		NewNeighborsCmd(neighbors),
		NewWatchCmd(thresholds),
	)
}
