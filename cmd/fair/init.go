package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/4thel00z/fairkit/internal"
	"github.com/spf13/cobra"
)

func NewInitCmd(resolver *internal.ScopeResolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a fairkit workspace",
		Long:  `Create a .fair directory holding config.yaml and saved reports.`,
		RunE:  makeInitRunner(resolver),
	}

	cmd.Flags().Bool("global", false, "Initialize global scope (~/.fair)")
	return cmd
}

func makeInitRunner(resolver *internal.ScopeResolver) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		isGlobal, _ := cmd.Flags().GetBool("global")

		dir := ""
		fairPath := resolver.Global().FairPath
		if !isGlobal {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}
			dir = cwd
			fairPath = filepath.Join(cwd, internal.ScopeDirname)
		}

		if _, err := os.Stat(fairPath); err == nil {
			return fmt.Errorf("already initialized at %s", fairPath)
		}

		scope, err := resolver.Init(dir)
		if err != nil {
			return fmt.Errorf("create %s: %w", internal.ScopeDirname, err)
		}

		if err := internal.SaveConfig(scope, internal.DefaultConfig()); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized fairkit workspace at %s\n", scope.FairPath)
		return nil
	}
}
