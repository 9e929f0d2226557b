package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/4thel00z/fairkit/internal"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func NewWatchCmd(uc func() *internal.ThresholdsUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <problem.yaml>",
		Short: "Recompute thresholds whenever the problem changes",
		Long:  `Watch a problem file and the CSV it references, and rerun the threshold strategies on every change.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeWatchRunner(uc),
	}

	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for batching changes")
	cmd.Flags().StringSliceP("strategy", "s", nil, "Strategies to run (default: config or all)")
	return cmd
}

func makeWatchRunner(uc func() *internal.ThresholdsUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		debounce, _ := cmd.Flags().GetDuration("debounce")
		strategies, _ := cmd.Flags().GetStringSlice("strategy")
		scopeHint, _ := cmd.Flags().GetString("scope")

		input := internal.ThresholdsInput{ProblemPath: args[0], Strategies: strategies, Scope: scopeHint}
		run := func() {
			out, err := uc().Execute(cmd.Context(), input)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "thresholds: %v\n", err)
				return
			}
			printThresholds(cmd, out)
		}

		watched, err := internal.ProblemInputs(args[0])
		if err != nil {
			return err
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		if err := addWatchDirs(watcher, watched); err != nil {
			return fmt.Errorf("add watch dirs: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %d files for changes...\n", len(watched))
		run()

		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		pending := false

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if shouldIgnoreEvent(event, watched) {
					continue
				}
				if !pending {
					timer.Reset(debounce)
					pending = true
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
			case <-timer.C:
				pending = false
				watched = refreshWatched(cmd.ErrOrStderr(), watcher, args[0], watched)
				run()
			}
		}
	}
}

// refreshWatched rereads the problem, which may now point at different CSV
// files, and watches their directories. On a read error the previous list
// is kept; the next run reports why the problem does not load.
func refreshWatched(w io.Writer, watcher *fsnotify.Watcher, problem string, watched []string) []string {
	next, err := internal.ProblemInputs(problem)
	if err != nil {
		return watched
	}
	if err := addWatchDirs(watcher, next); err != nil {
		fmt.Fprintf(w, "watch error: %v\n", err)
	}
	return next
}

// addWatchDirs watches the parent directories, since editors often replace
// files by renaming over them.
func addWatchDirs(watcher *fsnotify.Watcher, files []string) error {
	seen := make(map[string]bool)
	for _, f := range files {
		dir := filepath.Dir(f)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}
	return nil
}

func shouldIgnoreEvent(event fsnotify.Event, watched []string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return true
	}

	name := filepath.Clean(event.Name)
	for _, f := range watched {
		if name == f {
			return false
		}
	}
	return true
}
