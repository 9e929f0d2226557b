package main

import (
	"context"
	"io"
	"os"

	"github.com/4thel00z/fairkit/internal"
	"github.com/charmbracelet/fang"
	"github.com/rs/zerolog"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	app := newApp(internal.NewScopeResolver())
	rootCmd := NewRootCmd(version, app)
	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

type app struct {
	resolver *internal.ScopeResolver
	log      zerolog.Logger
	uc       *internal.UseCases
}

func newApp(resolver *internal.ScopeResolver) *app {
	a := &app{resolver: resolver, log: zerolog.Nop()}
	a.uc = internal.NewUseCases(resolver, a.log)
	return a
}

// configure rebuilds the use cases with a logger at the requested level,
// falling back to the scope's log_level.
func (a *app) configure(scopeHint, level string, w io.Writer) error {
	if level == "" {
		if cfg, err := internal.LoadConfig(a.resolver.Resolve(scopeHint)); err == nil {
			level = cfg.LogLevel
		}
	}

	log, err := internal.NewLogger(w, level)
	if err != nil {
		return err
	}
	a.log = log
	a.uc = internal.NewUseCases(a.resolver, log)
	return nil
}
