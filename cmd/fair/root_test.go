package main

import (
	"testing"

	"github.com/4thel00z/fairkit/internal"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd("1.0.0", nil)

	if cmd == nil {
		t.Fatal("NewRootCmd returned nil")
	}
	if cmd.Use != "fair" {
		t.Errorf("expected Use='fair', got %q", cmd.Use)
	}
	if cmd.Version != "1.0.0" {
		t.Errorf("expected Version='1.0.0', got %q", cmd.Version)
	}
}

func TestRootCmdHasFlags(t *testing.T) {
	cmd := NewRootCmd("1.0.0", nil)

	for _, name := range []string{"scope", "json", "log-level"} {
		if f := cmd.PersistentFlags().Lookup(name); f == nil {
			t.Errorf("expected persistent flag %q to exist", name)
		}
	}
}

func TestRootCmdSubcommands(t *testing.T) {
	a := newApp(internal.NewScopeResolverAt(t.TempDir(), t.TempDir()))
	cmd := NewRootCmd("dev", a)

	for _, name := range []string{"init", "thresholds", "roc", "direction", "bias", "debias", "neighbors", "watch"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("expected subcommand %q", name)
		}
	}
}

func TestAppConfigureBadLevel(t *testing.T) {
	a := newApp(internal.NewScopeResolverAt(t.TempDir(), t.TempDir()))
	if err := a.configure("", "loud", nil); err == nil {
		t.Error("expected an error for an unknown log level")
	}
}
