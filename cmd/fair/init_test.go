package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/4thel00z/fairkit/internal"
)

func TestInitCreatesWorkspace(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	resolver := internal.NewScopeResolverAt(t.TempDir(), dir)
	cmd := NewInitCmd(resolver)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, ".fair", "config.yaml")); err != nil {
		t.Errorf("config not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".fair", "reports")); err != nil {
		t.Errorf("reports directory not created: %v", err)
	}

	again := NewInitCmd(resolver)
	again.SetOut(&out)
	again.SetErr(&out)
	again.SetArgs([]string{})
	if err := again.Execute(); err == nil {
		t.Error("expected a second init to fail")
	}
}

func TestInitGlobal(t *testing.T) {
	home := t.TempDir()
	resolver := internal.NewScopeResolverAt(home, t.TempDir())

	cmd := NewInitCmd(resolver)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--global"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init --global: %v", err)
	}

	if _, err := os.Stat(filepath.Join(home, ".fair", "config.yaml")); err != nil {
		t.Errorf("global config not written: %v", err)
	}
}
