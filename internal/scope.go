package internal

import (
	"os"
	"path/filepath"
)

const ScopeDirname = ".fair"

type ScopeType string

const (
	ScopeGlobal  ScopeType = "global"
	ScopeProject ScopeType = "project"
)

type Scope struct {
	Type     ScopeType
	Path     string // working directory root
	FairPath string // .fair directory path
}

func (s Scope) ConfigPath() string {
	return filepath.Join(s.FairPath, "config.yaml")
}

// ReportsPath holds the JSON reports written by --save.
func (s Scope) ReportsPath() string {
	return filepath.Join(s.FairPath, "reports")
}

// IgnoreDir is where .fairignore is looked up: the project root.
func (s Scope) IgnoreDir() string {
	return s.Path
}

type ScopeResolver struct {
	homeDir string
	workDir string
}

func NewScopeResolver() *ScopeResolver {
	home, _ := os.UserHomeDir()
	return &ScopeResolver{homeDir: home}
}

// NewScopeResolverAt resolves against fixed directories instead of the
// process environment.
func NewScopeResolverAt(homeDir, workDir string) *ScopeResolver {
	return &ScopeResolver{homeDir: homeDir, workDir: workDir}
}

func (r *ScopeResolver) Global() Scope {
	return Scope{
		Type:     ScopeGlobal,
		Path:     r.homeDir,
		FairPath: filepath.Join(r.homeDir, ScopeDirname),
	}
}

func (r *ScopeResolver) Project() (Scope, bool) {
	dir := r.workDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Scope{}, false
		}
		dir = cwd
	}
	return r.findProjectScope(dir)
}

func (r *ScopeResolver) findProjectScope(dir string) (Scope, bool) {
	for {
		fairPath := filepath.Join(dir, ScopeDirname)
		info, err := os.Stat(fairPath)
		if err == nil && info.IsDir() && fairPath != r.Global().FairPath {
			return Scope{Type: ScopeProject, Path: dir, FairPath: fairPath}, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Scope{}, false
		}
		dir = parent
	}
}

// Resolve picks the nearest project scope unless explicit is "global".
func (r *ScopeResolver) Resolve(explicit string) Scope {
	if explicit == string(ScopeGlobal) {
		return r.Global()
	}
	if scope, ok := r.Project(); ok {
		return scope
	}
	return r.Global()
}

// Init creates the .fair directory of a project rooted at dir, or of the
// global scope when dir is empty.
func (r *ScopeResolver) Init(dir string) (Scope, error) {
	scope := r.Global()
	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return Scope{}, err
		}
		scope = Scope{Type: ScopeProject, Path: abs, FairPath: filepath.Join(abs, ScopeDirname)}
	}

	if err := os.MkdirAll(scope.ReportsPath(), 0755); err != nil {
		return Scope{}, err
	}
	return scope, nil
}
