package internal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// IgnoreFilename lists words, one gitignore-style pattern per line, that
// must never be neutralized.
const IgnoreFilename = ".fairignore"

// WordMatcher matches vocabulary entries against .fairignore patterns. Each
// word is matched as a single path element, so globs like "prostate_*" and
// negations work as they do in .gitignore.
type WordMatcher struct {
	patterns []gitignore.Pattern
}

// NewWordMatcher loads dir/.fairignore. A missing file yields a matcher
// that matches nothing.
func NewWordMatcher(dir string) (*WordMatcher, error) {
	m := &WordMatcher{}

	patterns, err := parseIgnoreFile(filepath.Join(dir, IgnoreFilename))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", IgnoreFilename, err)
	}

	m.patterns = patterns
	return m, nil
}

// NewWordMatcherFromPatterns builds a matcher from literal pattern lines.
func NewWordMatcherFromPatterns(lines []string) *WordMatcher {
	m := &WordMatcher{}
	for _, line := range lines {
		if p, ok := parsePatternLine(line); ok {
			m.patterns = append(m.patterns, p)
		}
	}
	return m
}

func (m *WordMatcher) Len() int {
	return len(m.patterns)
}

// Match reports whether word is excluded. Later patterns override earlier
// ones, so "!word" re-includes a word excluded by a wider pattern.
func (m *WordMatcher) Match(word string) bool {
	parts := []string{word}

	excluded := false
	for _, p := range m.patterns {
		switch p.Match(parts, false) {
		case gitignore.Exclude:
			excluded = true
		case gitignore.Include:
			excluded = false
		}
	}
	return excluded
}

// Filter drops the matched words.
func (m *WordMatcher) Filter(words []string) []string {
	if len(m.patterns) == 0 {
		return words
	}
	out := make([]string, 0, len(words))
	for _, w := range words {
		if !m.Match(w) {
			out = append(out, w)
		}
	}
	return out
}

func parsePatternLine(line string) (gitignore.Pattern, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, false
	}
	return gitignore.ParsePattern(line, nil), true
}

func parseIgnoreFile(path string) ([]gitignore.Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		if p, ok := parsePatternLine(scanner.Text()); ok {
			patterns = append(patterns, p)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return patterns, nil
}
