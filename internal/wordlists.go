package internal

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed data/gender.yaml
var genderWordLists []byte

type wordListsFile struct {
	PositiveEnd       string      `yaml:"positive_end"`
	NegativeEnd       string      `yaml:"negative_end"`
	DefinitionalPairs [][2]string `yaml:"definitional_pairs"`
	EqualizePairs     [][2]string `yaml:"equalize_pairs"`
	SpecificWords     []string    `yaml:"specific_words"`
	Professions       []string    `yaml:"professions"`
}

// BiasConfig is an immutable bundle of the word lists describing one bias
// axis. Accessors return fresh copies.
type BiasConfig struct {
	lists wordListsFile
}

// GenderBiasConfig returns the built-in gender word lists.
func GenderBiasConfig() BiasConfig {
	cfg, err := ParseBiasConfig(genderWordLists)
	if err != nil {
		panic(fmt.Sprintf("embedded gender word lists: %v", err))
	}
	return cfg
}

func LoadBiasConfig(path string) (BiasConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BiasConfig{}, fmt.Errorf("read word lists: %w", err)
	}
	return ParseBiasConfig(data)
}

func ParseBiasConfig(data []byte) (BiasConfig, error) {
	var lists wordListsFile
	if err := yaml.Unmarshal(data, &lists); err != nil {
		return BiasConfig{}, fmt.Errorf("parse word lists: %w", err)
	}
	if lists.PositiveEnd == "" || lists.NegativeEnd == "" {
		return BiasConfig{}, precondition("parse word lists", ErrInvalidProblem, "positive_end and negative_end are required")
	}
	if len(lists.DefinitionalPairs) == 0 {
		return BiasConfig{}, precondition("parse word lists", ErrInvalidProblem, "no definitional pairs")
	}
	return BiasConfig{lists: lists}, nil
}

func (c BiasConfig) PositiveEnd() string { return c.lists.PositiveEnd }
func (c BiasConfig) NegativeEnd() string { return c.lists.NegativeEnd }

func (c BiasConfig) DefinitionalPairs() [][2]string {
	return slices.Clone(c.lists.DefinitionalPairs)
}

func (c BiasConfig) EqualizePairs() [][2]string {
	return slices.Clone(c.lists.EqualizePairs)
}

func (c BiasConfig) SpecificWords() []string {
	return slices.Clone(c.lists.SpecificWords)
}

func (c BiasConfig) Professions() []string {
	return slices.Clone(c.lists.Professions)
}

// EqualitySets is the default input of equalization: the definitional pairs.
func (c BiasConfig) EqualitySets() [][]string {
	sets := make([][]string, len(c.lists.DefinitionalPairs))
	for i, p := range c.lists.DefinitionalPairs {
		sets[i] = []string{p[0], p[1]}
	}
	return sets
}

// SpecificWithDefinitional is every word that must keep its bias component:
// the specific words plus both sides of each definitional pair.
func (c BiasConfig) SpecificWithDefinitional() []string {
	words := c.SpecificWords()
	for _, p := range c.lists.DefinitionalPairs {
		words = append(words, p[0], p[1])
	}
	return dedupeStrings(words)
}

// NeutralProfessions are the profession names that are not bias specific.
func (c BiasConfig) NeutralProfessions() []string {
	specific := make(map[string]bool, len(c.lists.SpecificWords))
	for _, w := range c.lists.SpecificWords {
		specific[w] = true
	}
	var out []string
	for _, w := range c.lists.Professions {
		if !specific[w] {
			out = append(out, w)
		}
	}
	return out
}

var (
	lowerCaser = cases.Lower(language.Und)
	upperCaser = cases.Upper(language.Und)
	titleCaser = cases.Title(language.Und)
)

// GenerateWordForms returns the lower, upper and title case forms of every
// word, in that order per word.
func GenerateWordForms(words []string) []string {
	forms := make([]string, 0, 3*len(words))
	for _, w := range words {
		forms = append(forms, lowerCaser.String(w), upperCaser.String(w), titleCaser.String(w))
	}
	return forms
}

// FilterWords keeps the words present in store, optionally only those that
// are already lower case.
func FilterWords(words []string, store VectorStore, onlyLower bool) []string {
	var out []string
	for _, w := range words {
		if !store.Contains(w) {
			continue
		}
		if onlyLower && lowerCaser.String(w) != w {
			continue
		}
		out = append(out, w)
	}
	return out
}

func dedupeStrings(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := words[:0]
	for _, w := range words {
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
