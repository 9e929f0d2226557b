package internal

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// NeighborReport maps a word to its nearest neighbors, best first.
type NeighborReport map[string][]Neighbor

// NewNeighborReport collects the topn neighbors of each word, skipping the
// word itself.
func NewNeighborReport(store VectorStore, words []string, topn int) (NeighborReport, error) {
	report := make(NeighborReport, len(words))
	for _, w := range words {
		neighbors, err := store.MostSimilar([]string{w}, nil, topn, false)
		if err != nil {
			return nil, fmt.Errorf("neighbors of %q: %w", w, err)
		}
		report[w] = neighbors
	}
	return report, nil
}

// NeighborChange is how one word's neighbor list moved between two reports.
type NeighborChange struct {
	Word    string   `json:"word"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Kept    []string `json:"kept,omitempty"`
	Diff    string   `json:"-"`
}

func (c NeighborChange) Changed() bool {
	return len(c.Added) > 0 || len(c.Removed) > 0
}

// DiffReports line-diffs the neighbor lists of every word in words.
func DiffReports(before, after NeighborReport, words []string) []NeighborChange {
	dmp := diffmatchpatch.New()

	changes := make([]NeighborChange, 0, len(words))
	for _, w := range words {
		a := neighborLines(before[w])
		b := neighborLines(after[w])

		chars1, chars2, lines := dmp.DiffLinesToChars(a, b)
		diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lines)

		change := NeighborChange{Word: w}
		var sb strings.Builder
		for _, d := range diffs {
			for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
				if line == "" {
					continue
				}
				switch d.Type {
				case diffmatchpatch.DiffInsert:
					change.Added = append(change.Added, line)
					sb.WriteString("+ " + line + "\n")
				case diffmatchpatch.DiffDelete:
					change.Removed = append(change.Removed, line)
					sb.WriteString("- " + line + "\n")
				case diffmatchpatch.DiffEqual:
					change.Kept = append(change.Kept, line)
					sb.WriteString("  " + line + "\n")
				}
			}
		}
		change.Diff = sb.String()
		changes = append(changes, change)
	}
	return changes
}

func neighborLines(neighbors []Neighbor) string {
	var sb strings.Builder
	for _, n := range neighbors {
		sb.WriteString(n.Word)
		sb.WriteByte('\n')
	}
	return sb.String()
}
