package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func neighborList(words ...string) []Neighbor {
	out := make([]Neighbor, len(words))
	for i, w := range words {
		out[i] = Neighbor{Word: w, Similarity: 1 - float64(i)/10}
	}
	return out
}

func TestDiffReports(t *testing.T) {
	before := NeighborReport{
		"nurse":  neighborList("a", "b", "c"),
		"doctor": neighborList("x", "y"),
	}
	after := NeighborReport{
		"nurse":  neighborList("a", "c", "d"),
		"doctor": neighborList("x", "y"),
	}

	changes := DiffReports(before, after, []string{"nurse", "doctor"})
	require.Len(t, changes, 2)

	nurse := changes[0]
	assert.Equal(t, "nurse", nurse.Word)
	assert.True(t, nurse.Changed())
	assert.ElementsMatch(t, []string{"d"}, nurse.Added)
	assert.ElementsMatch(t, []string{"b"}, nurse.Removed)
	assert.ElementsMatch(t, []string{"a", "c"}, nurse.Kept)
	assert.Contains(t, nurse.Diff, "- b\n")
	assert.Contains(t, nurse.Diff, "+ d\n")

	doctor := changes[1]
	assert.False(t, doctor.Changed())
	assert.Equal(t, []string{"x", "y"}, doctor.Kept)
}

func TestNewNeighborReport(t *testing.T) {
	store := testStore(t)

	report, err := NewNeighborReport(store, []string{"he", "nurse"}, 3)
	require.NoError(t, err)
	require.Len(t, report["he"], 3)
	assert.NotEqual(t, "he", report["he"][0].Word)

	_, err = NewNeighborReport(store, []string{"unicorn"}, 3)
	assert.ErrorIs(t, err, ErrWordNotFound)
}
