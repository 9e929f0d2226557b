package internal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

const testWordLists = `
positive_end: he
negative_end: she
definitional_pairs:
  - [she, he]
  - [woman, man]
  - [girl, boy]
equalize_pairs:
  - [queen, king]
specific_words: [she, he, woman, man, girl, boy, king, queen]
professions: [nurse, engineer, doctor, king]
`

// genderVectors lays the gender axis along the first coordinate. Every
// definitional pair is mirrored across it.
var genderVectors = map[string][]float64{
	"he":       {1, 1, 0},
	"she":      {-1, 1, 0},
	"man":      {1, 0, 1},
	"woman":    {-1, 0, 1},
	"boy":      {1, 0.5, 0.5},
	"girl":     {-1, 0.5, 0.5},
	"king":     {0.9, 0.1, 0.4},
	"queen":    {-0.3, 0.5, 0.8},
	"nurse":    {-0.5, 1, 1},
	"engineer": {0.5, 1, -1},
	"doctor":   {0.2, 0.3, 1},
}

var genderOrder = []string{"he", "she", "man", "woman", "boy", "girl", "king", "queen", "nurse", "engineer", "doctor"}

func testBiasConfig(t *testing.T) BiasConfig {
	t.Helper()
	cfg, err := ParseBiasConfig([]byte(testWordLists))
	require.NoError(t, err)
	return cfg
}

func testStore(t *testing.T) *KeyedVectors {
	t.Helper()
	kv := NewKeyedVectors(3)
	for _, w := range genderOrder {
		require.NoError(t, kv.Add(w, Normalize(genderVectors[w])))
	}
	return kv
}

func testEmbedding(t *testing.T, opts ...EmbeddingOption) *BiasEmbedding {
	t.Helper()
	be, err := NewBiasEmbedding(testStore(t), testBiasConfig(t), opts...)
	require.NoError(t, err)
	return be
}

func vectorOf(t *testing.T, s VectorStore, w string) []float64 {
	t.Helper()
	v, err := s.Vector(w)
	require.NoError(t, err)
	return v
}

func TestBiasEmbeddingDirection(t *testing.T) {
	be := testEmbedding(t)

	d, err := be.Direction()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 0, 0}, d.Vector, 1e-9)
	assert.Equal(t, "he", d.PositiveEnd)
	assert.Equal(t, "she", d.NegativeEnd)
	assert.InDelta(t, 1, d.ExplainedVariance, 1e-9)

	// Callers get a copy.
	d.Vector[0] = 42
	again, _ := be.Direction()
	assert.InDelta(t, 1, again.Vector[0], 1e-9)
}

func TestDirectionNotIdentified(t *testing.T) {
	be := testEmbedding(t, WithoutIdentification())

	_, err := be.Direction()
	assert.ErrorIs(t, err, ErrDirectionNotIdentified)
	assert.False(t, IsPrecondition(err))

	_, err = be.ProjectOnDirection("nurse")
	assert.ErrorIs(t, err, ErrDirectionNotIdentified)
	assert.ErrorIs(t, be.Neutralize([]string{"nurse"}), ErrDirectionNotIdentified)

	require.NoError(t, be.Identify("he", "she", [][2]string{{"she", "he"}}, DirectionSingle))
	_, err = be.Direction()
	assert.NoError(t, err)
}

func TestProjectionScores(t *testing.T) {
	be := testEmbedding(t)

	p, err := be.ProjectOnDirection("nurse")
	require.NoError(t, err)
	assert.InDelta(t, -1.0/3, p, 1e-9)

	scores, err := be.ProjectionScores([]string{"nurse", "doctor", "engineer"})
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.Equal(t, []string{"engineer", "doctor", "nurse"}, []string{scores[0].Word, scores[1].Word, scores[2].Word})

	_, err = be.ProjectionScores([]string{"unicorn"})
	assert.ErrorIs(t, err, ErrWordNotFound)
}

func TestDirectBias(t *testing.T) {
	be := testEmbedding(t)

	got, err := be.DirectBias([]string{"nurse", "engineer"}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3, got, 1e-9)

	squared, err := be.DirectBias([]string{"nurse", "engineer"}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/9, squared, 1e-9)

	defaulted, err := be.DirectBias([]string{"nurse", "engineer"}, 0)
	require.NoError(t, err)
	assert.InDelta(t, got, defaulted, 1e-12)
}

func TestIndirectBias(t *testing.T) {
	be := testEmbedding(t)

	self, err := be.IndirectBias("nurse", "nurse")
	require.NoError(t, err)
	assert.InDelta(t, 0, self, 1e-9)

	// nurse and engineer only disagree along the direction, so removing it
	// increases their similarity.
	ib, err := be.IndirectBias("nurse", "engineer")
	require.NoError(t, err)
	assert.False(t, math.IsNaN(ib))
}

func TestIndirectBiasOrthogonal(t *testing.T) {
	kv := testStore(t)
	require.NoError(t, kv.Add("north", []float64{0, 1, 0}))
	require.NoError(t, kv.Add("up", []float64{0, 0, 1}))
	be, err := NewBiasEmbedding(kv, testBiasConfig(t))
	require.NoError(t, err)

	ib, err := be.IndirectBias("north", "up")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(ib) || math.IsInf(ib, 0))
}

func TestNeutralWords(t *testing.T) {
	be := testEmbedding(t)
	assert.Equal(t, []string{"nurse", "engineer", "doctor"}, be.NeutralWords())

	ignored := testEmbedding(t, WithWordMatcher(NewWordMatcherFromPatterns([]string{"doc*"})))
	assert.Equal(t, []string{"nurse", "engineer"}, ignored.NeutralWords())
}

func TestNeutralWordsSkipCaseForms(t *testing.T) {
	kv := testStore(t)
	require.NoError(t, kv.Add("She", Normalize([]float64{-1, 1, 0.1})))
	require.NoError(t, kv.Add("HE", Normalize([]float64{1, 1, 0.1})))
	be, err := NewBiasEmbedding(kv, testBiasConfig(t))
	require.NoError(t, err)

	assert.NotContains(t, be.NeutralWords(), "She")
	assert.NotContains(t, be.NeutralWords(), "HE")
}

func TestNeutralize(t *testing.T) {
	be := testEmbedding(t)
	words := []string{"nurse", "engineer", "doctor"}

	require.NoError(t, be.Neutralize(words))
	for _, w := range words {
		p, err := be.ProjectOnDirection(w)
		require.NoError(t, err)
		assert.InDelta(t, 0, p, 1e-9, w)
	}
	first := vectorOf(t, be.Store(), "nurse")

	require.NoError(t, be.Neutralize(words))
	assert.InDeltaSlice(t, first, vectorOf(t, be.Store(), "nurse"), 1e-12, "neutralize is idempotent")

	// Words outside the list are untouched.
	assert.InDeltaSlice(t, Normalize(genderVectors["he"]), vectorOf(t, be.Store(), "he"), 1e-12)
}

func TestNeutralizeChecksAllWordsFirst(t *testing.T) {
	be := testEmbedding(t)
	before := vectorOf(t, be.Store(), "nurse")

	err := be.Neutralize([]string{"nurse", "unicorn"})
	assert.ErrorIs(t, err, ErrWordNotFound)
	assert.Equal(t, before, vectorOf(t, be.Store(), "nurse"))
}

func TestEqualize(t *testing.T) {
	be := testEmbedding(t)
	d, _ := be.Direction()

	require.NoError(t, be.Equalize([][]string{{"queen", "king"}}))

	queen := vectorOf(t, be.Store(), "queen")
	king := vectorOf(t, be.Store(), "king")

	assert.InDelta(t, 1, floats.Norm(queen, 2), 1e-9)
	assert.InDelta(t, 1, floats.Norm(king, 2), 1e-9)

	pq, pk := floats.Dot(queen, d.Vector), floats.Dot(king, d.Vector)
	assert.InDelta(t, -pk, pq, 1e-9, "projections are opposite")
	assert.Greater(t, pk, 0.0, "king stays on the positive side")

	assert.InDeltaSlice(t, RejectVector(queen, d.Vector), RejectVector(king, d.Vector), 1e-9)

	// Equidistant from any neutralized word.
	require.NoError(t, be.Neutralize([]string{"doctor"}))
	doctor := vectorOf(t, be.Store(), "doctor")
	assert.InDelta(t, floats.Dot(doctor, queen), floats.Dot(doctor, king), 1e-9)
}

func TestEqualizeThreeWords(t *testing.T) {
	be := testEmbedding(t)
	d, _ := be.Direction()
	set := []string{"nurse", "engineer", "doctor"}

	require.NoError(t, be.Equalize([][]string{set}))
	require.NoError(t, be.Neutralize([]string{"man"}))
	man := vectorOf(t, be.Store(), "man")

	first := vectorOf(t, be.Store(), set[0])
	magnitude := math.Abs(floats.Dot(first, d.Vector))
	assert.Greater(t, magnitude, 0.0)

	for _, w := range set {
		v := vectorOf(t, be.Store(), w)
		p := floats.Dot(v, d.Vector)

		assert.InDelta(t, 1, floats.Norm(v, 2), 1e-9, w)
		assert.InDelta(t, magnitude, math.Abs(p), 1e-9, "%s: same distance from the complement", w)
		assert.InDeltaSlice(t, RejectVector(first, d.Vector), RejectVector(v, d.Vector), 1e-9, w)
		assert.InDelta(t, floats.Dot(man, first), floats.Dot(man, v), 1e-9, "%s: equidistant from a neutral word", w)
	}

	// Each word lands on the side of the set's mean projection it started on.
	assert.Less(t, floats.Dot(vectorOf(t, be.Store(), "nurse"), d.Vector), 0.0)
	assert.Greater(t, floats.Dot(vectorOf(t, be.Store(), "engineer"), d.Vector), 0.0)
	assert.Greater(t, floats.Dot(vectorOf(t, be.Store(), "doctor"), d.Vector), 0.0)
}

func TestEqualizeSingleton(t *testing.T) {
	be := testEmbedding(t)
	d, _ := be.Direction()

	require.NoError(t, be.Equalize([][]string{{"king"}}))
	king := vectorOf(t, be.Store(), "king")

	// A single word is its own center; its direction component vanishes.
	assert.InDelta(t, 0, floats.Dot(king, d.Vector), 1e-9)
}

func TestEqualizeNotUnitLength(t *testing.T) {
	kv := testStore(t)
	require.NoError(t, kv.Add("huge", []float64{0, 3, 3}))
	be, err := NewBiasEmbedding(kv, testBiasConfig(t))
	require.NoError(t, err)

	err = be.Equalize([][]string{{"huge", "nurse"}})
	assert.ErrorIs(t, err, ErrNotUnitLength)
	assert.True(t, IsPrecondition(err))
}

func TestEqualizeMissingWord(t *testing.T) {
	be := testEmbedding(t)
	before := vectorOf(t, be.Store(), "king")

	err := be.Equalize([][]string{{"queen", "king"}, {"unicorn", "he"}})
	assert.ErrorIs(t, err, ErrWordNotFound)
	assert.Equal(t, before, vectorOf(t, be.Store(), "king"))
}

func TestDebiasMethods(t *testing.T) {
	be := testEmbedding(t)

	assert.ErrorIs(t, be.Debias(DebiasSoft, nil, nil), ErrNotImplemented)
	assert.ErrorIs(t, be.Debias(DebiasMethod("gentle"), nil, nil), ErrUnsupportedMethod)

	_, err := ParseDebiasMethod("hard")
	assert.NoError(t, err)
	_, err = ParseDebiasMethod("gentle")
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestDebiasHardDefaults(t *testing.T) {
	be := testEmbedding(t)
	professions := []string{"nurse", "engineer", "doctor"}

	require.NoError(t, be.Debias(DebiasHard, nil, nil))

	bias, err := be.DirectBias(professions, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0, bias, 1e-9)

	// Definitional pairs are mirrored already, so equalizing keeps them.
	assert.InDeltaSlice(t, Normalize(genderVectors["he"]), vectorOf(t, be.Store(), "he"), 1e-9)
}

func TestDebiasedLeavesOriginal(t *testing.T) {
	be := testEmbedding(t)

	debiased, err := be.Debiased(DebiasNeutralize, []string{"nurse"}, nil)
	require.NoError(t, err)

	after, err := debiased.ProjectOnDirection("nurse")
	require.NoError(t, err)
	assert.InDelta(t, 0, after, 1e-9)

	before, err := be.ProjectOnDirection("nurse")
	require.NoError(t, err)
	assert.InDelta(t, -1.0/3, before, 1e-9)
}

func TestDebiasHardFailureLeavesStoreUnchanged(t *testing.T) {
	kv := testStore(t)
	require.NoError(t, kv.Add("huge", []float64{0, 3, 3}))
	be, err := NewBiasEmbedding(kv, testBiasConfig(t))
	require.NoError(t, err)

	before := make(map[string][]float64)
	for _, w := range kv.Words() {
		before[w] = vectorOf(t, kv, w)
	}

	err = be.Debias(DebiasHard, []string{"nurse", "doctor"}, [][]string{{"queen", "king"}, {"huge", "nurse"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotUnitLength)

	for w, v := range before {
		assert.Equal(t, v, vectorOf(t, kv, w), "%s changed after a failed debias", w)
	}
}

func TestDebiasValidatesBeforeNeutralizing(t *testing.T) {
	be := testEmbedding(t)
	before := vectorOf(t, be.Store(), "nurse")

	err := be.Debias(DebiasHard, []string{"nurse"}, [][]string{{"queen", "unicorn"}})
	assert.ErrorIs(t, err, ErrWordNotFound)
	assert.Equal(t, before, vectorOf(t, be.Store(), "nurse"))

	err = be.Debias(DebiasHard, []string{"nurse"}, [][]string{{}})
	assert.ErrorIs(t, err, ErrInvalidProblem)
	assert.Equal(t, before, vectorOf(t, be.Store(), "nurse"))
}

func TestDebiasHardEqualizesNeutralizedWords(t *testing.T) {
	be := testEmbedding(t)
	d, _ := be.Direction()

	require.NoError(t, be.Debias(DebiasHard, []string{"queen"}, [][]string{{"queen", "king"}}))

	queen := vectorOf(t, be.Store(), "queen")
	king := vectorOf(t, be.Store(), "king")
	assert.InDelta(t, -floats.Dot(king, d.Vector), floats.Dot(queen, d.Vector), 1e-9)
	assert.InDelta(t, 1, floats.Norm(queen, 2), 1e-9)
}
