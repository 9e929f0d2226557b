package internal

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
)

type DebiasMethod string

const (
	DebiasNeutralize DebiasMethod = "neutralize"
	DebiasHard       DebiasMethod = "hard"
	DebiasSoft       DebiasMethod = "soft"
)

func ParseDebiasMethod(s string) (DebiasMethod, error) {
	switch m := DebiasMethod(s); m {
	case DebiasNeutralize, DebiasHard, DebiasSoft:
		return m, nil
	}
	return "", precondition("parse debias method", ErrUnsupportedMethod, "%q", s)
}

// unitLengthTol absorbs rounding in 1 - ||rejected center||^2 when the
// vectors are unit length up to float error.
const unitLengthTol = 1e-9

// BiasEmbedding measures and removes one bias direction from a word
// embedding.
type BiasEmbedding struct {
	store     VectorStore
	direction *Direction
	cfg       BiasConfig
	ignore    *WordMatcher
	log       zerolog.Logger

	method       DirectionMethod
	minExplained float64
	identify     bool
}

type EmbeddingOption func(*BiasEmbedding)

func WithEmbeddingLogger(log zerolog.Logger) EmbeddingOption {
	return func(b *BiasEmbedding) {
		b.log = log
	}
}

// WithDirectionMethod selects how the direction is identified at
// construction. The default is pca.
func WithDirectionMethod(m DirectionMethod) EmbeddingOption {
	return func(b *BiasEmbedding) {
		b.method = m
	}
}

func WithMinExplainedVariance(v float64) EmbeddingOption {
	return func(b *BiasEmbedding) {
		b.minExplained = v
	}
}

// WithWordMatcher excludes matched words from the default neutral words.
func WithWordMatcher(m *WordMatcher) EmbeddingOption {
	return func(b *BiasEmbedding) {
		b.ignore = m
	}
}

// WithoutIdentification leaves the direction unset until Identify is called.
func WithoutIdentification() EmbeddingOption {
	return func(b *BiasEmbedding) {
		b.identify = false
	}
}

// NewBiasEmbedding wraps store and identifies the direction described by
// cfg's ends and definitional pairs.
func NewBiasEmbedding(store VectorStore, cfg BiasConfig, opts ...EmbeddingOption) (*BiasEmbedding, error) {
	b := &BiasEmbedding{
		store:        store,
		cfg:          cfg,
		ignore:       NewWordMatcherFromPatterns(nil),
		log:          zerolog.Nop(),
		method:       DirectionPCA,
		minExplained: FirstPCThreshold,
		identify:     true,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.identify {
		if err := b.Identify(cfg.PositiveEnd(), cfg.NegativeEnd(), cfg.DefinitionalPairs(), b.method); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Identify replaces the current direction.
func (b *BiasEmbedding) Identify(positiveEnd, negativeEnd string, definitional [][2]string, method DirectionMethod) error {
	d, err := IdentifyDirection(b.store, positiveEnd, negativeEnd, definitional, method, b.minExplained)
	if err != nil {
		return fmt.Errorf("identify direction: %w", err)
	}
	b.direction = d

	b.log.Debug().
		Str("method", string(method)).
		Str("positive_end", positiveEnd).
		Str("negative_end", negativeEnd).
		Float64("explained_variance", d.ExplainedVariance).
		Msg("direction identified")
	return nil
}

// Direction returns a copy of the identified direction.
func (b *BiasEmbedding) Direction() (*Direction, error) {
	if b.direction == nil {
		return nil, ErrDirectionNotIdentified
	}
	d := *b.direction
	d.Vector = slices.Clone(b.direction.Vector)
	return &d, nil
}

func (b *BiasEmbedding) directionVector() ([]float64, error) {
	if b.direction == nil {
		return nil, ErrDirectionNotIdentified
	}
	return b.direction.Vector, nil
}

func (b *BiasEmbedding) Store() VectorStore {
	return b.store
}

func (b *BiasEmbedding) Config() BiasConfig {
	return b.cfg
}

// Clone deep-copies the store and the direction.
func (b *BiasEmbedding) Clone() *BiasEmbedding {
	c := *b
	c.store = b.store.Clone()
	if b.direction != nil {
		c.direction, _ = b.Direction()
	}
	return &c
}

// ProjectOnDirection is the cosine similarity of word with the direction.
func (b *BiasEmbedding) ProjectOnDirection(word string) (float64, error) {
	dir, err := b.directionVector()
	if err != nil {
		return 0, err
	}
	v, err := b.store.Vector(word)
	if err != nil {
		return 0, err
	}
	return CosineSimilarity(dir, v), nil
}

type WordProjection struct {
	Word       string  `json:"word"`
	Projection float64 `json:"projection"`
}

// ProjectionScores projects every word and sorts by decreasing projection.
func (b *BiasEmbedding) ProjectionScores(words []string) ([]WordProjection, error) {
	scores := make([]WordProjection, 0, len(words))
	for _, w := range words {
		p, err := b.ProjectOnDirection(w)
		if err != nil {
			return nil, err
		}
		scores = append(scores, WordProjection{Word: w, Projection: p})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Projection > scores[j].Projection
	})
	return scores, nil
}

// DirectBias is the mean of |projection|^c over words. c <= 0 means 1.
func (b *BiasEmbedding) DirectBias(words []string, c float64) (float64, error) {
	if c <= 0 {
		c = 1
	}
	if len(words) == 0 {
		return 0, precondition("direct bias", ErrInvalidProblem, "no words")
	}

	scores, err := b.ProjectionScores(words)
	if err != nil {
		return 0, err
	}

	terms := make([]float64, len(scores))
	for i, s := range scores {
		terms[i] = math.Pow(math.Abs(s.Projection), c)
	}
	return floats.Sum(terms) / float64(len(words)), nil
}

// IndirectBias is the share of the similarity of w1 and w2 that is due to
// the direction. It is ±Inf or NaN when the words are orthogonal.
func (b *BiasEmbedding) IndirectBias(w1, w2 string) (float64, error) {
	dir, err := b.directionVector()
	if err != nil {
		return 0, err
	}
	v1, err := b.store.Vector(w1)
	if err != nil {
		return 0, err
	}
	v2, err := b.store.Vector(w2)
	if err != nil {
		return 0, err
	}

	v1, v2 = Normalize(v1), Normalize(v2)
	inner := floats.Dot(v1, v2)
	perpendicular := CosineSimilarity(RejectVector(v1, dir), RejectVector(v2, dir))

	return (inner - perpendicular) / inner, nil
}

// NeutralWords is the vocabulary minus the bias-specific words in any case
// form, minus words matched by the word matcher.
func (b *BiasEmbedding) NeutralWords() []string {
	specific := b.cfg.SpecificWithDefinitional()
	excluded := make(map[string]bool, 4*len(specific))
	for _, w := range slices.Concat(specific, GenerateWordForms(specific)) {
		excluded[w] = true
	}

	var neutral []string
	for _, w := range b.store.Words() {
		if !excluded[w] {
			neutral = append(neutral, w)
		}
	}
	return b.ignore.Filter(neutral)
}

func (b *BiasEmbedding) checkWords(op string, words []string) error {
	for _, w := range words {
		if !b.store.Contains(w) {
			return precondition(op, ErrWordNotFound, "%q", w)
		}
	}
	return nil
}

// Neutralize removes the direction component from every word. All words are
// checked before any vector changes.
func (b *BiasEmbedding) Neutralize(words []string) error {
	dir, err := b.directionVector()
	if err != nil {
		return err
	}
	if err := b.checkWords("neutralize", words); err != nil {
		return err
	}

	for _, w := range words {
		v, err := b.store.Vector(w)
		if err != nil {
			return err
		}
		if err := b.store.SetVector(w, RejectVector(v, dir)); err != nil {
			return err
		}
	}

	b.log.Info().Int("words", len(words)).Msg("neutralized")
	return nil
}

// Equalize moves the words of each set to be equidistant from the
// direction's orthogonal complement while keeping their side of it. The
// vectors must be unit length for the result to be. Every set is computed
// before any vector is written, so a failing set leaves the store as it was.
func (b *BiasEmbedding) Equalize(sets [][]string) error {
	dir, err := b.directionVector()
	if err != nil {
		return err
	}
	if err := b.checkSets(sets); err != nil {
		return err
	}

	staged, err := b.stageEqualize(sets, dir, nil)
	if err != nil {
		return err
	}
	if err := b.commit(staged); err != nil {
		return err
	}

	b.log.Info().Int("sets", len(sets)).Msg("equalized")
	return nil
}

func (b *BiasEmbedding) checkSets(sets [][]string) error {
	for _, set := range sets {
		if len(set) == 0 {
			return precondition("equalize", ErrInvalidProblem, "empty equality set")
		}
		if err := b.checkWords("equalize", set); err != nil {
			return err
		}
	}
	return nil
}

// stageEqualize computes the equalized vector of every set word without
// touching the store. A word in several sets starts from its earlier
// result. Words in neutralized are read as if Neutralize had run first.
func (b *BiasEmbedding) stageEqualize(sets [][]string, dir []float64, neutralized map[string]bool) (map[string][]float64, error) {
	staged := make(map[string][]float64)
	for _, set := range sets {
		vectors := make([][]float64, len(set))
		for i, w := range set {
			if v, ok := staged[w]; ok {
				vectors[i] = v
				continue
			}
			v, err := b.store.Vector(w)
			if err != nil {
				return nil, err
			}
			if neutralized[w] {
				v = RejectVector(v, dir)
			}
			vectors[i] = v
		}

		updated, err := equalizeVectors(set, vectors, dir)
		if err != nil {
			return nil, err
		}
		for i, w := range set {
			staged[w] = updated[i]
		}
	}
	return staged, nil
}

func (b *BiasEmbedding) commit(staged map[string][]float64) error {
	for w, v := range staged {
		if err := b.store.SetVector(w, v); err != nil {
			return err
		}
	}
	return nil
}

func equalizeVectors(set []string, vectors [][]float64, dir []float64) ([][]float64, error) {
	center := meanVector(vectors)
	projectedCenter, rejectedCenter := ProjectRejectVector(center, dir)

	rejectedNorm := floats.Norm(rejectedCenter, 2)
	residual := 1 - rejectedNorm*rejectedNorm
	if residual < 0 {
		if residual < -unitLengthTol {
			return nil, precondition("equalize", ErrNotUnitLength,
				"set %v: rejected center has norm %v", set, rejectedNorm)
		}
		residual = 0
	}
	scaling := math.Sqrt(residual)

	updated := make([][]float64, len(vectors))
	for i, v := range vectors {
		projected := ProjectVector(v, dir)
		floats.Sub(projected, projectedCenter)
		part := Normalize(projected)

		out := make([]float64, len(v))
		floats.AddScaledTo(out, rejectedCenter, scaling, part)
		updated[i] = out
	}
	return updated, nil
}

// Debias applies method in place. Nil word lists fall back to NeutralWords
// and the config's equality sets. All inputs are validated and every
// equalized vector is computed before the store changes, so an error
// leaves it untouched.
func (b *BiasEmbedding) Debias(method DebiasMethod, neutral []string, sets [][]string) error {
	switch method {
	case DebiasNeutralize, DebiasHard:
	case DebiasSoft:
		return fmt.Errorf("debias %s: %w", method, ErrNotImplemented)
	default:
		return precondition("debias", ErrUnsupportedMethod, "%q", method)
	}
	dir, err := b.directionVector()
	if err != nil {
		return err
	}

	if neutral == nil {
		neutral = b.NeutralWords()
	}
	if err := b.checkWords("neutralize", neutral); err != nil {
		return fmt.Errorf("neutralize: %w", err)
	}

	var staged map[string][]float64
	if method == DebiasHard {
		if sets == nil {
			sets = b.cfg.EqualitySets()
		}
		if err := b.checkSets(sets); err != nil {
			return fmt.Errorf("equalize: %w", err)
		}
		neutralized := make(map[string]bool, len(neutral))
		for _, w := range neutral {
			neutralized[w] = true
		}
		if staged, err = b.stageEqualize(sets, dir, neutralized); err != nil {
			return fmt.Errorf("equalize: %w", err)
		}
	}

	if err := b.Neutralize(neutral); err != nil {
		return fmt.Errorf("neutralize: %w", err)
	}
	if staged == nil {
		return nil
	}
	if err := b.commit(staged); err != nil {
		return fmt.Errorf("equalize: %w", err)
	}
	b.log.Info().Int("sets", len(sets)).Msg("equalized")
	return nil
}

// Debiased applies method to a deep copy and leaves b untouched.
func (b *BiasEmbedding) Debiased(method DebiasMethod, neutral []string, sets [][]string) (*BiasEmbedding, error) {
	c := b.Clone()
	if err := c.Debias(method, neutral, sets); err != nil {
		return nil, err
	}
	return c, nil
}
