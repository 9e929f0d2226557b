package internal

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

type DirectionMethod string

const (
	DirectionSingle DirectionMethod = "single"
	DirectionSum    DirectionMethod = "sum"
	DirectionPCA    DirectionMethod = "pca"
)

// FirstPCThreshold is the smallest explained-variance ratio of the first
// principal component accepted by the pca method.
const FirstPCThreshold = 0.5

func ParseDirectionMethod(s string) (DirectionMethod, error) {
	switch m := DirectionMethod(s); m {
	case DirectionSingle, DirectionSum, DirectionPCA:
		return m, nil
	}
	return "", precondition("parse direction method", ErrUnsupportedMethod, "%q", s)
}

// Direction is a unit vector pointing from NegativeEnd towards PositiveEnd.
type Direction struct {
	Vector            []float64       `json:"-"`
	PositiveEnd       string          `json:"positive_end"`
	NegativeEnd       string          `json:"negative_end"`
	Method            DirectionMethod `json:"method"`
	ExplainedVariance float64         `json:"explained_variance,omitempty"`
}

// IdentifyDirection derives the bias direction from definitional pairs.
// minExplainedVariance only applies to the pca method; zero means
// FirstPCThreshold.
func IdentifyDirection(store VectorStore, positiveEnd, negativeEnd string, definitional [][2]string,
	method DirectionMethod, minExplainedVariance float64) (*Direction, error) {
	if len(definitional) == 0 {
		return nil, precondition("identify direction", ErrInvalidProblem, "no definitional pairs")
	}
	for _, pair := range definitional {
		for _, w := range pair {
			if !store.Contains(w) {
				return nil, precondition("identify direction", ErrWordNotFound, "%q", w)
			}
		}
	}

	d := &Direction{PositiveEnd: positiveEnd, NegativeEnd: negativeEnd, Method: method}

	var err error
	switch method {
	case DirectionSingle:
		d.Vector, err = singleDirection(store, definitional[0])
	case DirectionSum:
		d.Vector, err = sumDirection(store, definitional)
	case DirectionPCA:
		if minExplainedVariance <= 0 {
			minExplainedVariance = FirstPCThreshold
		}
		d.Vector, d.ExplainedVariance, err = pcaDirection(store, definitional)
		if err == nil && d.ExplainedVariance < minExplainedVariance {
			return nil, fmt.Errorf("%w: first component explains %.4f of the variance, need at least %.4f",
				ErrInsufficientSeparability, d.ExplainedVariance, minExplainedVariance)
		}
	default:
		return nil, precondition("identify direction", ErrUnsupportedMethod, "%q", method)
	}
	if err != nil {
		return nil, err
	}

	if err := orient(store, d); err != nil {
		return nil, err
	}
	return d, nil
}

func singleDirection(store VectorStore, pair [2]string) ([]float64, error) {
	a, err := store.Vector(pair[0])
	if err != nil {
		return nil, err
	}
	b, err := store.Vector(pair[1])
	if err != nil {
		return nil, err
	}

	diff := make([]float64, len(a))
	floats.SubTo(diff, Normalize(a), Normalize(b))
	return Normalize(diff), nil
}

func sumDirection(store VectorStore, definitional [][2]string) ([]float64, error) {
	first := make([]float64, store.Dimension())
	second := make([]float64, store.Dimension())
	for _, pair := range definitional {
		a, err := store.Vector(pair[0])
		if err != nil {
			return nil, err
		}
		b, err := store.Vector(pair[1])
		if err != nil {
			return nil, err
		}
		floats.Add(first, a)
		floats.Add(second, b)
	}

	diff := make([]float64, len(first))
	floats.SubTo(diff, Normalize(first), Normalize(second))
	return Normalize(diff), nil
}

// pcaDirection stacks, for every pair, both normalized vectors minus the
// pair center and returns the first principal component with its share of
// the variance.
func pcaDirection(store VectorStore, definitional [][2]string) ([]float64, float64, error) {
	dim := store.Dimension()
	data := mat.NewDense(2*len(definitional), dim, nil)

	for i, pair := range definitional {
		a, err := store.Vector(pair[0])
		if err != nil {
			return nil, 0, err
		}
		b, err := store.Vector(pair[1])
		if err != nil {
			return nil, 0, err
		}
		a, b = Normalize(a), Normalize(b)
		center := meanVector([][]float64{a, b})

		row := make([]float64, dim)
		floats.SubTo(row, a, center)
		data.SetRow(2*i, row)
		floats.SubTo(row, b, center)
		data.SetRow(2*i+1, row)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return nil, 0, fmt.Errorf("principal components: decomposition failed")
	}

	vars := pc.VarsTo(nil)
	total := floats.Sum(vars)
	ratio := vars[0] / total

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	component := mat.Col(nil, 0, &vecs)
	return Normalize(component), ratio, nil
}

// orient flips the vector so that PositiveEnd - NegativeEnd projects onto it
// non-negatively. Ends missing from the store leave the sign as computed.
func orient(store VectorStore, d *Direction) error {
	if !store.Contains(d.PositiveEnd) || !store.Contains(d.NegativeEnd) {
		return nil
	}
	pos, err := store.Vector(d.PositiveEnd)
	if err != nil {
		return err
	}
	neg, err := store.Vector(d.NegativeEnd)
	if err != nil {
		return err
	}

	diff := make([]float64, len(pos))
	floats.SubTo(diff, pos, neg)
	if floats.Dot(diff, d.Vector) < 0 {
		floats.Scale(-1, d.Vector)
	}
	return nil
}
