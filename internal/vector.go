package internal

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged. The result never aliases v.
func Normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)

	norm := floats.Norm(out, 2)
	if norm == 0 {
		return out
	}
	floats.Scale(1/norm, out)
	return out
}

// NormalizeMat normalizes a row or column matrix. Anything with more than one
// row and more than one column is rejected.
func NormalizeMat(m mat.Matrix) ([]float64, error) {
	r, c := m.Dims()
	if r != 1 && c != 1 {
		return nil, precondition("normalize", ErrNotVector, "%d-by-%d matrix", r, c)
	}

	v := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v = append(v, m.At(i, j))
		}
	}
	return Normalize(v), nil
}

// CosineSimilarity is NaN when either vector is zero.
func CosineSimilarity(v, u []float64) float64 {
	return floats.Dot(v, u) / (floats.Norm(v, 2) * floats.Norm(u, 2))
}

// ProjectVector projects v onto the direction u.
func ProjectVector(v, u []float64) []float64 {
	_, projected, _ := ProjectParams(v, u)
	return projected
}

// RejectVector removes the component of v along u.
func RejectVector(v, u []float64) []float64 {
	_, _, rejected := ProjectParams(v, u)
	return rejected
}

func ProjectRejectVector(v, u []float64) (projected, rejected []float64) {
	_, projected, rejected = ProjectParams(v, u)
	return projected, rejected
}

// ProjectParams returns the scalar projection of v on u along with the
// projected and rejected parts. projected + rejected == v.
func ProjectParams(v, u []float64) (projection float64, projected, rejected []float64) {
	unit := Normalize(u)
	projection = floats.Dot(v, unit)

	projected = make([]float64, len(unit))
	floats.ScaleTo(projected, projection, unit)

	rejected = make([]float64, len(v))
	floats.SubTo(rejected, v, projected)

	return projection, projected, rejected
}

func meanVector(vectors [][]float64) []float64 {
	center := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		floats.Add(center, v)
	}
	floats.Scale(1/float64(len(vectors)), center)
	return center
}
