package internal

import (
	"gonum.org/v1/gonum/floats"
)

// TernarySearchTol is the interval width at which TernarySearch stops.
const TernarySearchTol = 1e-3

// TernarySearch minimizes f over [left, right] to within tol and returns the
// midpoint of the final interval.
//
// The result is the global minimum only when f is quasiconvex on the
// interval. Otherwise it is a local minimum; callers that cannot guarantee
// quasiconvexity should compare against a grid (see gridMinimum).
func TernarySearch(f func(float64) float64, left, right, tol float64) float64 {
	for right-left > tol {
		leftThird := (2*left + right) / 3
		rightThird := (left + 2*right) / 3
		if f(leftThird) < f(rightThird) {
			right = rightThird
		} else {
			left = leftThird
		}
	}
	return (left + right) / 2
}

// gridMinimum evaluates f at n evenly spaced points of [left, right] and
// returns the best point and its value.
func gridMinimum(f func(float64) float64, left, right float64, n int) (float64, float64) {
	xs := make([]float64, n)
	floats.Span(xs, left, right)

	best, bestVal := xs[0], f(xs[0])
	for _, x := range xs[1:] {
		if v := f(x); v < bestVal {
			best, bestVal = x, v
		}
	}
	return best, bestVal
}

// FirstIndexAbove returns the smallest i with arr[i] > value, or len(arr) if
// there is none. arr must not decrease anywhere; ties are allowed because
// ROC rate arrays repeat values.
func FirstIndexAbove(arr []float64, value float64) (int, error) {
	if !isNonDecreasing(arr) {
		return 0, precondition("first index above", ErrNotMonotonic, "")
	}
	return firstIndexAbove(arr, value), nil
}

func firstIndexAbove(arr []float64, value float64) int {
	for i, v := range arr {
		if v > value {
			return i
		}
	}
	return len(arr)
}

func isNonDecreasing(arr []float64) bool {
	for i := 1; i < len(arr); i++ {
		if arr[i] < arr[i-1] {
			return false
		}
	}
	return true
}

// CostMatrix is laid out as [[tn, fp], [fn, tp]].
//
// Entries are read as payoffs per unit of population: strategies maximize
// the weighted payoff and report its negation as the cost.
type CostMatrix [2][2]float64

// ConfusionProportions returns tn, fp, fn and tp as fractions of the group.
func ConfusionProportions(fpr, tpr, baseRate float64) [4]float64 {
	fp := fpr * (1 - baseRate)
	tn := (1 - baseRate) - fp
	tp := tpr * baseRate
	fn := baseRate - tp
	return [4]float64{tn, fp, fn, tp}
}

// Payoff is the dot product of the confusion proportions with the
// flattened matrix.
func (m CostMatrix) Payoff(fpr, tpr, baseRate float64) float64 {
	conf := ConfusionProportions(fpr, tpr, baseRate)
	flat := []float64{m[0][0], m[0][1], m[1][0], m[1][1]}
	return floats.Dot(conf[:], flat)
}
