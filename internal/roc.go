package internal

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

// ROCCurve holds one group's operating points. Element i is the (FPR, TPR)
// obtained when scores >= Thresholds[i] are accepted.
type ROCCurve struct {
	FPR        []float64 `json:"fpr"`
	TPR        []float64 `json:"tpr"`
	Thresholds []float64 `json:"thresholds"`
}

func (c ROCCurve) Len() int {
	return len(c.Thresholds)
}

// ROCCurves maps a group name to its curve.
type ROCCurves map[string]ROCCurve

// Groups returns the group names in sorted order.
func (r ROCCurves) Groups() []string {
	groups := make([]string, 0, len(r))
	for g := range r {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// SharedThresholds returns the threshold array common to all groups.
func (r ROCCurves) SharedThresholds() []float64 {
	groups := r.Groups()
	if len(groups) == 0 {
		return nil
	}
	return r[groups[0]].Thresholds
}

func (r ROCCurves) validate() error {
	if len(r) == 0 {
		return precondition("validate roc", ErrInvalidProblem, "no groups")
	}

	var shared []float64
	for i, g := range r.Groups() {
		c := r[g]
		if c.Len() == 0 {
			return precondition("validate roc", ErrInvalidProblem, "group %q has an empty curve", g)
		}
		if len(c.FPR) != c.Len() || len(c.TPR) != c.Len() {
			return precondition("validate roc", ErrInvalidProblem,
				"group %q: fpr/tpr/thresholds lengths %d/%d/%d", g, len(c.FPR), len(c.TPR), c.Len())
		}
		for j := range c.FPR {
			if !inUnitInterval(c.FPR[j]) || !inUnitInterval(c.TPR[j]) {
				return precondition("validate roc", ErrInvalidProblem, "group %q: rate out of [0,1] at index %d", g, j)
			}
		}
		if !strictlyOrdered(c.Thresholds) {
			return precondition("validate roc", ErrInvalidProblem, "group %q: thresholds are not strictly ordered", g)
		}
		if i == 0 {
			shared = c.Thresholds
			continue
		}
		if !slices.Equal(shared, c.Thresholds) {
			return precondition("validate roc", ErrHeterogeneousThresholds, "group %q", g)
		}
	}
	return nil
}

// strictlyOrdered reports whether xs strictly increases or strictly
// decreases.
func strictlyOrdered(xs []float64) bool {
	if len(xs) < 2 {
		return true
	}
	increasing, decreasing := true, true
	for i := 1; i < len(xs); i++ {
		increasing = increasing && xs[i] > xs[i-1]
		decreasing = decreasing && xs[i] < xs[i-1]
	}
	return increasing || decreasing
}

func inUnitInterval(x float64) bool {
	return x >= 0 && x <= 1
}

// AUC is the area under the curve by the trapezoidal rule.
func AUC(c ROCCurve) (float64, error) {
	if !isNonDecreasing(c.FPR) {
		return 0, precondition("auc", ErrNotMonotonic, "fpr")
	}
	if len(c.FPR) < 2 || len(c.TPR) != len(c.FPR) {
		return 0, nil
	}
	return integrate.Trapezoidal(c.FPR, c.TPR), nil
}

// ScoredSample is one classified individual.
type ScoredSample struct {
	Label int
	Score float64
	Group string
}

// ScoreSummary is everything the threshold strategies need, derived from
// raw scored samples.
type ScoreSummary struct {
	Curves      ROCCurves
	BaseRates   map[string]float64
	Proportions map[string]float64
	BaseRate    float64
}

// ROCCurvesFromScores builds per-group ROC curves. Thresholds are the
// distinct scores in decreasing order, preceded by max(score)+1 which
// accepts nobody. Every group must contain every score value, otherwise the
// thresholds would not be shared.
func ROCCurvesFromScores(samples []ScoredSample) (*ScoreSummary, error) {
	if len(samples) == 0 {
		return nil, precondition("roc from scores", ErrInvalidProblem, "no samples")
	}

	byGroup := make(map[string][]ScoredSample)
	positives := 0
	for _, s := range samples {
		if s.Label != 0 && s.Label != 1 {
			return nil, precondition("roc from scores", ErrNotBinary, "label %d", s.Label)
		}
		positives += s.Label
		byGroup[s.Group] = append(byGroup[s.Group], s)
	}

	summary := &ScoreSummary{
		Curves:      make(ROCCurves, len(byGroup)),
		BaseRates:   make(map[string]float64, len(byGroup)),
		Proportions: make(map[string]float64, len(byGroup)),
		BaseRate:    float64(positives) / float64(len(samples)),
	}

	for g, group := range byGroup {
		curve, baseRate := groupROC(group)
		summary.Curves[g] = curve
		summary.BaseRates[g] = baseRate
		summary.Proportions[g] = float64(len(group)) / float64(len(samples))
	}

	if err := summary.Curves.validate(); err != nil {
		return nil, err
	}
	return summary, nil
}

func groupROC(group []ScoredSample) (ROCCurve, float64) {
	sorted := slices.Clone(group)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	var pos, neg float64
	for _, s := range sorted {
		if s.Label == 1 {
			pos++
		} else {
			neg++
		}
	}

	curve := ROCCurve{
		FPR:        []float64{0},
		TPR:        []float64{0},
		Thresholds: []float64{sorted[0].Score + 1},
	}

	var tp, fp float64
	for i, s := range sorted {
		if s.Label == 1 {
			tp++
		} else {
			fp++
		}
		if i+1 < len(sorted) && sorted[i+1].Score == s.Score {
			continue
		}
		curve.Thresholds = append(curve.Thresholds, s.Score)
		curve.FPR = append(curve.FPR, safeRate(fp, neg))
		curve.TPR = append(curve.TPR, safeRate(tp, pos))
	}

	return curve, pos / (pos + neg)
}

// safeRate mirrors the NaN that an all-positive or all-negative group yields;
// validation then reports it as out of range.
func safeRate(count, total float64) float64 {
	if total == 0 {
		return math.NaN()
	}
	return count / total
}

func sumValues(m map[string]float64) float64 {
	vals := make([]float64, 0, len(m))
	for _, v := range m {
		vals = append(vals, v)
	}
	return floats.Sum(vals)
}
