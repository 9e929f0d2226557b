package internal

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

type Strategy string

const (
	StrategySingle       Strategy = "single"
	StrategyMinCost      Strategy = "min_cost"
	StrategyIndependence Strategy = "independence"
	StrategyFNR          Strategy = "fnr"
	StrategySeparation   Strategy = "separation"
)

// AllStrategies lists the strategies in the order Find reports them.
var AllStrategies = []Strategy{
	StrategySingle,
	StrategyMinCost,
	StrategyIndependence,
	StrategyFNR,
	StrategySeparation,
}

func ParseStrategy(s string) (Strategy, error) {
	for _, st := range AllStrategies {
		if string(st) == s {
			return st, nil
		}
	}
	return "", precondition("parse strategy", ErrUnsupportedMethod, "%q", s)
}

type OperatingPoint struct {
	FPR float64 `json:"fpr"`
	TPR float64 `json:"tpr"`
}

// ThresholdResult is the outcome of one strategy. Single-threshold results
// set Threshold; per-group strategies set Thresholds. Separation sets
// neither: groups may reach the shared point through different curve
// points, so only the operating point under the "" key is meaningful.
// Threshold and Target are pointers so that a legitimate zero survives
// JSON encoding while unset values are omitted.
type ThresholdResult struct {
	Strategy        Strategy                  `json:"strategy"`
	Threshold       *float64                  `json:"threshold,omitempty"`
	Thresholds      map[string]float64        `json:"thresholds"`
	OperatingPoints map[string]OperatingPoint `json:"operating_points"`
	Cost            float64                   `json:"cost"`
	Target          *float64                  `json:"target,omitempty"`
}

// ThresholdProblem is the input shared by all strategies. When BaseRate is
// nil the overall base rate is derived from the group statistics.
type ThresholdProblem struct {
	Curves      ROCCurves
	BaseRates   map[string]float64
	Proportions map[string]float64
	BaseRate    *float64
	Costs       CostMatrix
}

const proportionTol = 1e-6

func (p ThresholdProblem) validate() error {
	if err := p.Curves.validate(); err != nil {
		return err
	}

	for _, g := range p.Curves.Groups() {
		br, ok := p.BaseRates[g]
		if !ok {
			return precondition("validate problem", ErrInvalidProblem, "missing base rate for %q", g)
		}
		if !inUnitInterval(br) {
			return precondition("validate problem", ErrInvalidProblem, "base rate %v for %q", br, g)
		}
		if _, ok := p.Proportions[g]; !ok {
			return precondition("validate problem", ErrInvalidProblem, "missing proportion for %q", g)
		}
	}

	if sum := sumValues(p.Proportions); math.Abs(sum-1) > proportionTol {
		return precondition("validate problem", ErrInvalidProblem, "proportions sum to %v", sum)
	}

	if p.BaseRate != nil && !inUnitInterval(*p.BaseRate) {
		return precondition("validate problem", ErrInvalidProblem, "overall base rate %v", *p.BaseRate)
	}
	return nil
}

// OverallBaseRate is the configured base rate, or the proportion-weighted
// group base rate.
func (p ThresholdProblem) OverallBaseRate() float64 {
	if p.BaseRate != nil {
		return *p.BaseRate
	}
	var rate float64
	for g, br := range p.BaseRates {
		rate += br * p.Proportions[g]
	}
	return rate
}

// ThresholdSelector runs the threshold strategies over a validated problem.
// It is safe for concurrent use; all state is read-only after construction.
type ThresholdSelector struct {
	problem    ThresholdProblem
	groups     []string
	thresholds []float64
	tol        float64
	log        zerolog.Logger

	acceptOnce  sync.Once
	acceptRates map[string][]float64
}

type SelectorOption func(*ThresholdSelector)

func WithSearchTolerance(tol float64) SelectorOption {
	return func(s *ThresholdSelector) {
		if tol > 0 {
			s.tol = tol
		}
	}
}

func WithSelectorLogger(log zerolog.Logger) SelectorOption {
	return func(s *ThresholdSelector) {
		s.log = log
	}
}

func NewThresholdSelector(problem ThresholdProblem, opts ...SelectorOption) (*ThresholdSelector, error) {
	if err := problem.validate(); err != nil {
		return nil, err
	}

	s := &ThresholdSelector{
		problem:    problem,
		groups:     problem.Curves.Groups(),
		thresholds: problem.Curves.SharedThresholds(),
		tol:        TernarySearchTol,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *ThresholdSelector) groupPayoff(group string, index int) float64 {
	c := s.problem.Curves[group]
	return s.problem.Costs.Payoff(c.FPR[index], c.TPR[index], s.problem.BaseRates[group])
}

// totalCost is the negated proportion-weighted payoff of choosing
// indices[g] for every group g.
func (s *ThresholdSelector) totalCost(indices map[string]int) float64 {
	var total float64
	for _, g := range s.groups {
		total += s.groupPayoff(g, indices[g]) * s.problem.Proportions[g]
	}
	return -total
}

func (s *ThresholdSelector) pointsAt(indices map[string]int) map[string]OperatingPoint {
	points := make(map[string]OperatingPoint, len(indices))
	for g, i := range indices {
		c := s.problem.Curves[g]
		points[g] = OperatingPoint{FPR: c.FPR[i], TPR: c.TPR[i]}
	}
	return points
}

func (s *ThresholdSelector) thresholdsAt(indices map[string]int) map[string]float64 {
	out := make(map[string]float64, len(indices))
	for g, i := range indices {
		out[g] = s.thresholds[i]
	}
	return out
}

func (s *ThresholdSelector) sameIndex(index int) map[string]int {
	indices := make(map[string]int, len(s.groups))
	for _, g := range s.groups {
		indices[g] = index
	}
	return indices
}

// SingleThreshold picks the one shared threshold with the lowest total cost
// by exhaustive scan; ties go to the lowest index.
func (s *ThresholdSelector) SingleThreshold() ThresholdResult {
	costs := make([]float64, len(s.thresholds))
	for i := range costs {
		costs[i] = s.totalCost(s.sameIndex(i))
	}
	best := floats.MinIdx(costs)
	indices := s.sameIndex(best)

	threshold := s.thresholds[best]
	return ThresholdResult{
		Strategy:        StrategySingle,
		Threshold:       &threshold,
		OperatingPoints: s.pointsAt(indices),
		Cost:            costs[best],
	}
}

// MinCostThresholds picks each group's own cheapest threshold with no
// cross-group constraint.
func (s *ThresholdSelector) MinCostThresholds() ThresholdResult {
	indices := make(map[string]int, len(s.groups))
	var cost float64

	for _, g := range s.groups {
		costs := make([]float64, len(s.thresholds))
		for i := range costs {
			costs[i] = -s.groupPayoff(g, i)
		}
		best := floats.MinIdx(costs)
		indices[g] = best
		cost += costs[best] * s.problem.Proportions[g]
	}

	return ThresholdResult{
		Strategy:        StrategyMinCost,
		Thresholds:      s.thresholdsAt(indices),
		OperatingPoints: s.pointsAt(indices),
		Cost:            cost,
	}
}

// AcceptanceRate is the fraction of a group classified positive at
// (fpr, tpr).
func AcceptanceRate(fpr, tpr, baseRate float64) float64 {
	return fpr*(1-baseRate) + tpr*baseRate
}

func (s *ThresholdSelector) acceptanceRates() map[string][]float64 {
	s.acceptOnce.Do(func() {
		s.acceptRates = make(map[string][]float64, len(s.groups))
		for _, g := range s.groups {
			c := s.problem.Curves[g]
			br := s.problem.BaseRates[g]
			rates := make([]float64, c.Len())
			for i := range rates {
				rates[i] = AcceptanceRate(c.FPR[i], c.TPR[i], br)
			}
			s.acceptRates[g] = rates
		}
	})
	return s.acceptRates
}

// clampIndex keeps a first-index-above result addressable.
func clampIndex(i, n int) int {
	return max(0, min(i, n-1))
}

// AcceptanceRateIndices returns, per group, the first curve index whose
// acceptance rate exceeds target.
func (s *ThresholdSelector) AcceptanceRateIndices(target float64) (map[string]int, error) {
	rates := s.acceptanceRates()
	indices := make(map[string]int, len(s.groups))
	for _, g := range s.groups {
		i, err := FirstIndexAbove(rates[g], target)
		if err != nil {
			return nil, fmt.Errorf("acceptance rates of %q: %w", g, err)
		}
		indices[g] = clampIndex(i, len(rates[g]))
	}
	return indices, nil
}

// FNRIndices returns, per group, the last curve index whose TPR does not
// exceed 1-fnr, floored at zero.
func (s *ThresholdSelector) FNRIndices(fnr float64) (map[string]int, error) {
	indices := make(map[string]int, len(s.groups))
	for _, g := range s.groups {
		tprs := s.problem.Curves[g].TPR
		i, err := FirstIndexAbove(tprs, 1-fnr)
		if err != nil {
			return nil, fmt.Errorf("tpr of %q: %w", g, err)
		}
		indices[g] = clampIndex(i-1, len(tprs))
	}
	return indices, nil
}

// searchTarget ternary-searches the shared target in [0, 1].
func (s *ThresholdSelector) searchTarget(strategy Strategy, indicesFor func(float64) (map[string]int, error)) (ThresholdResult, error) {
	// Monotonicity is checked once up front so the objective cannot fail.
	if _, err := indicesFor(0); err != nil {
		return ThresholdResult{}, fmt.Errorf("%s: %w", strategy, err)
	}

	objective := func(target float64) float64 {
		indices, _ := indicesFor(target)
		return s.totalCost(indices)
	}

	target := TernarySearch(objective, 0, 1, s.tol)
	indices, _ := indicesFor(target)
	cost := s.totalCost(indices)

	if gridTarget, gridCost := gridMinimum(objective, 0, 1, 101); gridCost < cost-1e-9 {
		s.log.Warn().
			Str("strategy", string(strategy)).
			Float64("ternary_target", target).
			Float64("ternary_cost", cost).
			Float64("grid_target", gridTarget).
			Float64("grid_cost", gridCost).
			Msg("cost is not quasiconvex in the target; ternary search found a local minimum")
	}

	return ThresholdResult{
		Strategy:        strategy,
		Thresholds:      s.thresholdsAt(indices),
		OperatingPoints: s.pointsAt(indices),
		Cost:            cost,
		Target:          &target,
	}, nil
}

// IndependenceThresholds equalizes acceptance rates across groups
// (demographic parity) and searches the shared rate minimizing cost.
func (s *ThresholdSelector) IndependenceThresholds() (ThresholdResult, error) {
	return s.searchTarget(StrategyIndependence, s.AcceptanceRateIndices)
}

// FNRThresholds equalizes false negative rates (equal opportunity) and
// searches the shared FNR minimizing cost.
func (s *ThresholdSelector) FNRThresholds() (ThresholdResult, error) {
	return s.searchTarget(StrategyFNR, s.FNRIndices)
}

// Hulls returns each group's ROC convex hull.
func (s *ThresholdSelector) Hulls() map[string]Hull {
	hulls := make(map[string]Hull, len(s.groups))
	for _, g := range s.groups {
		hulls[g] = NewHull(curvePoints(s.problem.Curves[g]))
	}
	return hulls
}

// FeasiblePoints returns every ROC vertex, of any group, that lies in the
// hull of every group.
func (s *ThresholdSelector) FeasiblePoints() []r2.Vec {
	hulls := s.Hulls()
	var feasible []r2.Vec
	for _, g := range s.groups {
		for _, p := range curvePoints(s.problem.Curves[g]) {
			if insideAll(hulls, p) {
				feasible = append(feasible, p)
			}
		}
	}
	return feasible
}

func insideAll(hulls map[string]Hull, p r2.Vec) bool {
	for _, h := range hulls {
		if !h.Contains(p) {
			return false
		}
	}
	return true
}

// SeparationThresholds finds the best operating point shared by all groups
// (equalized odds), scored at the overall base rate.
func (s *ThresholdSelector) SeparationThresholds() (ThresholdResult, error) {
	feasible := s.FeasiblePoints()
	if len(feasible) == 0 {
		return ThresholdResult{}, ErrNoFeasiblePoint
	}

	baseRate := s.problem.OverallBaseRate()
	best := feasible[0]
	bestPayoff := s.problem.Costs.Payoff(best.X, best.Y, baseRate)
	for _, p := range feasible[1:] {
		payoff := s.problem.Costs.Payoff(p.X, p.Y, baseRate)
		if payoff > bestPayoff ||
			(payoff == bestPayoff && (p.X > best.X || (p.X == best.X && p.Y > best.Y))) {
			best, bestPayoff = p, payoff
		}
	}

	return ThresholdResult{
		Strategy:        StrategySeparation,
		Thresholds:      map[string]float64{},
		OperatingPoints: map[string]OperatingPoint{"": {FPR: best.X, TPR: best.Y}},
		Cost:            -bestPayoff,
	}, nil
}

// Run executes one strategy.
func (s *ThresholdSelector) Run(strategy Strategy) (ThresholdResult, error) {
	switch strategy {
	case StrategySingle:
		return s.SingleThreshold(), nil
	case StrategyMinCost:
		return s.MinCostThresholds(), nil
	case StrategyIndependence:
		return s.IndependenceThresholds()
	case StrategyFNR:
		return s.FNRThresholds()
	case StrategySeparation:
		return s.SeparationThresholds()
	}
	return ThresholdResult{}, precondition("run strategy", ErrUnsupportedMethod, "%q", strategy)
}

// Find runs the requested strategies concurrently, or all of them when none
// are given.
func (s *ThresholdSelector) Find(ctx context.Context, strategies ...Strategy) (map[Strategy]ThresholdResult, error) {
	if len(strategies) == 0 {
		strategies = AllStrategies
	}

	results := make([]ThresholdResult, len(strategies))
	g, gctx := errgroup.WithContext(ctx)
	for i, st := range strategies {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.Run(st)
			if err != nil {
				return err
			}
			results[i] = res
			s.log.Debug().Str("strategy", string(st)).Float64("cost", res.Cost).Msg("strategy done")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[Strategy]ThresholdResult, len(strategies))
	for i, st := range strategies {
		out[st] = results[i]
	}
	return out, nil
}
