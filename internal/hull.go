package internal

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

const hullEps = 1e-9

// Hull is the convex hull of a group's ROC vertices, the region of
// (FPR, TPR) pairs reachable by randomizing between thresholds.
type Hull struct {
	vertices []r2.Vec // counter-clockwise, no collinear points
}

// NewHull builds the hull with Andrew's monotone chain.
func NewHull(points []r2.Vec) Hull {
	pts := make([]r2.Vec, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	pts = dedupe(pts)
	if len(pts) < 3 {
		return Hull{vertices: pts}
	}

	lower := make([]r2.Vec, 0, len(pts))
	for _, p := range pts {
		for len(lower) >= 2 && turn(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	upper := make([]r2.Vec, 0, len(pts))
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && turn(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	return Hull{vertices: append(lower[:len(lower)-1], upper[:len(upper)-1]...)}
}

func dedupe(sorted []r2.Vec) []r2.Vec {
	out := sorted[:0]
	for i, p := range sorted {
		if i > 0 && p == sorted[i-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func turn(o, a, b r2.Vec) float64 {
	return r2.Cross(r2.Sub(a, o), r2.Sub(b, o))
}

// Vertices returns the hull vertices in counter-clockwise order.
func (h Hull) Vertices() []r2.Vec {
	out := make([]r2.Vec, len(h.vertices))
	copy(out, h.vertices)
	return out
}

// Contains reports whether p lies inside the hull or on its boundary.
// Degenerate hulls (a point or a segment) contain only the points on them.
func (h Hull) Contains(p r2.Vec) bool {
	switch len(h.vertices) {
	case 0:
		return false
	case 1:
		return r2.Norm(r2.Sub(p, h.vertices[0])) <= hullEps
	case 2:
		return onSegment(h.vertices[0], h.vertices[1], p)
	}

	n := len(h.vertices)
	for i := 0; i < n; i++ {
		a, b := h.vertices[i], h.vertices[(i+1)%n]
		if turn(a, b, p) < -hullEps*math.Max(1, r2.Norm(r2.Sub(b, a))) {
			return false
		}
	}
	return true
}

func onSegment(a, b, p r2.Vec) bool {
	ab := r2.Sub(b, a)
	length := r2.Norm(ab)
	if math.Abs(r2.Cross(ab, r2.Sub(p, a))) > hullEps*math.Max(1, length) {
		return false
	}
	t := r2.Dot(r2.Sub(p, a), ab) / (length * length)
	return t >= -hullEps && t <= 1+hullEps
}

func curvePoints(c ROCCurve) []r2.Vec {
	pts := make([]r2.Vec, c.Len())
	for i := range pts {
		pts[i] = r2.Vec{X: c.FPR[i], Y: c.TPR[i]}
	}
	return pts
}
