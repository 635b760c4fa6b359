package seam

import (
	"math"

	"github.com/piwi3910/sliceplan/internal/geometry"
	"github.com/piwi3910/sliceplan/internal/scoring"
)

// defaultArcDistance is the distance walked along the polyline, in each
// direction from a vertex, to find the "neighbour points" used for
// corner-angle scoring (spec.md §4.D).
const defaultArcDistance = geometry.Micron(1000) // 1mm

// cornerCriterion scores each candidate by the sharpness/preference of
// the polygon corner at its vertex.
func cornerCriterion(points []geometry.Point2, closed bool, candidates []Candidate, pref CornerPreference) scoring.Criterion {
	n := len(points)
	total := polylineLength(points, closed)
	arc := defaultArcDistance
	if half := total / 2; arc > half {
		arc = half
	}
	return scoring.CriterionFunc(func(c int) geometry.Ratio {
		idx := candidates[c].Index
		a := cornerAngle(points, closed, n, idx, arc)
		return cornerScore(a, pref)
	})
}

func polylineLength(points []geometry.Point2, closed bool) geometry.Micron {
	n := len(points)
	if n < 2 {
		return 0
	}
	var total geometry.Micron
	limit := n - 1
	if closed {
		limit = n
	}
	for i := 0; i < limit; i++ {
		j := (i + 1) % n
		total += points[i].Sub(points[j]).VSize()
	}
	return total
}

// walkArc returns the point found by walking dist along the polyline
// starting at vertex idx, in direction dir (+1 forward, -1 backward).
func walkArc(points []geometry.Point2, closed bool, n int, idx int, dist geometry.Micron, dir int) geometry.Point2 {
	remaining := float64(dist)
	cur := idx
	curPoint := points[idx]
	for remaining > 0 {
		next := cur + dir
		if closed {
			next = ((next % n) + n) % n
		} else if next < 0 || next >= n {
			return points[cur]
		}
		seg := points[next].Sub(curPoint)
		segLen := float64(seg.VSize())
		if segLen == 0 {
			cur = next
			curPoint = points[next]
			continue
		}
		if segLen >= remaining {
			t := remaining / segLen
			return geometry.Point2{
				X: curPoint.X + geometry.Micron(float64(seg.X)*t),
				Y: curPoint.Y + geometry.Micron(float64(seg.Y)*t),
			}
		}
		remaining -= segLen
		cur = next
		curPoint = points[next]
	}
	return curPoint
}

// cornerAngle returns a value in [-1, 1]: negative for a concave corner,
// positive for a convex one, computed from the angle between the vectors
// to the two arc-distance neighbour points.
func cornerAngle(points []geometry.Point2, closed bool, n int, idx int, arc geometry.Micron) float64 {
	here := points[idx]
	prev := walkArc(points, closed, n, idx, arc, -1)
	next := walkArc(points, closed, n, idx, arc, +1)

	v1 := geometry.Point2D{X: float64(prev.X - here.X), Y: float64(prev.Y - here.Y)}
	v2 := geometry.Point2D{X: float64(next.X - here.X), Y: float64(next.Y - here.Y)}

	len1 := math.Hypot(v1.X, v1.Y)
	len2 := math.Hypot(v2.X, v2.Y)
	if len1 == 0 || len2 == 0 {
		return 0
	}
	cosTheta := (v1.X*v2.X + v1.Y*v2.Y) / (len1 * len2)
	cosTheta = math.Max(-1, math.Min(1, cosTheta))
	theta := math.Acos(cosTheta) // [0, pi], pi = straight line (no corner)

	// Sign from the cross product: on a CCW-wound polygon a convex corner
	// turns v1 clockwise onto v2 (negative cross) and a concave corner
	// turns it counter-clockwise (positive cross).
	cross := v1.X*v2.Y - v1.Y*v2.X

	// Map theta in [0, pi] to a sharpness magnitude in [0, 1]: pi (no
	// corner) -> 0, 0 (fully folded back) -> 1.
	sharpness := 1 - theta/math.Pi
	if cross > 0 {
		return -sharpness
	}
	return sharpness
}

func cornerScore(a float64, pref CornerPreference) geometry.Ratio {
	switch pref {
	case PrefInner:
		return scoring.InverseLerp(1, -1, a)
	case PrefOuter:
		return scoring.InverseLerp(-1, 1, a)
	case PrefAny:
		return geometry.Ratio(math.Abs(a))
	case PrefWeighted:
		if a < 0 {
			return geometry.Ratio(-a)
		}
		return geometry.Ratio(a / 2)
	default: // PrefNone
		return 0
	}
}
