package constraints

import (
	"math"
	"sort"

	"github.com/piwi3910/sliceplan/internal/geometry"
	"github.com/piwi3910/sliceplan/internal/planop"
)

// SequenceConstraintGenerator appends edges to constraints recording
// which of a feature's own move sequences must come after which other
// (spec.md §4.H.1 step 2).
type SequenceConstraintGenerator interface {
	AppendConstraints(feature *planop.FeatureExtrusion, graph *Graph[*planop.ContinuousExtruderMoveSequence])
}

// MonotonicConstraints implements the monotonic skin/roof ordering rule:
// group sequences by axial projection bucket (0.5 * line width), and
// between adjacent buckets, order every pair whose perpendicular
// (radial) projections overlap within 1.1 * line width.
type MonotonicConstraints struct {
	// Enabled reports whether feature should be ordered monotonically
	// (true only for roofing/skin features configured monotonic).
	Enabled func(feature *planop.FeatureExtrusion) bool
	// Direction returns the monotonic axis for feature.
	Direction func(feature *planop.FeatureExtrusion) geometry.AngleRadians
}

func axis(d geometry.AngleRadians) geometry.Point2D {
	return geometry.Point2D{X: math.Cos(float64(d)), Y: math.Sin(float64(d))}
}

func dot(d geometry.Point2D, p geometry.Point2) float64 {
	return d.X*float64(p.X) + d.Y*float64(p.Y)
}

func earlierEndpoint(points []geometry.Point2, d geometry.Point2D) geometry.Point2 {
	best := points[0]
	bestProj := dot(d, best)
	for _, p := range points[1:] {
		if proj := dot(d, p); proj < bestProj {
			best, bestProj = p, proj
		}
	}
	return best
}

func radialRange(points []geometry.Point2, perp geometry.Point2D) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, p := range points {
		v := dot(perp, p)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func (m MonotonicConstraints) AppendConstraints(feature *planop.FeatureExtrusion, graph *Graph[*planop.ContinuousExtruderMoveSequence]) {
	if m.Enabled == nil || !m.Enabled(feature) {
		return
	}
	d := axis(m.Direction(feature))
	perp := geometry.Point2D{X: -d.Y, Y: d.X}
	bucketWidth := 0.5 * float64(feature.LineWidth)
	tolerance := 1.1 * float64(feature.LineWidth)

	seqs := planop.FindAllByType[*planop.ContinuousExtruderMoveSequence](feature, planop.Forward, intPtr(0), nil)
	type entry struct {
		seq    *planop.ContinuousExtruderMoveSequence
		proj   float64
		bucket int
		rMin   float64
		rMax   float64
	}
	entries := make([]entry, 0, len(seqs))
	for _, s := range seqs {
		pts := pointsOf(s)
		if len(pts) == 0 {
			continue
		}
		proj := dot(d, earlierEndpoint(pts, d))
		rMin, rMax := radialRange(pts, perp)
		bucket := 0
		if bucketWidth > 0 {
			bucket = int(math.Round(proj / bucketWidth))
		}
		entries = append(entries, entry{seq: s, proj: proj, bucket: bucket, rMin: rMin, rMax: rMax})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].bucket < entries[j].bucket })

	byBucket := make(map[int][]entry)
	for _, e := range entries {
		byBucket[e.bucket] = append(byBucket[e.bucket], e)
	}
	buckets := make([]int, 0, len(byBucket))
	for b := range byBucket {
		buckets = append(buckets, b)
	}
	sort.Ints(buckets)

	for i := 0; i+1 < len(buckets); i++ {
		for _, prev := range byBucket[buckets[i]] {
			for _, next := range byBucket[buckets[i+1]] {
				if prev.rMin <= next.rMax+tolerance && next.rMin <= prev.rMax+tolerance {
					graph.Add(prev.seq, next.seq)
				}
			}
		}
	}
}

// pointsOf extracts the XY points of a move sequence's children,
// dispatching on the two leaf move kinds without a named adapter
// interface (small concrete helper per SPEC_FULL.md §4, in place of
// original_source/include/PathAdapter.h's adapter hierarchy).
func pointsOf(seq *planop.ContinuousExtruderMoveSequence) []geometry.Point2 {
	var out []geometry.Point2
	for _, c := range seq.Children() {
		switch m := c.(type) {
		case *planop.ExtrusionMove:
			out = append(out, m.Target.XY())
		case *planop.ExtruderMove:
			out = append(out, m.Target.XY())
		}
	}
	return out
}

func intPtr(v int) *int { return &v }
