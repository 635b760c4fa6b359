// Package cliplib adapts github.com/aligator/go.clipper to the
// geometry.PolygonOps contract. It is the one concrete "Geometry
// library" implementation wired into this repo (see SPEC_FULL.md §2);
// the scheduling core never imports it directly.
package cliplib

import (
	clipper "github.com/aligator/go.clipper"

	"github.com/piwi3910/sliceplan/internal/geometry"
)

// Ops implements geometry.PolygonOps on top of go.clipper's integer
// polygon clipper and offsetter.
type Ops struct{}

// New returns a ready-to-use Ops. It carries no state: every call builds
// a fresh clipper.Clipper/ClipperOffset, matching go.clipper's own
// single-shot usage pattern.
func New() *Ops { return &Ops{} }

func toClipperPath(o geometry.Outline) clipper.Path {
	path := make(clipper.Path, len(o))
	for i, p := range o {
		path[i] = &clipper.IntPoint{X: clipper.CInt(p.X), Y: clipper.CInt(p.Y)}
	}
	return path
}

func toClipperPaths(os []geometry.Outline) clipper.Paths {
	paths := make(clipper.Paths, len(os))
	for i, o := range os {
		paths[i] = toClipperPath(o)
	}
	return paths
}

func fromClipperPaths(paths clipper.Paths) []geometry.Outline {
	out := make([]geometry.Outline, len(paths))
	for i, path := range paths {
		o := make(geometry.Outline, len(path))
		for j, pt := range path {
			o[j] = geometry.Point2{X: geometry.Micron(pt.X), Y: geometry.Micron(pt.Y)}
		}
		out[i] = o
	}
	return out
}

func (o *Ops) boolOp(a, b []geometry.Outline, op clipper.ClipType) []geometry.Outline {
	c := clipper.NewClipper(clipper.IoNone)
	c.AddPaths(toClipperPaths(a), clipper.PtSubject, true)
	c.AddPaths(toClipperPaths(b), clipper.PtClip, true)
	var solution clipper.Paths
	solution, _ = c.Execute2(op, clipper.PftNonZero, clipper.PftNonZero)
	return fromClipperPaths(solution)
}

func (o *Ops) Union(a, b []geometry.Outline) []geometry.Outline {
	return o.boolOp(a, b, clipper.CtUnion)
}

func (o *Ops) Intersection(a, b []geometry.Outline) []geometry.Outline {
	return o.boolOp(a, b, clipper.CtIntersection)
}

func (o *Ops) Difference(a, b []geometry.Outline) []geometry.Outline {
	return o.boolOp(a, b, clipper.CtDifference)
}

func (o *Ops) Offset(polys []geometry.Outline, distance geometry.Micron, join geometry.JoinType) []geometry.Outline {
	jt := clipper.JtRound
	if join == geometry.JoinMiter {
		jt = clipper.JtMiter
	}
	co := clipper.NewClipperOffset()
	co.AddPaths(toClipperPaths(polys), jt, clipper.EtClosedPolygon)
	solution := co.Execute(float64(distance))
	return fromClipperPaths(solution)
}

func (o *Ops) RemoveHolesByArea(polys []geometry.Outline, minArea int64) []geometry.Outline {
	out := make([]geometry.Outline, 0, len(polys))
	for _, p := range polys {
		if absArea(p) < minArea {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (o *Ops) EvenOdd(polys []geometry.Outline) []geometry.Outline {
	c := clipper.NewClipper(clipper.IoNone)
	c.AddPaths(toClipperPaths(polys), clipper.PtSubject, true)
	var solution clipper.Paths
	solution, _ = c.Execute2(clipper.CtUnion, clipper.PftEvenOdd, clipper.PftEvenOdd)
	return fromClipperPaths(solution)
}

func (o *Ops) RepairSelfIntersections(polys []geometry.Outline) []geometry.Outline {
	// A self-intersecting polygon run through a non-zero union with itself
	// resolves to its outer winding, which is go.clipper's documented way
	// of repairing self-intersections.
	return o.boolOp(polys, polys, clipper.CtUnion)
}

func (o *Ops) Simplify(polys []geometry.Outline, maxResolution, maxDeviation geometry.Micron, maxAreaDeviation int64) []geometry.Outline {
	out := make([]geometry.Outline, 0, len(polys))
	for _, p := range polys {
		out = append(out, simplifyOne(p, maxResolution, maxDeviation))
	}
	return out
}

// simplifyOne removes vertices whose perpendicular deviation from the
// segment joining their neighbours is within maxDeviation, and merges
// vertices closer together than maxResolution. This is a direct
// point-removal simplifier (go.clipper exposes CleanPolygon, which does
// the resolution-merge half of this; the deviation half is implemented
// here since CleanPolygon alone does not consider deviation).
func simplifyOne(o geometry.Outline, maxResolution, maxDeviation geometry.Micron) geometry.Outline {
	if len(o) < 3 {
		return o
	}
	result := make(geometry.Outline, 0, len(o))
	n := len(o)
	for i := 0; i < n; i++ {
		prev := o[(i-1+n)%n]
		cur := o[i]
		next := o[(i+1)%n]
		if cur.Sub(prev).VSize() < maxResolution {
			continue
		}
		if perpendicularDistance(cur, prev, next) < maxDeviation {
			continue
		}
		result = append(result, cur)
	}
	if len(result) < 3 {
		return o
	}
	return result
}

func perpendicularDistance(p, a, b geometry.Point2) geometry.Micron {
	ab := b.Sub(a)
	if ab.VSize2() == 0 {
		return p.Sub(a).VSize()
	}
	ap := p.Sub(a)
	cross := ab.Cross(ap)
	num := cross
	if num < 0 {
		num = -num
	}
	return geometry.Micron(num / int64(ab.VSize()))
}

func absArea(o geometry.Outline) int64 {
	var area int64
	n := len(o)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += int64(o[i].X)*int64(o[j].Y) - int64(o[j].X)*int64(o[i].Y)
	}
	if area < 0 {
		area = -area
	}
	return area / 2
}
