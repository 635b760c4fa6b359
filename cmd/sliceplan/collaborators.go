package main

import (
	"github.com/piwi3910/sliceplan/internal/geometry"
)

// offsetWalls is a minimal geometry.WallLineGenerator: it derives each
// inset's line from a straight polygon offset rather than true
// skeletal trapezoidation, since no such library appears anywhere in
// the retrieved pack (see DESIGN.md). Good enough to exercise the
// feature/schedule/travel pipeline end to end; a real slicer would
// inject a proper variable-width wall generator here.
type offsetWalls struct {
	Geometry geometry.PolygonOps
}

func (w offsetWalls) Generate(outline geometry.Outline, holes []geometry.Outline, lineWidth geometry.Micron, wallCount int) geometry.VariableWidthLines {
	out := make(geometry.VariableWidthLines, wallCount)
	polys := append([]geometry.Outline{outline}, holes...)
	for inset := 0; inset < wallCount; inset++ {
		distance := -(geometry.Micron(inset)*lineWidth + lineWidth/2)
		offset := w.Geometry.Offset(polys, distance, geometry.JoinRound)
		if len(offset) == 0 {
			break
		}
		lines := make([]geometry.WallLine, 0, len(offset))
		for _, o := range offset {
			widths := make([]geometry.Micron, len(o))
			for i := range widths {
				widths[i] = lineWidth
			}
			lines = append(lines, geometry.WallLine{InsetIndex: inset, Points: []geometry.Point2(o), Widths: widths, Closed: true})
		}
		out[inset] = lines
	}
	return out
}

// zigzagFill is a minimal geometry.FillPatternGenerator producing
// straight horizontal lines clipped to the outline's bounding box,
// since no concrete infill pattern library appears in the retrieved
// pack (see DESIGN.md). Holes are ignored; this exists only to give
// MeshInfillGenerator/MeshSkinGenerator something to drive in the demo
// pipeline.
type zigzagFill struct{}

func (zigzagFill) Generate(outline geometry.Outline, holes []geometry.Outline, lineDistance geometry.Micron, angle geometry.AngleRadians) geometry.FillLines {
	if len(outline) == 0 || lineDistance <= 0 {
		return geometry.FillLines{}
	}
	min, max := outline.BoundingBox()
	var open [][]geometry.Point2
	for y := min.Y; y <= max.Y; y += lineDistance {
		open = append(open, []geometry.Point2{{X: min.X, Y: y}, {X: max.X, Y: y}})
	}
	return geometry.FillLines{Open: open}
}

// noExclusion treats the whole layer as seam-eligible, since this demo
// has no overhang/support-region detector wired in.
type noExclusion struct{}

func (noExclusion) Contains(geometry.Point2) bool { return false }
