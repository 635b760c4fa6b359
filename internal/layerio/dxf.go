// Package layerio supplies the sliced-layer interchange this module
// needs but spec.md explicitly places out of scope (STL loading and
// slicing): a DXF-backed LayerPart loader and a spreadsheet-backed
// per-mesh settings-override loader, both adapted from the teacher's
// internal/importer package.
package layerio

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/sliceplan/internal/feature"
	"github.com/piwi3910/sliceplan/internal/geometry"
	"github.com/piwi3910/sliceplan/internal/settings"
)

// Diagnostic is a non-fatal problem surfaced alongside a load result,
// mirroring the teacher's ImportResult{Errors, Warnings} shape.
type Diagnostic struct {
	Severity string // "error" or "warning"
	Message  string
}

func errorDiag(format string, args ...any) Diagnostic {
	return Diagnostic{Severity: "error", Message: fmt.Sprintf(format, args...)}
}

func warningDiag(format string, args ...any) Diagnostic {
	return Diagnostic{Severity: "warning", Message: fmt.Sprintf(format, args...)}
}

type segment struct{ start, end geometry.Point2D }

// LoadLayerDXF reads a DXF file's closed shapes and returns the largest
// as a mesh's outer outline, with any other shapes whose bounding box
// it contains treated as holes. Settings defaults to an empty Map.
func LoadLayerDXF(path string) (feature.LayerPart, []Diagnostic) {
	var diags []Diagnostic

	drawing, err := dxf.Open(path)
	if err != nil {
		return feature.LayerPart{}, append(diags, errorDiag("cannot open DXF file: %v", err))
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		return feature.LayerPart{}, append(diags, errorDiag("DXF file contains no entities"))
	}

	var outlines []geometry.Outline
	var segments []segment

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			o := lwPolylineToOutline(e)
			if len(o) >= 3 {
				outlines = append(outlines, o)
			} else {
				diags = append(diags, warningDiag("skipped LWPOLYLINE with fewer than 3 vertices"))
			}
		case *entity.Circle:
			outlines = append(outlines, circleToOutline(e, 64))
		case *entity.Arc:
			pts := arcToPoints(e, 32)
			if len(pts) >= 2 {
				segments = append(segments, pointsToSegments(pts)...)
			}
		case *entity.Line:
			segments = append(segments, segment{
				start: geometry.Point2D{X: e.Start[0], Y: e.Start[1]},
				end:   geometry.Point2D{X: e.End[0], Y: e.End[1]},
			})
		}
	}

	for _, o := range chainSegments(segments, 0.01) {
		if len(o) >= 3 {
			outlines = append(outlines, o)
		}
	}

	if len(outlines) == 0 {
		return feature.LayerPart{}, append(diags, errorDiag("no closed shapes found in DXF file"))
	}

	sort.Slice(outlines, func(i, j int) bool { return outlineArea(outlines[i]) > outlineArea(outlines[j]) })

	rawMin, _ := outlines[0].BoundingBox()
	outer := normalizeOutline(outlines[0])
	var holes []geometry.Outline
	outerMin, outerMax := outer.BoundingBox()
	for _, o := range outlines[1:] {
		norm := o.Translate(-rawMin.X, -rawMin.Y)
		min, max := norm.BoundingBox()
		if min.X >= outerMin.X && min.Y >= outerMin.Y && max.X <= outerMax.X && max.Y <= outerMax.Y {
			holes = append(holes, norm)
		} else {
			diags = append(diags, warningDiag("shape outside the outer outline's bounds was dropped"))
		}
	}

	return feature.LayerPart{
		MeshID:   uuid.New(),
		Outer:    outer,
		Holes:    holes,
		Settings: settings.Map{},
	}, diags
}

func toMicronOutline(pts []geometry.Point2D) geometry.Outline {
	out := make(geometry.Outline, len(pts))
	for i, p := range pts {
		out[i] = geometry.Point2DFromMM(p)
	}
	return out
}

func lwPolylineToOutline(lw *entity.LwPolyline) geometry.Outline {
	var outline []geometry.Point2D
	for i := 0; i < len(lw.Vertices); i++ {
		v := lw.Vertices[i]
		current := geometry.Point2D{X: v[0], Y: v[1]}
		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}
		if math.Abs(bulge) > 1e-9 {
			nextIdx := (i + 1) % len(lw.Vertices)
			next := geometry.Point2D{X: lw.Vertices[nextIdx][0], Y: lw.Vertices[nextIdx][1]}
			arcPts := bulgeArcPoints(current, next, bulge, 32)
			outline = append(outline, arcPts[:len(arcPts)-1]...)
		} else {
			outline = append(outline, current)
		}
	}
	return toMicronOutline(outline)
}

// bulgeArcPoints generates points along an arc defined by two endpoints
// and a DXF bulge factor (tangent of 1/4 the included angle).
func bulgeArcPoints(p1, p2 geometry.Point2D, bulge float64, numSegments int) []geometry.Point2D {
	mx, my := (p1.X+p2.X)/2, (p1.Y+p2.Y)/2
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	chordLen := math.Sqrt(dx*dx + dy*dy)
	if chordLen < 1e-9 {
		return []geometry.Point2D{p1, p2}
	}

	sagitta := math.Abs(bulge) * chordLen / 2
	radius := (chordLen*chordLen/(4*sagitta) + sagitta) / 2

	perpX, perpY := -dy/chordLen, dx/chordLen
	dist := radius - sagitta
	if bulge > 0 {
		perpX, perpY = -perpX, -perpY
	}
	cx, cy := mx+perpX*dist, my+perpY*dist

	startAngle := math.Atan2(p1.Y-cy, p1.X-cx)
	endAngle := math.Atan2(p2.Y-cy, p2.X-cx)
	if bulge < 0 {
		if endAngle > startAngle {
			endAngle -= 2 * math.Pi
		}
	} else if endAngle < startAngle {
		endAngle += 2 * math.Pi
	}

	pts := make([]geometry.Point2D, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startAngle + t*(endAngle-startAngle)
		pts[i] = geometry.Point2D{X: cx + radius*math.Cos(angle), Y: cy + radius*math.Sin(angle)}
	}
	return pts
}

func circleToOutline(c *entity.Circle, numSegments int) geometry.Outline {
	pts := make([]geometry.Point2D, numSegments)
	cx, cy, r := c.Center[0], c.Center[1], c.Radius
	for i := 0; i < numSegments; i++ {
		angle := 2 * math.Pi * float64(i) / float64(numSegments)
		pts[i] = geometry.Point2D{X: cx + r*math.Cos(angle), Y: cy + r*math.Sin(angle)}
	}
	return toMicronOutline(pts)
}

func arcToPoints(a *entity.Arc, numSegments int) []geometry.Point2D {
	cx, cy := a.Circle.Center[0], a.Circle.Center[1]
	r := a.Circle.Radius
	startRad := a.Angle[0] * math.Pi / 180
	endRad := a.Angle[1] * math.Pi / 180
	if endRad <= startRad {
		endRad += 2 * math.Pi
	}
	pts := make([]geometry.Point2D, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startRad + t*(endRad-startRad)
		pts[i] = geometry.Point2D{X: cx + r*math.Cos(angle), Y: cy + r*math.Sin(angle)}
	}
	return pts
}

func pointsToSegments(pts []geometry.Point2D) []segment {
	segs := make([]segment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		segs = append(segs, segment{start: pts[i], end: pts[i+1]})
	}
	return segs
}

func chainSegments(segs []segment, tolerance float64) []geometry.Outline {
	if len(segs) == 0 {
		return nil
	}
	used := make([]bool, len(segs))
	var outlines []geometry.Outline

	for {
		startIdx := -1
		for i, u := range used {
			if !u {
				startIdx = i
				break
			}
		}
		if startIdx == -1 {
			break
		}

		chain := []geometry.Point2D{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		changed := true
		for changed {
			changed = false
			tail := chain[len(chain)-1]
			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, tolerance) {
					chain = append(chain, seg.end)
					used[i] = true
					changed = true
					break
				}
				if pointsClose(tail, seg.end, tolerance) {
					chain = append(chain, seg.start)
					used[i] = true
					changed = true
					break
				}
			}
		}

		if len(chain) >= 3 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			chain = chain[:len(chain)-1]
		}
		if len(chain) >= 3 {
			outlines = append(outlines, toMicronOutline(chain))
		}
	}
	return outlines
}

func pointsClose(a, b geometry.Point2D, tolerance float64) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Sqrt(dx*dx+dy*dy) <= tolerance
}

func outlineArea(o geometry.Outline) float64 {
	n := len(o)
	if n < 3 {
		return 0
	}
	var area int64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += int64(o[i].X) * int64(o[j].Y)
		area -= int64(o[j].X) * int64(o[i].Y)
	}
	if area < 0 {
		area = -area
	}
	return float64(area) / 2
}

func normalizeOutline(o geometry.Outline) geometry.Outline {
	if len(o) == 0 {
		return o
	}
	min, _ := o.BoundingBox()
	return o.Translate(-min.X, -min.Y)
}
