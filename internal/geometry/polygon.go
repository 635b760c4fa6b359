package geometry

// Outline is a closed polygon: an ordered loop of points where the last
// point implicitly connects back to the first.
type Outline []Point2

// BoundingBox returns the min/max corners of the outline.
func (o Outline) BoundingBox() (min, max Point2) {
	if len(o) == 0 {
		return Point2{}, Point2{}
	}
	min, max = o[0], o[0]
	for _, p := range o[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}

// Translate shifts every point of the outline by (dx, dy).
func (o Outline) Translate(dx, dy Micron) Outline {
	out := make(Outline, len(o))
	for i, p := range o {
		out[i] = Point2{p.X + dx, p.Y + dy}
	}
	return out
}

// JoinType selects the corner style used by PolygonOps.Offset.
type JoinType int

const (
	JoinRound JoinType = iota
	JoinMiter
)

// PolygonOps is the "Geometry library" external collaborator of §6: 2D
// polygon boolean operations, offsetting and simplification. The
// scheduling core depends only on this interface; concrete
// implementations (e.g. internal/cliplib) are injected by callers.
type PolygonOps interface {
	Union(a, b []Outline) []Outline
	Intersection(a, b []Outline) []Outline
	Difference(a, b []Outline) []Outline
	Offset(polys []Outline, distance Micron, join JoinType) []Outline
	RemoveHolesByArea(polys []Outline, minArea int64) []Outline
	EvenOdd(polys []Outline) []Outline
	RepairSelfIntersections(polys []Outline) []Outline
	Simplify(polys []Outline, maxResolution, maxDeviation Micron, maxAreaDeviation int64) []Outline
}

// WallLine is one ordered, variable-width polyline produced by the
// "Variable-width wall library" external collaborator of §6.
type WallLine struct {
	InsetIndex int
	Points     []Point2
	Widths     []Micron // one width per point, same length as Points
	Closed     bool
}

// VariableWidthLines groups wall lines by inset index, as returned by the
// skeletal-trapezoidation collaborator this package assumes is available.
type VariableWidthLines map[int][]WallLine

// WallLineGenerator is the "Variable-width wall library" external
// collaborator of §6: given an outline (plus holes) and a bead-width
// configuration, return ordered variable-width lines grouped by inset
// index. No concrete implementation ships in this module (no
// skeletal-trapezoidation library appears anywhere in the retrieved
// pack); feature generators depend only on this interface and callers
// inject a real implementation.
type WallLineGenerator interface {
	Generate(outline Outline, holes []Outline, lineWidth Micron, wallCount int) VariableWidthLines
}

// FillLines is the output contract of an infill/skin pattern generator:
// a set of closed polygons plus a set of open polylines, both already in
// the mesh's local outline space.
type FillLines struct {
	Closed []Outline
	Open   [][]Point2
}

// FillPatternGenerator is the infill/skin pattern collaborator: given an
// outline (plus holes), a line distance and an angle, return the fill
// geometry. Concrete patterns (lines, grid, lightning, …) are outside
// this module's scope; feature generators depend only on this
// interface.
type FillPatternGenerator interface {
	Generate(outline Outline, holes []Outline, lineDistance Micron, angle AngleRadians) FillLines
}
