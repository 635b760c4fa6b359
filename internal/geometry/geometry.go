// Package geometry provides the fixed-point and floating-point primitives
// shared by every layer of the scheduling core: integer micron coordinates
// for toolpaths, millimetre floats for slope/UV math, and a small affine
// matrix type for mesh transforms.
package geometry

import "math"

// MicronsPerMM converts between the fixed-point micron domain and the
// floating-point millimetre domain used for slope and surface math.
const MicronsPerMM = 1000.0

// Micron is a length in micrometres, stored as a signed 64-bit integer so
// toolpath coordinates never drift under repeated translation.
type Micron int64

// Ratio is a dimensionless, non-negative scalar.
type Ratio float64

// AngleRadians is an angle in radians.
type AngleRadians float64

// AngleDegrees is an angle in degrees.
type AngleDegrees float64

// ToRadians converts degrees to radians.
func (d AngleDegrees) ToRadians() AngleRadians { return AngleRadians(float64(d) * math.Pi / 180.0) }

// ToDegrees converts radians to degrees.
func (r AngleRadians) ToDegrees() AngleDegrees { return AngleDegrees(float64(r) * 180.0 / math.Pi) }

// Velocity, Acceleration, Jerk and Duration are distinct float64-backed
// types so that blending or comparing across kinds requires an explicit
// conversion rather than silent coercion.
type (
	Velocity     float64
	Acceleration float64
	Jerk         float64
	Duration     float64
)

// roundMicron rounds a float64 micron value to the nearest integer,
// matching the "scalar multiplication rounds" rule of the fixed-point type.
func roundMicron(v float64) Micron {
	if v >= 0 {
		return Micron(math.Floor(v + 0.5))
	}
	return Micron(math.Ceil(v - 0.5))
}

// Point2 is an ordered pair of Microns: the coordinate type for every
// closed polygon and toolpath point.
type Point2 struct {
	X, Y Micron
}

func (p Point2) Add(o Point2) Point2 { return Point2{p.X + o.X, p.Y + o.Y} }
func (p Point2) Sub(o Point2) Point2 { return Point2{p.X - o.X, p.Y - o.Y} }

// Mul scales p by an arbitrary numeric factor, rounding to the nearest
// Micron.
func (p Point2) Mul(t float64) Point2 {
	return Point2{roundMicron(float64(p.X) * t), roundMicron(float64(p.Y) * t)}
}

// Div scales p by 1/t, truncating toward zero.
func (p Point2) Div(t float64) Point2 {
	return Point2{Micron(float64(p.X) / t), Micron(float64(p.Y) / t)}
}

// VSize2 returns the squared length as an exact 64-bit integer.
func (p Point2) VSize2() int64 { return int64(p.X)*int64(p.X) + int64(p.Y)*int64(p.Y) }

// VSize returns the rounded integer length.
func (p Point2) VSize() Micron {
	return Micron(math.Round(math.Sqrt(float64(p.VSize2()))))
}

// Dot is the exact dot product.
func (p Point2) Dot(o Point2) int64 { return int64(p.X)*int64(o.X) + int64(p.Y)*int64(o.Y) }

// Cross is the exact 2D cross product (z-component of the 3D cross product).
func (p Point2) Cross(o Point2) int64 { return int64(p.X)*int64(o.Y) - int64(p.Y)*int64(o.X) }

// Turn90CCW rotates p by exactly 90 degrees counter-clockwise, exactly
// (no rounding is needed since the rotation is axis-aligned).
func (p Point2) Turn90CCW() Point2 { return Point2{-p.Y, p.X} }

// Rotate rotates p by theta using double-precision trigonometry, rounding
// the result back to Microns.
func (p Point2) Rotate(theta AngleRadians) Point2 {
	s, c := math.Sin(float64(theta)), math.Cos(float64(theta))
	x, y := float64(p.X), float64(p.Y)
	return Point2{roundMicron(x*c - y*s), roundMicron(x*s + y*c)}
}

// ToMM converts to the floating-point millimetre mirror.
func (p Point2) ToMM() Point2D {
	return Point2D{X: float64(p.X) / MicronsPerMM, Y: float64(p.Y) / MicronsPerMM}
}

// Point2DFromMM converts a millimetre point back into fixed-point Microns.
func Point2DFromMM(p Point2D) Point2 {
	return Point2{roundMicron(p.X * MicronsPerMM), roundMicron(p.Y * MicronsPerMM)}
}

// Point3 is a triple of Microns. Within a move, Z carries a relative
// z-offset that is only resolved to an absolute Z by the owning
// LayerPlan/ContinuousExtruderMoveSequence (see planop.LayerPlan.AbsZ).
type Point3 struct {
	X, Y, Z Micron
}

func (p Point3) Add(o Point3) Point3 { return Point3{p.X + o.X, p.Y + o.Y, p.Z + o.Z} }
func (p Point3) Sub(o Point3) Point3 { return Point3{p.X - o.X, p.Y - o.Y, p.Z - o.Z} }

// XY drops the Z component.
func (p Point3) XY() Point2 { return Point2{p.X, p.Y} }

// Point2D is the floating-point millimetre mirror of Point2, used for
// slope/UV/surface math.
type Point2D struct {
	X, Y float64
}

// Point3D is the floating-point millimetre mirror of Point3.
type Point3D struct {
	X, Y, Z float64
}

func (p Point3D) Add(o Point3D) Point3D { return Point3D{p.X + o.X, p.Y + o.Y, p.Z + o.Z} }
func (p Point3D) Sub(o Point3D) Point3D { return Point3D{p.X - o.X, p.Y - o.Y, p.Z - o.Z} }
func (p Point3D) Scale(s float64) Point3D {
	return Point3D{p.X * s, p.Y * s, p.Z * s}
}

// Dist2 returns the squared Euclidean distance between two Point3D values.
func (p Point3D) Dist2(o Point3D) float64 {
	dx, dy, dz := p.X-o.X, p.Y-o.Y, p.Z-o.Z
	return dx*dx + dy*dy + dz*dz
}

// ToMicron converts a Point3D in millimetres to fixed-point Microns,
// rounding each component.
func (p Point3D) ToMicron() Point3 {
	return Point3{roundMicron(p.X * MicronsPerMM), roundMicron(p.Y * MicronsPerMM), roundMicron(p.Z * MicronsPerMM)}
}

// ToMM converts a Point3 in Microns to its Point3D millimetre mirror.
func (p Point3) ToMM() Point3D {
	return Point3D{float64(p.X) / MicronsPerMM, float64(p.Y) / MicronsPerMM, float64(p.Z) / MicronsPerMM}
}

// Triangle3D is a single mesh face used by the adaptive layer-height and
// voxel-traversal algorithms.
type Triangle3D struct {
	A, B, C Point3D
}

// BoundingBox returns the min/max corners of the triangle.
func (t Triangle3D) BoundingBox() (min, max Point3D) {
	min = Point3D{
		X: math.Min(t.A.X, math.Min(t.B.X, t.C.X)),
		Y: math.Min(t.A.Y, math.Min(t.B.Y, t.C.Y)),
		Z: math.Min(t.A.Z, math.Min(t.B.Z, t.C.Z)),
	}
	max = Point3D{
		X: math.Max(t.A.X, math.Max(t.B.X, t.C.X)),
		Y: math.Max(t.A.Y, math.Max(t.B.Y, t.C.Y)),
		Z: math.Max(t.A.Z, math.Max(t.B.Z, t.C.Z)),
	}
	return min, max
}
