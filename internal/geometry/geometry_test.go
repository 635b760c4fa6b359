package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoint2_VSize(t *testing.T) {
	p := Point2{X: 3000, Y: 4000}
	assert.Equal(t, int64(25_000_000), p.VSize2())
	assert.Equal(t, Micron(5000), p.VSize())
}

func TestPoint2_MulRoundsDivTruncates(t *testing.T) {
	p := Point2{X: 10, Y: 10}
	assert.Equal(t, Point2{X: 3, Y: 3}, p.Mul(0.26))
	assert.Equal(t, Point2{X: 3, Y: 3}, p.Div(3))
}

func TestPoint2_DotCrossTurn90(t *testing.T) {
	a := Point2{X: 1000, Y: 0}
	b := Point2{X: 0, Y: 1000}
	assert.Equal(t, int64(0), a.Dot(b))
	assert.Equal(t, int64(1_000_000), a.Cross(b))
	assert.Equal(t, b, a.Turn90CCW())
}

func TestPoint2_RotateQuarterTurn(t *testing.T) {
	p := Point2{X: 1000, Y: 0}
	r := p.Rotate(AngleDegrees(90).ToRadians())
	assert.InDelta(t, 0, float64(r.X), 1)
	assert.InDelta(t, 1000, float64(r.Y), 1)
}

func TestMMRoundTrip(t *testing.T) {
	p := Point2{X: 12345, Y: -6789}
	back := Point2DFromMM(p.ToMM())
	assert.Equal(t, p, back)
}

func TestMatrix_ScaleAboutOrigin(t *testing.T) {
	origin := Point3D{X: 10, Y: 10, Z: 0}
	m := ScaleAbout(2, origin)
	// A point 5mm from the origin on X should end up 10mm from it after 2x scale.
	p := Point3D{X: 5, Y: 10, Z: 0}
	out := m.ApplyMM(p)
	assert.InDelta(t, 0, out.X, 1e-9)
	assert.InDelta(t, 10, out.Y, 1e-9)
}

func TestMatrix_ApplyRounds(t *testing.T) {
	m := Translate(Point3D{X: 1.0004, Y: 0, Z: 0})
	out := m.Apply(Point3D{})
	assert.Equal(t, Micron(1000), out.X)
}

func TestTriangle3D_BoundingBox(t *testing.T) {
	tr := Triangle3D{
		A: Point3D{X: 0, Y: 0, Z: 0},
		B: Point3D{X: 1, Y: 2, Z: -1},
		C: Point3D{X: -1, Y: 1, Z: 3},
	}
	min, max := tr.BoundingBox()
	assert.Equal(t, Point3D{X: -1, Y: 0, Z: -1}, min)
	assert.Equal(t, Point3D{X: 1, Y: 2, Z: 3}, max)
}

func TestAngleConversion(t *testing.T) {
	assert.InDelta(t, math.Pi, float64(AngleDegrees(180).ToRadians()), 1e-9)
	assert.InDelta(t, 180, float64(AngleRadians(math.Pi).ToDegrees()), 1e-9)
}
