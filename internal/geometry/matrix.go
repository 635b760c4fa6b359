package geometry

// Matrix4x3 is a row-major affine transform: 3 rows of 4 coefficients,
// the last column carrying translation. It is the only transform type
// the core needs (mesh placement + uniform scale-about-origin).
type Matrix4x3 struct {
	m [3][4]float64
}

// Identity returns the identity transform.
func Identity() Matrix4x3 {
	var m Matrix4x3
	m.m[0][0], m.m[1][1], m.m[2][2] = 1, 1, 1
	return m
}

// Translate returns a pure-translation transform.
func Translate(by Point3D) Matrix4x3 {
	m := Identity()
	m.m[0][3], m.m[1][3], m.m[2][3] = by.X, by.Y, by.Z
	return m
}

// ScaleUniform returns a pure uniform-scale transform about the origin.
func ScaleUniform(s Ratio) Matrix4x3 {
	var m Matrix4x3
	m.m[0][0], m.m[1][1], m.m[2][2] = float64(s), float64(s), float64(s)
	return m
}

// Compose returns the transform that applies m first, then other
// (other ∘ m, matching how Then reads left to right below).
func (m Matrix4x3) Compose(other Matrix4x3) Matrix4x3 {
	var out Matrix4x3
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			v := 0.0
			for k := 0; k < 3; k++ {
				v += other.m[r][k] * m.m[k][c]
			}
			if c == 3 {
				v += other.m[r][3]
			}
			out.m[r][c] = v
		}
	}
	return out
}

// Then is a readable alias for Compose used to express a pipeline of
// transforms left-to-right: a.Then(b).Then(c) applies a, then b, then c.
func (m Matrix4x3) Then(next Matrix4x3) Matrix4x3 { return m.Compose(next) }

// ScaleAbout returns scale(s) applied about origin o: translate(-o) then
// scale(s) then translate(o), composed into a single matrix.
func ScaleAbout(s Ratio, o Point3D) Matrix4x3 {
	neg := Point3D{X: -o.X, Y: -o.Y, Z: -o.Z}
	return Translate(neg).Then(ScaleUniform(s)).Then(Translate(o))
}

// Apply transforms p and rounds the result to fixed-point Microns.
func (m Matrix4x3) Apply(p Point3D) Point3 {
	x := m.m[0][0]*p.X + m.m[0][1]*p.Y + m.m[0][2]*p.Z + m.m[0][3]
	y := m.m[1][0]*p.X + m.m[1][1]*p.Y + m.m[1][2]*p.Z + m.m[1][3]
	z := m.m[2][0]*p.X + m.m[2][1]*p.Y + m.m[2][2]*p.Z + m.m[2][3]
	return Point3D{X: x, Y: y, Z: z}.ToMicron()
}

// ApplyMM transforms p and returns the floating-point millimetre result,
// without rounding to Microns. Used by surface/slope math that must stay
// in float precision.
func (m Matrix4x3) ApplyMM(p Point3D) Point3D {
	x := m.m[0][0]*p.X + m.m[0][1]*p.Y + m.m[0][2]*p.Z + m.m[0][3]
	y := m.m[1][0]*p.X + m.m[1][1]*p.Y + m.m[1][2]*p.Z + m.m[1][3]
	z := m.m[2][0]*p.X + m.m[2][1]*p.Y + m.m[2][2]*p.Z + m.m[2][3]
	return Point3D{X: x, Y: y, Z: z}
}
