package voxel

import (
	"math"

	"github.com/piwi3910/sliceplan/internal/geometry"
)

// VoxelsTraversedBy rasterises a triangle into the grid: project onto X,
// iterate X-slabs; within each slab clip the triangle to the slab's
// bounds; iterate Y-columns over the clipped shape; clip again; iterate
// Z-cells over the resulting Y-tube. Every voxel touched by the clipped
// sub-shape is returned (spec.md §4.B, P8).
func (g *Grid) VoxelsTraversedBy(tri geometry.Triangle3D) []Key {
	min, max := tri.BoundingBox()
	xMinIdx, _, _, _ := g.localCoordClamped(geometry.Point3D{X: min.X, Y: min.Y, Z: min.Z})
	xMaxIdx, _, _, _ := g.localCoordClamped(geometry.Point3D{X: max.X, Y: max.Y, Z: max.Z})

	seen := make(map[Key]bool)
	var out []Key

	for xi := xMinIdx; xi <= xMaxIdx; xi++ {
		slabLo := g.min.X + float64(xi)*g.resolution.X
		slabHi := slabLo + g.resolution.X
		ys, zRangeByY := clipTriangleToXSlab(tri, slabLo, slabHi, g)
		for yi, zRange := range ys {
			for zi := zRange[0]; zi <= zRange[1]; zi++ {
				if yi < 0 || yi >= g.slices[1] || zi < 0 || zi >= g.slices[2] {
					continue
				}
				k := PackKey(uint16(xi), uint16(yi), uint16(zi))
				if !seen[k] {
					seen[k] = true
					out = append(out, k)
				}
			}
		}
		_ = zRangeByY
	}
	return out
}

func (g *Grid) localCoordClamped(p geometry.Point3D) (x, y, z int, _ bool) {
	lx := int(math.Floor((p.X - g.min.X) / g.resolution.X))
	ly := int(math.Floor((p.Y - g.min.Y) / g.resolution.Y))
	lz := int(math.Floor((p.Z - g.min.Z) / g.resolution.Z))
	lx = clampInt(lx, 0, g.slices[0]-1)
	ly = clampInt(ly, 0, g.slices[1]-1)
	lz = clampInt(lz, 0, g.slices[2]-1)
	return lx, ly, lz, true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clipTriangleToXSlab clips the triangle's edges against [xLo, xHi] and
// returns, for every Y-column the clipped sub-shape touches, the
// [zMin, zMax] cell index range of that Y-tube.
func clipTriangleToXSlab(tri geometry.Triangle3D, xLo, xHi float64, g *Grid) (map[int][2]int, map[int][2]int) {
	pts := clipPolygonAxis(triVerts(tri), 0, xLo, xHi)
	result := make(map[int][2]int)
	if len(pts) == 0 {
		return result, result
	}
	yMin, yMax := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		if p.Y < yMin {
			yMin = p.Y
		}
		if p.Y > yMax {
			yMax = p.Y
		}
	}
	yiMin, _, _, _ := g.localCoordClamped(geometry.Point3D{X: xLo, Y: yMin, Z: 0})
	yiMax, _, _, _ := g.localCoordClamped(geometry.Point3D{X: xLo, Y: yMax, Z: 0})
	_ = yiMin
	loYi := int(math.Floor((yMin - g.min.Y) / g.resolution.Y))
	hiYi := int(math.Floor((yMax - g.min.Y) / g.resolution.Y))
	loYi = clampInt(loYi, 0, g.slices[1]-1)
	hiYi = clampInt(hiYi, 0, g.slices[1]-1)

	for yi := loYi; yi <= hiYi; yi++ {
		yLo := g.min.Y + float64(yi)*g.resolution.Y
		yHi := yLo + g.resolution.Y
		column := clipPolygonAxis(pts, 1, yLo, yHi)
		if len(column) == 0 {
			continue
		}
		zMin, zMax := math.Inf(1), math.Inf(-1)
		for _, p := range column {
			if p.Z < zMin {
				zMin = p.Z
			}
			if p.Z > zMax {
				zMax = p.Z
			}
		}
		loZi := clampInt(int(math.Floor((zMin-g.min.Z)/g.resolution.Z)), 0, g.slices[2]-1)
		hiZi := clampInt(int(math.Floor((zMax-g.min.Z)/g.resolution.Z)), 0, g.slices[2]-1)
		result[yi] = [2]int{loZi, hiZi}
	}
	return result, result
}

type vertex3 struct{ X, Y, Z float64 }

func triVerts(t geometry.Triangle3D) []vertex3 {
	return []vertex3{{t.A.X, t.A.Y, t.A.Z}, {t.B.X, t.B.Y, t.B.Z}, {t.C.X, t.C.Y, t.C.Z}}
}

// clipPolygonAxis clips a convex polygon against [lo, hi] on the given
// axis (0=X, 1=Y, 2=Z) using Sutherland-Hodgman.
func clipPolygonAxis(poly []vertex3, axis int, lo, hi float64) []vertex3 {
	poly = clipHalfPlane(poly, axis, lo, true)
	poly = clipHalfPlane(poly, axis, hi, false)
	return poly
}

func axisVal(v vertex3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func lerpVertex(a, b vertex3, t float64) vertex3 {
	return vertex3{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t, a.Z + (b.Z-a.Z)*t}
}

// clipHalfPlane keeps the portion of poly where axisVal >= bound (greater)
// or axisVal <= bound (!greater).
func clipHalfPlane(poly []vertex3, axis int, bound float64, greater bool) []vertex3 {
	if len(poly) == 0 {
		return poly
	}
	inside := func(v vertex3) bool {
		a := axisVal(v, axis)
		if greater {
			return a >= bound
		}
		return a <= bound
	}
	var out []vertex3
	n := len(poly)
	for i := 0; i < n; i++ {
		cur := poly[i]
		prev := poly[(i-1+n)%n]
		curIn, prevIn := inside(cur), inside(prev)
		if curIn {
			if !prevIn {
				t := (bound - axisVal(prev, axis)) / (axisVal(cur, axis) - axisVal(prev, axis))
				out = append(out, lerpVertex(prev, cur, t))
			}
			out = append(out, cur)
		} else if prevIn {
			t := (bound - axisVal(prev, axis)) / (axisVal(cur, axis) - axisVal(prev, axis))
			out = append(out, lerpVertex(prev, cur, t))
		}
	}
	return out
}
