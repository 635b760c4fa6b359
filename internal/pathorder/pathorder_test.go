package pathorder

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/sliceplan/internal/geometry"
)

func line(x0, y0, x1, y1 geometry.Micron) Polyline {
	return Polyline{Points: []geometry.Point2{{X: x0, Y: y0}, {X: x1, Y: y1}}, Closed: false}
}

func TestOrderMonotonic_TwoSequenceSkin(t *testing.T) {
	// S1: two parallel lines at y=0 and y=380, both x: 0 -> 10000, direction
	// 45deg, line width 400um. The one with the smaller axial projection
	// along the 45deg direction (y=0) must come first.
	a := line(0, 0, 10000, 0)
	b := line(0, 380, 10000, 380)

	out := OrderMonotonic([]Polyline{b, a}, geometry.AngleDegrees(45).ToRadians(), 400, geometry.Point2{X: 0, Y: 0})

	require.Len(t, out, 2)
	assert.Equal(t, geometry.Point2{X: 0, Y: 0}, out[0].Points[0])
	// b is only reachable as a's adjacency connection, not a separate
	// bucket start, so its direction is free: it starts at whichever
	// endpoint is closer to the nozzle position left by a, (10000, 0).
	assert.Equal(t, geometry.Point2{X: 10000, Y: 380}, out[1].Points[0])
}

func TestOrderMonotonic_AdjacentLineStartsFromNearerEndpoint(t *testing.T) {
	a := line(0, 0, 10000, 0)
	b := line(0, 380, 10000, 380)
	out := OrderMonotonic([]Polyline{b, a}, geometry.AngleDegrees(45).ToRadians(), 400, geometry.Point2{X: 0, Y: 0})
	require.Len(t, out, 2)

	// a starts where the caller's nozzle already is.
	assert.Equal(t, geometry.Point2{X: 0, Y: 0}, out[0].Points[0])
	// b picks up right where a left off instead of travelling the long
	// way back across the diagonal to its original start point.
	lastOfA := out[0].Points[len(out[0].Points)-1]
	firstOfB := out[1].Points[0]
	assert.Less(t, dist(lastOfA, firstOfB), geometry.Micron(500))
}

func TestOrderMonotonic_LoopDetection(t *testing.T) {
	pts := []geometry.Point2{{X: 0, Y: 0}, {X: 1000, Y: 0}, {X: 1000, Y: 1000}, {X: 5, Y: 3}}
	out := OrderMonotonic([]Polyline{{Points: pts, Closed: false}}, 0, 400, geometry.Point2{X: 0, Y: 0})
	require.Len(t, out, 1)
	assert.True(t, out[0].Closed)
}

func TestOrderMonotonic_StitchesTouchingOpenLines(t *testing.T) {
	a := line(0, 0, 1000, 0)
	b := line(1003, 0, 2000, 0)
	out := OrderMonotonic([]Polyline{a, b}, 0, 400, geometry.Point2{X: 0, Y: 0})

	var total int
	for _, p := range out {
		total += len(p.Points)
	}
	assert.Equal(t, 2, len(out))
	assert.Equal(t, 4, total)
}

// P5: for any two adjacent emitted polylines A then B (perpendicular
// overlap, axial overlap within tolerance), d.earlier_endpoint(A) <=
// d.earlier_endpoint(B).
func TestOrderMonotonic_P5_AdjacentLinesRespectProjectionOrder(t *testing.T) {
	dir := geometry.AngleDegrees(0).ToRadians()
	d := direction(dir)
	lines := []Polyline{
		line(0, 1200, 10000, 1200),
		line(0, 0, 10000, 0),
		line(0, 400, 10000, 400),
		line(0, 800, 10000, 800),
	}
	out := OrderMonotonic(lines, dir, 450, geometry.Point2{X: 0, Y: 0})
	require.Len(t, out, 4)

	proj := func(p Polyline) float64 {
		return math.Min(dot(d, p.Points[0]), dot(d, p.Points[len(p.Points)-1]))
	}
	for i := 0; i < len(out)-1; i++ {
		if !perpOverlapPolylines(out[i], out[i+1], d) {
			continue
		}
		assert.LessOrEqual(t, proj(out[i]), proj(out[i+1])+1e-6)
	}
}

func perpOverlapPolylines(a, b Polyline, d geometry.Point2D) bool {
	perp := geometry.Point2D{X: -d.Y, Y: d.X}
	aMin, aMax := rangeOf(a, perp)
	bMin, bMax := rangeOf(b, perp)
	return aMin <= bMax && bMin <= aMax
}

func rangeOf(p Polyline, perp geometry.Point2D) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, pt := range p.Points {
		v := dot(perp, pt)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func TestOrderMonotonic_Empty(t *testing.T) {
	assert.Nil(t, OrderMonotonic(nil, 0, 400, geometry.Point2{}))
}

func TestClosestIndexReportsWhichEndpointIsNearer(t *testing.T) {
	near := &node{start: geometry.Point2{X: 0, Y: 0}, end: geometry.Point2{X: 100, Y: 0}}
	far := &node{start: geometry.Point2{X: 1000, Y: 0}, end: geometry.Point2{X: 1100, Y: 0}}

	idx, startCloser := closestIndex([]*node{far, near}, geometry.Point2{X: 90, Y: 0})
	assert.Equal(t, 1, idx)
	assert.False(t, startCloser, "near's end (100,0) is closer than its start (0,0) to (90,0)")
}

func TestReverseNodeFlipsOpenLineOnly(t *testing.T) {
	open := &node{line: Polyline{Points: []geometry.Point2{{X: 0}, {X: 1000}}}, start: geometry.Point2{X: 0}, end: geometry.Point2{X: 1000}}
	reverseNode(open)
	assert.True(t, open.backwards)
	assert.Equal(t, geometry.Point2{X: 1000}, open.start)
	assert.Equal(t, geometry.Point2{X: 0}, open.end)

	closed := &node{line: Polyline{Closed: true, Points: []geometry.Point2{{X: 0}, {X: 1000}, {X: 1000, Y: 1000}}}, start: geometry.Point2{X: 0}, end: geometry.Point2{X: 1000, Y: 1000}}
	reverseNode(closed)
	assert.False(t, closed.backwards)
	assert.Equal(t, geometry.Point2{X: 0}, closed.start)
}
