// Package pathorder orders a set of polylines along a monotonic
// direction so that adjacent lines print in a consistent direction, and
// chains collinear open polylines into single sweeps (spec.md §4.E).
//
// Grounded on internal/gcode/generator.go's orderPlacements (walk
// remaining items, always pick the spatially closest, update the current
// position) and, to resolve algorithmic ambiguity left open by spec.md,
// on _examples/original_source/include/PathOrderMonotonic.h — the cycle
// guard is deliberately corrected per spec.md §9's Open Question rather
// than reproduced as-is.
package pathorder

import (
	"math"
	"sort"

	"github.com/piwi3910/sliceplan/internal/geometry"
)

// coincidenceDistance is the distance within which two open-polyline
// endpoints are considered the same point (loop detection, string
// stitching).
const coincidenceDistance = geometry.Micron(10)

// bucketCellSize is the cell size of the spatial bucket grid built over
// endpoints.
const bucketCellSize = geometry.Micron(2000)

// startBucketPrecision rounds projection keys so truly co-linear starts
// share a bucket.
const startBucketPrecision = geometry.Micron(10)

// Polyline is one input path: an ordered point list, closed (polygon) or
// open.
type Polyline struct {
	Points []geometry.Point2
	Closed bool
}

type node struct {
	line        Polyline
	start       geometry.Point2
	end         geometry.Point2
	backwards   bool
	committed   bool // true once stitchStrings has fixed this node's direction; emit must not re-flip it
	startVertex int  // index into line.Points this node's printed order starts at, for closed lines
	connections []*node
	consumed    bool
}

func direction(angle geometry.AngleRadians) geometry.Point2D {
	return geometry.Point2D{X: math.Cos(float64(angle)), Y: math.Sin(float64(angle))}
}

func dot(d geometry.Point2D, p geometry.Point2) float64 {
	return d.X*float64(p.X) + d.Y*float64(p.Y)
}

func dist(a, b geometry.Point2) geometry.Micron { return a.Sub(b).VSize() }

// detectLoops reclassifies an open polyline whose endpoints are within
// coincidenceDistance as closed.
func detectLoops(lines []Polyline) []Polyline {
	out := make([]Polyline, len(lines))
	for i, l := range lines {
		if !l.Closed && len(l.Points) > 2 && dist(l.Points[0], l.Points[len(l.Points)-1]) <= coincidenceDistance {
			l.Closed = true
		}
		out[i] = l
	}
	return out
}

func buildNodes(lines []Polyline) []*node {
	nodes := make([]*node, len(lines))
	for i, l := range lines {
		n := &node{line: l}
		n.start = l.Points[0]
		n.end = l.Points[len(l.Points)-1]
		nodes[i] = n
	}
	return nodes
}

// OrderMonotonic implements spec.md §4.E end to end.
func OrderMonotonic(lines []Polyline, direction_ geometry.AngleRadians, maxAdjacentDistance geometry.Micron, startPosition geometry.Point2) []Polyline {
	if len(lines) == 0 {
		return nil
	}
	lines = detectLoops(lines)
	d := direction(direction_)
	nodes := buildNodes(lines)

	sort.SliceStable(nodes, func(i, j int) bool {
		return projectionKey(nodes[i], d) < projectionKey(nodes[j], d)
	})

	stitchStrings(nodes, d)
	linkAdjacentSequences(nodes, d, maxAdjacentDistance)

	starts := collectStarts(nodes)
	buckets := bucketizeStarts(starts, d)

	return emit(buckets, startPosition)
}

func projectionKey(n *node, d geometry.Point2D) float64 {
	return math.Min(dot(d, n.start), dot(d, n.end))
}

// stitchStrings chains open polylines whose endpoints meet within
// coincidenceDistance into a single traversal direction, earliest-first.
// A polyline already claimed by one string cannot join another.
func stitchStrings(nodes []*node, d geometry.Point2D) {
	claimed := make(map[*node]bool)
	endpointIndex := make(map[geometry.Point2][]*node)
	for _, n := range nodes {
		if n.line.Closed {
			continue
		}
		endpointIndex[n.start] = append(endpointIndex[n.start], n)
		endpointIndex[n.end] = append(endpointIndex[n.end], n)
	}
	near := func(p geometry.Point2) []*node {
		var out []*node
		for q, ns := range endpointIndex {
			if dist(p, q) <= coincidenceDistance {
				out = append(out, ns...)
			}
		}
		return out
	}

	for _, n := range nodes {
		if n.line.Closed || claimed[n] {
			continue
		}
		chain := []*node{n}
		claimed[n] = true
		cursor := n
		for {
			candidates := near(cursor.end)
			var next *node
			for _, c := range candidates {
				if c != cursor && !claimed[c] {
					next = c
					break
				}
			}
			if next == nil {
				break
			}
			if dist(next.start, cursor.end) > dist(next.end, cursor.end) {
				next.backwards = true
				next.start, next.end = next.end, next.start
			}
			claimed[next] = true
			chain = append(chain, next)
			cursor = next
		}
		if len(chain) > 1 {
			if projectionKey(chain[0], d) > projectionKey(chain[len(chain)-1], d) {
				reverseChain(chain)
			}
			for _, cn := range chain {
				cn.committed = true
			}
			for i := 0; i < len(chain)-1; i++ {
				chain[i].connections = append(chain[i].connections, chain[i+1])
				chain[i+1].consumed = true
			}
		}
	}
}

func reverseChain(chain []*node) {
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	for _, n := range chain {
		n.backwards = !n.backwards
		n.start, n.end = n.end, n.start
	}
}

// linkAdjacentSequences marks, for polylines not already in a string, a
// later polyline as adjacent when its axial projection overlaps within
// maxAdjacentDistance and its perpendicular projection overlaps.
func linkAdjacentSequences(nodes []*node, d geometry.Point2D, maxAdjacentDistance geometry.Micron) {
	perp := geometry.Point2D{X: -d.Y, Y: d.X}
	for i, n := range nodes {
		if n.consumed {
			continue
		}
		for j := i + 1; j < len(nodes); j++ {
			other := nodes[j]
			if other.consumed || other == n {
				continue
			}
			axialGap := projectionKey(other, d) - projectionKey(n, d)
			if axialGap > float64(maxAdjacentDistance) {
				break // sorted by projection: nothing further can be closer
			}
			if perpOverlap(n, other, perp) {
				n.connections = append(n.connections, other)
				other.consumed = true
				break
			}
		}
	}
}

func perpOverlap(a, b *node, perp geometry.Point2D) bool {
	aMin, aMax := perpRange(a, perp)
	bMin, bMax := perpRange(b, perp)
	return aMin <= bMax && bMin <= aMax
}

func perpRange(n *node, perp geometry.Point2D) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, p := range n.line.Points {
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

// collectStarts returns every node not already consumed as a chain
// successor: the set of legal places a traversal may begin.
func collectStarts(nodes []*node) []*node {
	var starts []*node
	for _, n := range nodes {
		if !n.consumed {
			starts = append(starts, n)
		}
	}
	return starts
}

func bucketizeStarts(starts []*node, d geometry.Point2D) map[geometry.Micron][]*node {
	buckets := make(map[geometry.Micron][]*node)
	for _, n := range starts {
		key := geometry.Micron(math.Round(projectionKey(n, d)/float64(startBucketPrecision))) * startBucketPrecision
		buckets[key] = append(buckets[key], n)
	}
	return buckets
}

// emit greedily walks the buckets in increasing projection order,
// choosing within each bucket the start closest to the current nozzle
// position, then following connection chains with a full visited-set
// cycle guard (the corrected behaviour from spec.md §9's Open Question).
func emit(buckets map[geometry.Micron][]*node, startPosition geometry.Point2) []Polyline {
	keys := make([]geometry.Micron, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	remaining := make(map[geometry.Micron][]*node, len(buckets))
	for k, v := range buckets {
		cp := make([]*node, len(v))
		copy(cp, v)
		remaining[k] = cp
	}

	current := startPosition
	var out []Polyline

	for _, k := range keys {
		for len(remaining[k]) > 0 {
			bestIdx, startCloser := closestIndex(remaining[k], current)
			n := remaining[k][bestIdx]
			remaining[k] = append(remaining[k][:bestIdx], remaining[k][bestIdx+1:]...)
			if !startCloser {
				reverseNode(n)
			}

			visited := map[*node]bool{}
			cursor := n
			for cursor != nil && !visited[cursor] {
				visited[cursor] = true
				emitted := orientedLine(cursor)
				out = append(out, emitted)
				current = cursor.end
				var next *node
				for _, c := range cursor.connections {
					if !visited[c] {
						next = c
						break
					}
				}
				// Lines only linked by perpendicular adjacency (not a
				// stitched string) have no fixed direction yet: orient
				// them by distance from the nozzle's current position,
				// same as the bucket-entry pick above.
				if next != nil && !next.committed {
					if _, startCloser := endpointDistances(next, current); !startCloser {
						reverseNode(next)
					}
				}
				cursor = next
			}
		}
	}
	return out
}

// closestIndex returns the index of the node in nodes with an endpoint
// nearest to from, and whether that node's start (rather than its end)
// is the nearer endpoint.
func closestIndex(nodes []*node, from geometry.Point2) (int, bool) {
	best := 0
	bestDist, bestStartCloser := endpointDistances(nodes[0], from)
	for i := 1; i < len(nodes); i++ {
		d, startCloser := endpointDistances(nodes[i], from)
		if d < bestDist {
			bestDist = d
			bestStartCloser = startCloser
			best = i
		}
	}
	return best, bestStartCloser
}

func endpointDistances(n *node, from geometry.Point2) (best float64, startCloser bool) {
	ds := float64(dist(n.start, from))
	de := float64(dist(n.end, from))
	if ds <= de {
		return ds, true
	}
	return de, false
}

// reverseNode flips an open line's printed direction so it begins at its
// stored end rather than its stored start (§4.E step 7's forward/backward
// distance test). Closed lines start at startVertex regardless of
// direction, so this is a no-op for them.
func reverseNode(n *node) {
	if n.line.Closed {
		return
	}
	n.backwards = !n.backwards
	n.start, n.end = n.end, n.start
}

func orientedLine(n *node) Polyline {
	if n.line.Closed {
		return reorderedClosed(n)
	}
	if n.backwards {
		return Polyline{Points: reversedPoints(n.line.Points), Closed: false}
	}
	return n.line
}

func reorderedClosed(n *node) Polyline {
	pts := n.line.Points
	if n.startVertex == 0 {
		return n.line
	}
	out := make([]geometry.Point2, 0, len(pts))
	out = append(out, pts[n.startVertex:]...)
	out = append(out, pts[:n.startVertex]...)
	return Polyline{Points: out, Closed: true}
}

func reversedPoints(pts []geometry.Point2) []geometry.Point2 {
	out := make([]geometry.Point2, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}
