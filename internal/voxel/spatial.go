package voxel

import (
	"github.com/dhconnelly/rtreego"

	"github.com/piwi3910/sliceplan/internal/geometry"
)

// entry is one materialised occupied-voxel record: its global centre and
// owner. SpatialLookup keeps these in its own slice so the R-tree's
// leaves stay valid for the lookup's lifetime, independent of the
// originating Grid's internal map.
type entry struct {
	centre geometry.Point3D
	owner  uint8
}

// spatialItem adapts an entry index into rtreego's Spatial interface.
// rtreego stores the Spatial values themselves, so each item also closes
// over a pointer back into SpatialLookup.entries to avoid duplicating
// the point data.
type spatialItem struct {
	lookup *SpatialLookup
	index  int
}

func (s *spatialItem) Bounds() rtreego.Rect {
	c := s.lookup.entries[s.index].centre
	p := rtreego.Point{c.X, c.Y, c.Z}
	r, err := rtreego.NewRect(p, []float64{1e-9, 1e-9, 1e-9})
	if err != nil {
		// A degenerate (zero-size) rect is rejected by rtreego; fall back
		// to a tiny epsilon box, which can never itself fail NewRect.
		r, _ = rtreego.NewRect(p, []float64{1e-6, 1e-6, 1e-6})
	}
	return r
}

// SpatialLookup is an R-tree over a Grid's occupied voxel centres,
// supporting nearest-neighbour queries (spec.md §4.B).
type SpatialLookup struct {
	entries []entry
	tree    *rtreego.Rtree
}

// NewSpatialLookup builds a lookup from a Grid snapshot: occupied voxels
// are materialised into a fixed vector and inserted into a quadratic-split
// R-tree with branching factor 8.
func NewSpatialLookup(g *Grid) *SpatialLookup {
	l := &SpatialLookup{}
	g.VisitOccupiedSerial(func(k Key, owner uint8) {
		l.entries = append(l.entries, entry{centre: g.Centre(k), owner: owner})
	})
	l.tree = rtreego.NewTree(3, 4, 8)
	for i := range l.entries {
		l.tree.Insert(&spatialItem{lookup: l, index: i})
	}
	return l
}

// Nearest returns the occupied voxel whose centre is closest to p, using
// squared Euclidean distance.
func (l *SpatialLookup) Nearest(p geometry.Point3D) (centre geometry.Point3D, owner uint8, ok bool) {
	if len(l.entries) == 0 {
		return geometry.Point3D{}, 0, false
	}
	nearest := l.tree.NearestNeighbor(rtreego.Point{p.X, p.Y, p.Z})
	item, isItem := nearest.(*spatialItem)
	if !isItem {
		return geometry.Point3D{}, 0, false
	}
	e := l.entries[item.index]
	return e.centre, e.owner, true
}
