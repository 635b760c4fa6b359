package seam

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/sliceplan/internal/geometry"
)

func squarePoints(side geometry.Micron) []geometry.Point2 {
	return []geometry.Point2{
		{X: 0, Y: 0},
		{X: side, Y: 0},
		{X: side, Y: side},
		{X: 0, Y: side},
	}
}

func TestBuildCandidates_Closed(t *testing.T) {
	pts := squarePoints(10000)
	cands := BuildCandidates(pts, true)
	require.Len(t, cands, 4)
	for _, c := range cands {
		assert.Equal(t, ActionReorder, c.Action)
	}
}

func TestBuildCandidates_Open(t *testing.T) {
	pts := []geometry.Point2{{X: 0, Y: 0}, {X: 1000, Y: 0}}
	cands := BuildCandidates(pts, false)
	require.Len(t, cands, 2)
	assert.Equal(t, ActionNone, cands[0].Action)
	assert.Equal(t, ActionReverse, cands[1].Action)
}

func TestSelect_UserSpecified_PicksNearestVertex(t *testing.T) {
	pts := squarePoints(10000)
	cfg := Config{Type: UserSpecified, UserPoint: geometry.Point2{X: 9800, Y: 100}}
	cand, ok := Select(pts, true, cfg, nil, rand.New(rand.NewSource(1)))
	require.True(t, ok)
	assert.Equal(t, 1, cand.Index) // (10000, 0) is nearest to (9800, 100)
}

func TestSelect_ExclusionArea_AvoidsRegion(t *testing.T) {
	pts := squarePoints(10000)
	cfg := Config{Type: UserSpecified, UserPoint: geometry.Point2{X: 0, Y: 0}}
	excluded := rectExclusion{min: geometry.Point2{X: -1, Y: -1}, max: geometry.Point2{X: 1, Y: 1}}
	cand, ok := Select(pts, true, cfg, excluded, rand.New(rand.NewSource(1)))
	require.True(t, ok)
	assert.NotEqual(t, 0, cand.Index) // vertex 0 sits inside the excluded area
}

func TestCornerScore_InnerPrefersConcave(t *testing.T) {
	assert.Greater(t, float64(cornerScore(-0.9, PrefInner)), float64(cornerScore(0.9, PrefInner)))
}

func TestCornerScore_OuterPrefersConvex(t *testing.T) {
	assert.Greater(t, float64(cornerScore(0.9, PrefOuter)), float64(cornerScore(-0.9, PrefOuter)))
}

func TestCornerScore_Any(t *testing.T) {
	assert.Equal(t, cornerScore(0.6, PrefAny), cornerScore(-0.6, PrefAny))
}

func TestCornerScore_Weighted(t *testing.T) {
	assert.InDelta(t, 0.5, float64(cornerScore(-0.5, PrefWeighted)), 1e-9)
	assert.InDelta(t, 0.25, float64(cornerScore(0.5, PrefWeighted)), 1e-9)
}

func TestSelect_SharpestCornerInner_TieBrokenByBackThenRightMost(t *testing.T) {
	// S2: a square where every corner ties on corner angle. The two
	// fallback passes (back-most, then right-most) must deterministically
	// land on the top-right corner.
	pts := squarePoints(10000)
	cfg := Config{Type: SharpestCorner, CornerPref: PrefInner}
	cand, ok := Select(pts, true, cfg, nil, rand.New(rand.NewSource(1)))
	require.True(t, ok)
	assert.Equal(t, geometry.Point2{X: 10000, Y: 10000}, pts[cand.Index])
}

type rectExclusion struct{ min, max geometry.Point2 }

func (r rectExclusion) Contains(p geometry.Point2) bool {
	return p.X >= r.min.X && p.X <= r.max.X && p.Y >= r.min.Y && p.Y <= r.max.Y
}
