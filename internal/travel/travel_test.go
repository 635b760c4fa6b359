package travel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/sliceplan/internal/export"
	"github.com/piwi3910/sliceplan/internal/geometry"
	"github.com/piwi3910/sliceplan/internal/planop"
)

func featureAt(t *testing.T, points ...geometry.Point2) *planop.FeatureExtrusion {
	t.Helper()
	f := planop.NewFeatureExtrusion(export.FeatureOuterWall, 400)
	seq := planop.NewContinuousExtruderMoveSequence(false)
	for _, p := range points {
		require.NoError(t, seq.Append(planop.NewExtrusionMove(geometry.Point3{X: p.X, Y: p.Y}, 400, 50)))
	}
	require.NoError(t, f.Append(seq))
	return f
}

func buildPlan(t *testing.T) (*planop.PrintPlan, *planop.LayerPlan, *planop.ExtruderPlan) {
	t.Helper()
	plan := planop.NewPrintPlan()
	storage := planop.NewPathConfigStorage()
	layer := planop.NewLayerPlan(0, 0, 200, storage)
	require.NoError(t, plan.Append(layer))
	ep := planop.NewExtruderPlan(0)
	require.NoError(t, layer.Append(ep))
	return plan, layer, ep
}

func TestExtruderSpeedProfileBlendsByLayer(t *testing.T) {
	p := ExtruderSpeedProfile{V0: 20, V1: 100, InitialSpeedupLayerCount: 4}
	assert.Equal(t, geometry.Velocity(20), p.Speed(0))
	assert.Equal(t, geometry.Velocity(100), p.Speed(4))
	assert.Equal(t, geometry.Velocity(100), p.Speed(10))
	assert.InDelta(t, float64(60), float64(p.Speed(2)), 0.001)
}

func TestInsertTravelMovesAddsGapBetweenFeatures(t *testing.T) {
	plan, _, ep := buildPlan(t)
	f1 := featureAt(t, geometry.Point2{X: 0, Y: 0}, geometry.Point2{X: 1000, Y: 0})
	f2 := featureAt(t, geometry.Point2{X: 5000, Y: 0}, geometry.Point2{X: 6000, Y: 0})
	require.NoError(t, ep.Append(f1))
	require.NoError(t, ep.Append(f2))

	gen := &DirectTravelGenerator{Default: ExtruderSpeedProfile{V0: 150, V1: 150}}
	InsertTravelMoves(plan, gen)

	children := ep.Children()
	require.Len(t, children, 3)
	move, ok := children[1].(*planop.ExtruderMove)
	require.True(t, ok)
	assert.Equal(t, geometry.Point3{X: 5000, Y: 0}, move.Target)
}

func TestInsertTravelMovesSkipsZeroLengthGap(t *testing.T) {
	plan, _, ep := buildPlan(t)
	f1 := featureAt(t, geometry.Point2{X: 0, Y: 0}, geometry.Point2{X: 1000, Y: 0})
	f2 := featureAt(t, geometry.Point2{X: 1000, Y: 0}, geometry.Point2{X: 2000, Y: 0})
	require.NoError(t, ep.Append(f1))
	require.NoError(t, ep.Append(f2))

	InsertTravelMoves(plan, &DirectTravelGenerator{Default: ExtruderSpeedProfile{V0: 100, V1: 100}})
	assert.Len(t, ep.Children(), 2)
}

func TestInsertTravelMovesAddsGapBetweenPlansSharingExtruder(t *testing.T) {
	plan := planop.NewPrintPlan()
	storage := planop.NewPathConfigStorage()
	layer := planop.NewLayerPlan(0, 0, 200, storage)
	require.NoError(t, plan.Append(layer))
	ep0 := planop.NewExtruderPlan(0)
	ep0b := planop.NewExtruderPlan(0)
	require.NoError(t, ep0.Append(featureAt(t, geometry.Point2{X: 0, Y: 0}, geometry.Point2{X: 1000, Y: 0})))
	require.NoError(t, ep0b.Append(featureAt(t, geometry.Point2{X: 5000, Y: 0}, geometry.Point2{X: 6000, Y: 0})))
	require.NoError(t, layer.Append(ep0))
	require.NoError(t, layer.Append(ep0b))

	InsertTravelMoves(plan, &DirectTravelGenerator{Default: ExtruderSpeedProfile{V0: 150, V1: 150}})

	children := ep0.Children()
	require.Len(t, children, 2)
	move, ok := children[1].(*planop.ExtruderMove)
	require.True(t, ok)
	assert.Equal(t, geometry.Point3{X: 5000, Y: 0}, move.Target)
	assert.Len(t, ep0b.Children(), 1)
}

func TestInsertTravelMovesSkipsBetweenPlansWithDifferentExtruders(t *testing.T) {
	plan := planop.NewPrintPlan()
	storage := planop.NewPathConfigStorage()
	layer := planop.NewLayerPlan(0, 0, 200, storage)
	require.NoError(t, plan.Append(layer))
	ep0 := planop.NewExtruderPlan(0)
	ep1 := planop.NewExtruderPlan(1)
	require.NoError(t, ep0.Append(featureAt(t, geometry.Point2{X: 0, Y: 0}, geometry.Point2{X: 1000, Y: 0})))
	require.NoError(t, ep1.Append(featureAt(t, geometry.Point2{X: 5000, Y: 0}, geometry.Point2{X: 6000, Y: 0})))
	require.NoError(t, layer.Append(ep0))
	require.NoError(t, layer.Append(ep1))

	InsertTravelMoves(plan, &DirectTravelGenerator{Default: ExtruderSpeedProfile{V0: 150, V1: 150}})

	assert.Len(t, ep0.Children(), 1)
	assert.Len(t, ep1.Children(), 1)
}

func TestInsertExtruderChangesBetweenDifferingPlans(t *testing.T) {
	plan := planop.NewPrintPlan()
	storage := planop.NewPathConfigStorage()
	layer := planop.NewLayerPlan(0, 0, 200, storage)
	require.NoError(t, plan.Append(layer))
	ep0 := planop.NewExtruderPlan(0)
	ep1 := planop.NewExtruderPlan(1)
	require.NoError(t, layer.Append(ep0))
	require.NoError(t, layer.Append(ep1))

	InsertExtruderChanges(plan)

	children := layer.Children()
	require.Len(t, children, 3)
	change, ok := children[1].(*planop.ExtruderChange)
	require.True(t, ok)
	assert.Equal(t, 0, change.PrevExtruder)
	assert.Equal(t, 1, change.NextExtruder)
}

func TestInsertExtruderChangesSkipsSameExtruder(t *testing.T) {
	plan := planop.NewPrintPlan()
	storage := planop.NewPathConfigStorage()
	layer := planop.NewLayerPlan(0, 0, 200, storage)
	require.NoError(t, plan.Append(layer))
	ep0 := planop.NewExtruderPlan(0)
	ep0b := planop.NewExtruderPlan(0)
	require.NoError(t, layer.Append(ep0))
	require.NoError(t, layer.Append(ep0b))

	InsertExtruderChanges(plan)
	assert.Len(t, layer.Children(), 2)
}
