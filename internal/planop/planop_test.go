package planop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/sliceplan/internal/export"
	"github.com/piwi3910/sliceplan/internal/geometry"
)

func TestTreeInvariantsRejectWrongChildType(t *testing.T) {
	plan := NewPrintPlan()
	err := plan.Append(NewExtruderPlan(0))
	assert.Error(t, err)
}

func TestPrintPlanRequiresStrictlyIncreasingLayerIndex(t *testing.T) {
	plan := NewPrintPlan()
	storage := NewPathConfigStorage()
	require.NoError(t, plan.Append(NewLayerPlan(0, 0, 200, storage)))
	require.NoError(t, plan.Append(NewLayerPlan(1, 200, 200, storage)))
	err := plan.Append(NewLayerPlan(1, 400, 200, storage))
	assert.Error(t, err)
	err = plan.Append(NewLayerPlan(0, 400, 200, storage))
	assert.Error(t, err)
}

func TestDetachClearsParentBackReference(t *testing.T) {
	plan := NewPrintPlan()
	storage := NewPathConfigStorage()
	layer := NewLayerPlan(0, 0, 200, storage)
	require.NoError(t, plan.Append(layer))
	assert.Equal(t, Operation(plan), layer.Parent())

	ok := Detach(layer)
	assert.True(t, ok)
	assert.Nil(t, layer.Parent())
	assert.Empty(t, plan.Layers())
}

func TestReverseIsAnInvolution(t *testing.T) {
	seq := NewContinuousExtruderMoveSequence(false)
	pts := []geometry.Point3{{X: 0}, {X: 1000}, {X: 2000}}
	for _, p := range pts {
		require.NoError(t, seq.Append(NewExtrusionMove(p, 400, 50)))
	}
	before := extractTargets(seq)

	require.NoError(t, seq.Reverse())
	require.NoError(t, seq.Reverse())

	after := extractTargets(seq)
	assert.Equal(t, before, after)
}

func TestReorderToStartAtPreservesSegmentMultiset(t *testing.T) {
	seq := NewContinuousExtruderMoveSequence(true)
	pts := []geometry.Point3{{X: 0}, {X: 1000}, {X: 1000, Y: 1000}, {X: 0, Y: 1000}}
	for _, p := range pts {
		require.NoError(t, seq.Append(NewExtrusionMove(p, 400, 50)))
	}
	before := asSet(extractTargets(seq))

	require.NoError(t, seq.ReorderToStartAt(2))

	after := asSet(extractTargets(seq))
	assert.Equal(t, before, after)
	assert.Equal(t, geometry.Point3{X: 1000, Y: 1000}, seq.Children()[0].(*ExtrusionMove).Target)
}

func TestFindByTypeRespectsMaxDepth(t *testing.T) {
	plan := NewPrintPlan()
	storage := NewPathConfigStorage()
	layer := NewLayerPlan(0, 0, 200, storage)
	require.NoError(t, plan.Append(layer))
	ep := NewExtruderPlan(0)
	require.NoError(t, layer.Append(ep))

	depth0 := 0
	_, ok := FindByType[*ExtruderPlan](plan, Forward, &depth0, nil)
	assert.False(t, ok, "extruder plan is two levels down, not a direct child of the print plan")

	_, ok = FindByType[*ExtruderPlan](plan, Forward, nil, nil)
	assert.True(t, ok)
}

func TestWriteEmitsLayerStartAndEnd(t *testing.T) {
	storage := NewPathConfigStorage()
	layer := NewLayerPlan(3, 600, 200, storage)
	ep := NewExtruderPlan(0)
	require.NoError(t, layer.Append(ep))
	feat := NewFeatureExtrusion(export.FeatureOuterWall, 400)
	require.NoError(t, ep.Append(feat))
	seq := NewContinuousExtruderMoveSequence(false)
	require.NoError(t, feat.Append(seq))
	require.NoError(t, seq.Append(NewExtrusionMove(geometry.Point3{X: 1000, Y: 2000}, 400, 50)))

	rec := &recordingExporter{}
	require.NoError(t, layer.Write(rec))

	require.Len(t, rec.layerStarts, 1)
	assert.Equal(t, 3, rec.layerStarts[0])
	require.Len(t, rec.layerEnds, 1)
	require.Len(t, rec.extrusions, 1)
	assert.Equal(t, geometry.Point3{X: 1000, Y: 2000, Z: 600}, rec.extrusions[0])
}

func extractTargets(seq *ContinuousExtruderMoveSequence) []geometry.Point3 {
	var out []geometry.Point3
	for _, c := range seq.Children() {
		out = append(out, c.(*ExtrusionMove).Target)
	}
	return out
}

func asSet(pts []geometry.Point3) map[geometry.Point3]bool {
	m := make(map[geometry.Point3]bool, len(pts))
	for _, p := range pts {
		m[p] = true
	}
	return m
}

type recordingExporter struct {
	layerStarts []int
	layerEnds   []int
	extrusions  []geometry.Point3
}

func (r *recordingExporter) LayerStart(layerIndex int, _ geometry.Point2) {
	r.layerStarts = append(r.layerStarts, layerIndex)
}
func (r *recordingExporter) LayerEnd(layerIndex int, _ geometry.Micron, _ geometry.Micron) {
	r.layerEnds = append(r.layerEnds, layerIndex)
}
func (r *recordingExporter) Travel(geometry.Point3, geometry.Velocity, export.PrintFeatureType) {}
func (r *recordingExporter) Extrusion(position geometry.Point3, _ geometry.Velocity, _ int, _ geometry.Ratio, _, _ geometry.Micron, _ export.PrintFeatureType, _ bool) {
	r.extrusions = append(r.extrusions, position)
}
func (r *recordingExporter) ExtruderChange(int) {}
