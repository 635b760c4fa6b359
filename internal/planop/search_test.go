package planop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/sliceplan/internal/export"
	"github.com/piwi3910/sliceplan/internal/geometry"
)

func TestApplyProcessorsRecursivelyVisitsRootAndEveryDescendant(t *testing.T) {
	storage := NewPathConfigStorage()
	layer := NewLayerPlan(0, 0, 200, storage)
	ep := NewExtruderPlan(0)
	require.NoError(t, layer.Append(ep))

	f1 := NewFeatureExtrusion(export.FeatureOuterWall, 400)
	f2 := NewFeatureExtrusion(export.FeatureInfill, 400)
	require.NoError(t, ep.Append(f1))
	require.NoError(t, ep.Append(f2))

	var visited []*FeatureExtrusion
	ApplyProcessorsRecursively(layer, func(f *FeatureExtrusion) {
		visited = append(visited, f)
	})

	assert.Equal(t, []*FeatureExtrusion{f1, f2}, visited)
}

func TestApplyProcessorsRecursivelyIncludesRootItself(t *testing.T) {
	seq := NewContinuousExtruderMoveSequence(false)
	require.NoError(t, seq.Append(NewExtrusionMove(geometry.Point3{X: 1000}, 400, 50)))

	var visited int
	ApplyProcessorsRecursively(seq, func(*ContinuousExtruderMoveSequence) {
		visited++
	})

	assert.Equal(t, 1, visited)
}

func TestApplyProcessorsRecursivelySkipsNonMatchingTypes(t *testing.T) {
	storage := NewPathConfigStorage()
	layer := NewLayerPlan(0, 0, 200, storage)
	ep := NewExtruderPlan(0)
	require.NoError(t, layer.Append(ep))

	var count int
	ApplyProcessorsRecursively(layer, func(*ExtruderMove) {
		count++
	})

	assert.Equal(t, 0, count)
}
