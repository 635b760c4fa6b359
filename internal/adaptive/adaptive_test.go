package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeightFromSlopeMatchesScenarioS6(t *testing.T) {
	f := Face{NSin: 0.5, NCos: 0.5}
	assert.InDelta(t, 0.072, heightFromSlope(f, 0.05), 1e-9)
}

func TestHeightFromSlopeClampsToRoughnessLimitWhenVertical(t *testing.T) {
	f := Face{NSin: 1, NCos: 0}
	assert.InDelta(t, 0.05/0.184, heightFromSlope(f, 0.05), 1e-9)
}

func TestEffectiveDeviationBlendsAroundBase(t *testing.T) {
	cfg := AdvancedConfig{MinHeight: 0.1, BaseHeight: 0.2, MaxHeight: 0.3}
	assert.InDelta(t, 0.2, effectiveDeviation(cfg, 0.5), 1e-9)
	assert.InDelta(t, 0.1, effectiveDeviation(cfg, 0), 1e-9)
	assert.InDelta(t, 0.3, effectiveDeviation(cfg, 1), 1e-9)
}

func TestLegacyAdaptiveHeightsPicksLargestSafeStep(t *testing.T) {
	// a face with zero slope (NSin 0) should always take the largest allowed height
	faces := []Face{{ZMin: 0, ZMax: 10, NSin: 0, NCos: 1}}
	cfg := LegacyConfig{BaseLayerHeight: 0.2, MaxVariation: 0.1, StepSize: 0.05, Threshold: 1.0, ObjectHeight: 1.0}
	layers := LegacyAdaptiveHeights(faces, cfg)
	if assert.NotEmpty(t, layers) {
		for _, l := range layers {
			assert.InDelta(t, 0.3, l.Height, 1e-9)
		}
	}
}

func TestLegacyAdaptiveHeightsReducesHeightOnSteepSlope(t *testing.T) {
	faces := []Face{{ZMin: 0, ZMax: 10, NSin: 1, NCos: 0.01}}
	cfg := LegacyConfig{BaseLayerHeight: 0.2, MaxVariation: 0.1, StepSize: 0.05, Threshold: 1.0, ObjectHeight: 0.5}
	layers := LegacyAdaptiveHeights(faces, cfg)
	require := assert.New(t)
	require.NotEmpty(layers)
	require.Less(layers[0].Height, 0.3)
}

func TestAdvancedAdaptiveHeightsClampsToBounds(t *testing.T) {
	faces := []Face{{ZMin: 0, ZMax: 10, NSin: 0.5, NCos: 0.5}}
	cfg := AdvancedConfig{MinHeight: 0.05, BaseHeight: 0.2, MaxHeight: 0.3, ObjectHeight: 1.0}
	layers := AdvancedAdaptiveHeights(faces, cfg, 0.5)
	if assert.NotEmpty(t, layers) {
		for _, l := range layers {
			assert.GreaterOrEqual(t, l.Height, cfg.MinHeight)
			assert.LessOrEqual(t, l.Height, cfg.MaxHeight)
		}
	}
}

func TestLayerHeightSmoothingStaysWithinBoundsAndMonotonicZ(t *testing.T) {
	heights := []float64{0.2, 0.2, 0.05, 0.3, 0.2, 0.2, 0.2, 0.2}
	s := LayerHeightSmoothing{Radius: 2, ClampToOriginalMin: false}
	smoothed := s.Smooth(heights, 0.05, 0.3)
	require := assert.New(t)
	require.Len(smoothed, len(heights))
	lastZ := -1.0
	for _, l := range smoothed {
		require.GreaterOrEqual(l.Height, 0.05)
		require.LessOrEqual(l.Height, 0.3)
		require.Greater(l.Z, lastZ)
		lastZ = l.Z
	}
}

func TestLayerHeightSmoothingShortProfilePassesThrough(t *testing.T) {
	heights := []float64{0.2, 0.25}
	s := LayerHeightSmoothing{Radius: 2}
	out := s.Smooth(heights, 0.1, 0.3)
	assert.Len(t, out, 2)
}
