package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/sliceplan/internal/geometry"
)

func constScore(values []geometry.Ratio) Criterion {
	return CriterionFunc(func(c int) geometry.Ratio { return values[c] })
}

func TestFindBest_SinglePass(t *testing.T) {
	f := &Finder{
		Passes: []Pass{
			{Criteria: []WeightedCriterion{{Criterion: constScore([]geometry.Ratio{0.2, 0.9, 0.5}), Weight: 1}}, OutsiderDeltaThreshold: 0},
		},
	}
	best, ok := f.FindBest(3)
	require.True(t, ok)
	assert.Equal(t, 1, best)
}

func TestFindBest_FallbackPassNarrowsTies(t *testing.T) {
	// Main pass: candidates 0 and 1 tie; candidate 2 is clearly worse.
	main := Pass{
		Criteria:               []WeightedCriterion{{Criterion: constScore([]geometry.Ratio{0.8, 0.8, 0.1}), Weight: 1}},
		OutsiderDeltaThreshold: 0.05,
	}
	// Fallback: candidate 1 wins outright.
	fallback := Pass{
		Criteria:               []WeightedCriterion{{Criterion: constScore([]geometry.Ratio{0.1, 0.9, 0}), Weight: 1}},
		OutsiderDeltaThreshold: 0,
	}
	f := &Finder{Passes: []Pass{main, fallback}}
	best, ok := f.FindBest(3)
	require.True(t, ok)
	assert.Equal(t, 1, best)
}

func TestFindBest_Idempotent(t *testing.T) {
	f := &Finder{
		Passes: []Pass{
			{Criteria: []WeightedCriterion{{Criterion: constScore([]geometry.Ratio{0.3, 0.6, 0.6, 0.1}), Weight: 1}}, OutsiderDeltaThreshold: 0},
		},
	}
	a, okA := f.FindBest(4)
	b, okB := f.FindBest(4)
	assert.Equal(t, okA, okB)
	assert.Equal(t, a, b)
}

func TestFindBest_NoSurvivorsReturnsFalse(t *testing.T) {
	main := Pass{
		Criteria:               []WeightedCriterion{{Criterion: constScore([]geometry.Ratio{1, 0}), Weight: 1}},
		OutsiderDeltaThreshold: -1, // impossible threshold: nobody survives
	}
	f := &Finder{Passes: []Pass{main, {OutsiderDeltaThreshold: 0}}}
	_, ok := f.FindBest(2)
	assert.False(t, ok)
}

func TestFindAllNearOptimal_ReturnsTies(t *testing.T) {
	f := &Finder{
		Passes: []Pass{
			{Criteria: []WeightedCriterion{{Criterion: constScore([]geometry.Ratio{0.9, 0.91, 0.1}), Weight: 1}}, OutsiderDeltaThreshold: 0.05},
		},
	}
	all := f.FindAllNearOptimal(3)
	assert.ElementsMatch(t, []int{0, 1}, all)
}

func TestInverseLerp(t *testing.T) {
	assert.InDelta(t, 1.0, float64(InverseLerp(1, -1, 1)), 1e-9)
	assert.InDelta(t, 0.0, float64(InverseLerp(1, -1, -1)), 1e-9)
	assert.InDelta(t, 0.5, float64(InverseLerp(1, -1, 0)), 1e-9)
}
