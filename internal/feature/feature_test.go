package feature

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/sliceplan/internal/export"
	"github.com/piwi3910/sliceplan/internal/geometry"
	"github.com/piwi3910/sliceplan/internal/planop"
	"github.com/piwi3910/sliceplan/internal/settings"
	"github.com/piwi3910/sliceplan/internal/texture"
)

type settingsMap = settings.Map

func bitMap(shift, mask uint32) texture.BitRangeMap {
	return texture.BitRangeMap{Feature: "skin_monotonic_override", Shift: shift, Mask: mask}
}

func micron(mm float64) geometry.Micron { return geometry.Micron(mm * geometry.MicronsPerMM) }

func square(side float64) geometry.Outline {
	s := micron(side)
	return geometry.Outline{
		{X: 0, Y: 0}, {X: s, Y: 0}, {X: s, Y: s}, {X: 0, Y: s},
	}
}

func newStorage() *planop.PathConfigStorage {
	s := planop.NewPathConfigStorage()
	for _, ft := range []export.PrintFeatureType{
		export.FeatureOuterWall, export.FeatureInnerWall,
		export.FeatureInfill, export.FeatureSkin, export.FeatureSkirtBrim,
	} {
		s.Set(ft, planop.PathConfig{Speed: 50})
	}
	return s
}

type stubWalls struct{ lines geometry.VariableWidthLines }

func (s stubWalls) Generate(outline geometry.Outline, holes []geometry.Outline, lineWidth geometry.Micron, wallCount int) geometry.VariableWidthLines {
	return s.lines
}

type stubFill struct{ lines geometry.FillLines }

func (s stubFill) Generate(outline geometry.Outline, holes []geometry.Outline, lineDistance geometry.Micron, angle geometry.AngleRadians) geometry.FillLines {
	return s.lines
}

type stubPolygonOps struct{ offsetResult []geometry.Outline }

func (s stubPolygonOps) Union(a, b []geometry.Outline) []geometry.Outline        { return nil }
func (s stubPolygonOps) Intersection(a, b []geometry.Outline) []geometry.Outline { return nil }
func (s stubPolygonOps) Difference(a, b []geometry.Outline) []geometry.Outline   { return nil }
func (s stubPolygonOps) Offset(polys []geometry.Outline, distance geometry.Micron, join geometry.JoinType) []geometry.Outline {
	return s.offsetResult
}
func (s stubPolygonOps) RemoveHolesByArea(polys []geometry.Outline, minArea int64) []geometry.Outline {
	return polys
}
func (s stubPolygonOps) EvenOdd(polys []geometry.Outline) []geometry.Outline { return polys }
func (s stubPolygonOps) RepairSelfIntersections(polys []geometry.Outline) []geometry.Outline {
	return polys
}
func (s stubPolygonOps) Simplify(polys []geometry.Outline, maxResolution, maxDeviation geometry.Micron, maxAreaDeviation int64) []geometry.Outline {
	return polys
}

func newLayer() (*planop.LayerPlan, map[int]*planop.ExtruderPlan) {
	return planop.NewLayerPlan(0, 0, micron(0.2), newStorage()), map[int]*planop.ExtruderPlan{}
}

func TestMeshInsetsGeneratorBuildsOuterAndInnerWalls(t *testing.T) {
	outer := square(20)
	lines := geometry.VariableWidthLines{
		0: {{InsetIndex: 0, Points: outer, Closed: true}},
		1: {{InsetIndex: 1, Points: outer.Translate(micron(0.4), micron(0.4)), Closed: true}},
	}
	g := &MeshInsetsGenerator{Walls: stubWalls{lines: lines}}
	part := LayerPart{
		MeshID: uuid.New(),
		Outer:  outer,
		Settings: settingsMap{
			"wall_line_count":    2,
			"wall_line_width_0":  0.4,
			"wall_line_width_x":  0.4,
			"wall_0_extruder_nr": 0,
			"wall_x_extruder_nr": 0,
		},
	}
	require.True(t, g.IsActive(part.Settings))
	layer, extruderPlans := newLayer()
	require.NoError(t, g.Generate(layer.Storage, layer, extruderPlans, part))

	ep := extruderPlans[0]
	require.NotNil(t, ep)
	features := ep.Features()
	require.Len(t, features, 2)
	assert.Equal(t, export.FeatureOuterWall, features[0].FeatureType)
	assert.Equal(t, export.FeatureInnerWall, features[1].FeatureType)
}

func TestMeshInfillGeneratorSkipsWhenInactive(t *testing.T) {
	g := &MeshInfillGenerator{Pattern: stubFill{}}
	s := settingsMap{}
	assert.False(t, g.IsActive(s))
}

func TestMeshInfillGeneratorEmitsOpenLines(t *testing.T) {
	outer := square(20)
	g := &MeshInfillGenerator{Pattern: stubFill{lines: geometry.FillLines{
		Open: [][]geometry.Point2{{{X: 0, Y: 0}, {X: micron(20), Y: micron(20)}}},
	}}}
	require.NoError(t, g.PreCalculate(context.Background()))
	part := LayerPart{
		MeshID: uuid.New(),
		Outer:  outer,
		Settings: settingsMap{
			"infill_line_distance": 4.0,
			"infill_line_width":    0.4,
			"infill_extruder_nr":   0,
			"infill_angle":         45.0,
		},
	}
	require.True(t, g.IsActive(part.Settings))
	layer, extruderPlans := newLayer()
	require.NoError(t, g.Generate(layer.Storage, layer, extruderPlans, part))
	features := extruderPlans[0].Features()
	require.Len(t, features, 1)
	assert.Equal(t, export.FeatureInfill, features[0].FeatureType)
}

func TestMeshSkinGeneratorAppliesTextureOverride(t *testing.T) {
	outer := square(20)
	g := &MeshSkinGenerator{
		Pattern: stubFill{lines: geometry.FillLines{
			Open: [][]geometry.Point2{{{X: 0, Y: 0}, {X: micron(20), Y: 0}}},
		}},
		Override: &TextureOverride{
			Sample: func(p geometry.Point2) uint32 { return 0b0100 },
			Map:    bitMap(2, 0b11),
		},
	}
	part := LayerPart{
		MeshID: uuid.New(),
		Outer:  outer,
		Settings: settingsMap{
			"top_layers":       1,
			"skin_line_width":  0.4,
			"skin_angle":       45.0,
			"skin_monotonic":   false,
			"skin_extruder_nr": 0,
		},
	}
	require.True(t, g.IsActive(part.Settings))
	layer, extruderPlans := newLayer()
	require.NoError(t, g.Generate(layer.Storage, layer, extruderPlans, part))
	features := extruderPlans[0].Features()
	require.Len(t, features, 1)
	assert.True(t, features[0].Monotonic)
}

func TestSkirtBrimGeneratorAndAssertOutermost(t *testing.T) {
	outer := square(20)
	skirtLoop := geometry.Outline{
		{X: -micron(3), Y: -micron(3)},
		{X: micron(23), Y: -micron(3)},
		{X: micron(23), Y: micron(23)},
		{X: -micron(3), Y: micron(23)},
	}
	g := &SkirtBrimGenerator{Geometry: stubPolygonOps{offsetResult: []geometry.Outline{skirtLoop}}}
	part := LayerPart{
		MeshID: uuid.New(),
		Outer:  outer,
		Settings: settingsMap{
			"skirt_line_count":       1,
			"skirt_gap":              3.0,
			"skirt_brim_line_width":  0.4,
			"skirt_brim_extruder_nr": 0,
		},
	}
	require.True(t, g.IsActive(part.Settings))
	layer, extruderPlans := newLayer()
	require.NoError(t, g.Generate(layer.Storage, layer, extruderPlans, part))

	wallsGen := &MeshInsetsGenerator{Walls: stubWalls{lines: geometry.VariableWidthLines{
		0: {{InsetIndex: 0, Points: outer, Closed: true}},
	}}}
	wallPart := part
	wallPart.Settings = settingsMap{
		"wall_line_count":    1,
		"wall_line_width_0":  0.4,
		"wall_0_extruder_nr": 0,
	}
	require.NoError(t, wallsGen.Generate(layer.Storage, layer, extruderPlans, wallPart))

	require.NoError(t, AssertOutermost(layer))
}

func TestAssertOutermostFailsWhenFeatureEscapesSkirt(t *testing.T) {
	outer := square(20)
	tinySkirt := geometry.Outline{{X: 0, Y: 0}, {X: micron(1), Y: 0}, {X: micron(1), Y: micron(1)}, {X: 0, Y: micron(1)}}
	g := &SkirtBrimGenerator{Geometry: stubPolygonOps{offsetResult: []geometry.Outline{tinySkirt}}}
	part := LayerPart{
		MeshID: uuid.New(),
		Outer:  outer,
		Settings: settingsMap{
			"skirt_line_count":       1,
			"skirt_gap":              3.0,
			"skirt_brim_line_width":  0.4,
			"skirt_brim_extruder_nr": 0,
		},
	}
	layer, extruderPlans := newLayer()
	require.NoError(t, g.Generate(layer.Storage, layer, extruderPlans, part))

	wallsGen := &MeshInsetsGenerator{Walls: stubWalls{lines: geometry.VariableWidthLines{
		0: {{InsetIndex: 0, Points: outer, Closed: true}},
	}}}
	wallPart := part
	wallPart.Settings = settingsMap{
		"wall_line_count":    1,
		"wall_line_width_0":  0.4,
		"wall_0_extruder_nr": 0,
	}
	require.NoError(t, wallsGen.Generate(layer.Storage, layer, extruderPlans, wallPart))

	assert.Error(t, AssertOutermost(layer))
}
