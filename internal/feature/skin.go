package feature

import (
	"context"

	"github.com/piwi3910/sliceplan/internal/export"
	"github.com/piwi3910/sliceplan/internal/geometry"
	"github.com/piwi3910/sliceplan/internal/planop"
	"github.com/piwi3910/sliceplan/internal/seam"
	"github.com/piwi3910/sliceplan/internal/settings"
	"github.com/piwi3910/sliceplan/internal/texture"
)

// TextureOverride lets a painted texture override a skin region's
// monotonic setting (spec.md §6's texture metadata, supplemented from
// original_source/include/TextureDataMapping.h). Sample returns the raw
// packed pixel under a point in the outline; Map describes where the
// monotonic-override bit lives within it. A nonzero extracted value
// forces monotonic ordering for the whole feature regardless of the
// mesh's skin_monotonic setting.
type TextureOverride struct {
	Sample func(p geometry.Point2) uint32
	Map    texture.BitRangeMap
}

// MeshSkinGenerator emits a mesh's top/bottom skin, consuming the
// geometry.FillPatternGenerator collaborator, the same as
// MeshInfillGenerator but tagging the result as monotonic when
// configured (spec.md §4.H.1 step 2).
type MeshSkinGenerator struct {
	Pattern  geometry.FillPatternGenerator
	Override *TextureOverride
}

func (g *MeshSkinGenerator) IsActive(r settings.Reader) bool {
	top := settings.IntOr(r, "top_layers", 0)
	bottom := settings.IntOr(r, "bottom_layers", 0)
	return top > 0 || bottom > 0
}

func (g *MeshSkinGenerator) PreCalculate(context.Context) error { return nil }

func (g *MeshSkinGenerator) Generate(storage *planop.PathConfigStorage, layer *planop.LayerPlan, extruderPlans map[int]*planop.ExtruderPlan, part LayerPart) error {
	r := part.Settings
	nr := settings.IntOr(r, "skin_extruder_nr", 0)
	lineWidth := geometry.Micron(settings.FloatOr(r, "skin_line_width", 0.4) * geometry.MicronsPerMM)
	angle := geometry.AngleDegrees(settings.FloatOr(r, "skin_angle", 45)).ToRadians()
	monotonic := settings.BoolOr(r, "skin_monotonic", false)

	if g.Override != nil {
		center := boundingBoxCenter(part.Outer)
		if texture.Extract(g.Override.Sample(center), g.Override.Map) != 0 {
			monotonic = true
		}
	}

	lines := g.Pattern.Generate(part.Outer, part.Holes, lineWidth, angle)
	ep, err := ensureExtruderPlan(layer, extruderPlans, nr)
	if err != nil {
		return err
	}
	cfg, _ := storage.Get(export.FeatureSkin)

	f := planop.NewFeatureExtrusion(export.FeatureSkin, lineWidth)
	f.MeshID = part.MeshID
	if monotonic {
		f.Seam = &seam.Config{Type: seamTypeFromString(settings.StringOr(r, "skin_monotonic_seam_type", "shortest"))}
		f.Monotonic = true
		f.MonotonicDirection = angle
	}
	for _, o := range lines.Closed {
		if err := appendSequence(f, o, nil, true, lineWidth, cfg.Speed); err != nil {
			return err
		}
	}
	for _, poly := range lines.Open {
		if err := appendSequence(f, poly, nil, false, lineWidth, cfg.Speed); err != nil {
			return err
		}
	}
	if len(f.Children()) == 0 {
		return nil
	}
	return ep.Append(f)
}

func boundingBoxCenter(o geometry.Outline) geometry.Point2 {
	min, max := o.BoundingBox()
	return geometry.Point2{X: (min.X + max.X) / 2, Y: (min.Y + max.Y) / 2}
}
