package feature

import (
	"context"

	"github.com/piwi3910/sliceplan/internal/export"
	"github.com/piwi3910/sliceplan/internal/geometry"
	"github.com/piwi3910/sliceplan/internal/planop"
	"github.com/piwi3910/sliceplan/internal/settings"
)

// SupportTree is an opaque, generator-owned structure cached by
// PreCalculate as a slot for expensive one-shot precomputation (e.g. a
// lightning-fill support tree). MeshInfillGenerator never inspects its
// contents, and it is not handed to the Pattern: the
// FillPatternGenerator interface takes no tree argument.
type SupportTree struct {
	data any
}

// MeshInfillGenerator emits a mesh's sparse infill, consuming the
// geometry.FillPatternGenerator collaborator.
type MeshInfillGenerator struct {
	Pattern geometry.FillPatternGenerator
	tree    *SupportTree
}

func (g *MeshInfillGenerator) IsActive(r settings.Reader) bool {
	d, ok := r.GetFloat("infill_line_distance")
	return ok && d > 0
}

// PreCalculate caches an empty support tree. Nothing fills it in: Generate
// does not read it and the Pattern has no access to it.
func (g *MeshInfillGenerator) PreCalculate(context.Context) error {
	g.tree = &SupportTree{}
	return nil
}

func (g *MeshInfillGenerator) Generate(storage *planop.PathConfigStorage, layer *planop.LayerPlan, extruderPlans map[int]*planop.ExtruderPlan, part LayerPart) error {
	r := part.Settings
	nr := settings.IntOr(r, "infill_extruder_nr", 0)
	lineWidth := geometry.Micron(settings.FloatOr(r, "infill_line_width", 0.4) * geometry.MicronsPerMM)
	lineDistance := geometry.Micron(settings.FloatOr(r, "infill_line_distance", 4.0) * geometry.MicronsPerMM)
	angle := geometry.AngleDegrees(settings.FloatOr(r, "infill_angle", 45)).ToRadians()

	lines := g.Pattern.Generate(part.Outer, part.Holes, lineDistance, angle)
	ep, err := ensureExtruderPlan(layer, extruderPlans, nr)
	if err != nil {
		return err
	}
	cfg, _ := storage.Get(export.FeatureInfill)

	f := planop.NewFeatureExtrusion(export.FeatureInfill, lineWidth)
	f.MeshID = part.MeshID
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
