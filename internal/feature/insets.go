package feature

import (
	"context"

	"github.com/piwi3910/sliceplan/internal/export"
	"github.com/piwi3910/sliceplan/internal/geometry"
	"github.com/piwi3910/sliceplan/internal/planop"
	"github.com/piwi3910/sliceplan/internal/settings"
)

// MeshInsetsGenerator emits a mesh's outer and inner wall loops,
// consuming variable-width wall lines from the injected
// geometry.WallLineGenerator collaborator (spec.md §6's "Variable-width
// wall library").
type MeshInsetsGenerator struct {
	Walls geometry.WallLineGenerator
}

func (g *MeshInsetsGenerator) IsActive(r settings.Reader) bool {
	n, ok := r.GetInt("wall_line_count")
	return ok && n > 0
}

func (g *MeshInsetsGenerator) PreCalculate(context.Context) error { return nil }

func (g *MeshInsetsGenerator) Generate(storage *planop.PathConfigStorage, layer *planop.LayerPlan, extruderPlans map[int]*planop.ExtruderPlan, part LayerPart) error {
	r := part.Settings
	lineWidth0 := geometry.Micron(settings.FloatOr(r, "wall_line_width_0", 0.4) * geometry.MicronsPerMM)
	lineWidthX := geometry.Micron(settings.FloatOr(r, "wall_line_width_x", 0.4) * geometry.MicronsPerMM)
	wallCount := settings.IntOr(r, "wall_line_count", 2)
	extr0 := settings.IntOr(r, "wall_0_extruder_nr", 0)
	extrX := settings.IntOr(r, "wall_x_extruder_nr", 0)

	byInset := g.Walls.Generate(part.Outer, part.Holes, lineWidth0, wallCount)
	for inset := 0; inset < wallCount; inset++ {
		lines, ok := byInset[inset]
		if !ok {
			continue
		}
		ft := export.FeatureOuterWall
		nr, lineWidth := extr0, lineWidth0
		if inset > 0 {
			ft, nr, lineWidth = export.FeatureInnerWall, extrX, lineWidthX
		}
		ep, err := ensureExtruderPlan(layer, extruderPlans, nr)
		if err != nil {
			return err
		}
		cfg, _ := storage.Get(ft)
		for _, wl := range lines {
			f := planop.NewFeatureExtrusion(ft, lineWidth)
			f.InsetIndex = inset
			f.MeshID = part.MeshID
			f.Seam = seamConfigFor(r, ft)
			if err := appendSequence(f, wl.Points, wl.Widths, wl.Closed, lineWidth, cfg.Speed); err != nil {
				return err
			}
			if len(f.Children()) == 0 {
				continue
			}
			if err := ep.Append(f); err != nil {
				return err
			}
		}
	}
	return nil
}
