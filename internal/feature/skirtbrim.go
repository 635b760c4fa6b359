package feature

import (
	"context"
	"fmt"

	"github.com/piwi3910/sliceplan/internal/export"
	"github.com/piwi3910/sliceplan/internal/geometry"
	"github.com/piwi3910/sliceplan/internal/planop"
	"github.com/piwi3910/sliceplan/internal/settings"
)

// SkirtBrimGenerator emits the skirt/brim loops surrounding one layer
// part, using the "Geometry library" collaborator's Offset to grow
// concentric rings outward from the part's outer outline (spec.md §4.G).
// Skirt/brim has no seam policy: order is preserved and the scheduler
// treats it as fixed (spec.md §4.H.1 step 3).
type SkirtBrimGenerator struct {
	Geometry geometry.PolygonOps
}

func (g *SkirtBrimGenerator) IsActive(r settings.Reader) bool {
	n := settings.IntOr(r, "skirt_line_count", 0)
	return n > 0
}

func (g *SkirtBrimGenerator) PreCalculate(context.Context) error { return nil }

func (g *SkirtBrimGenerator) Generate(storage *planop.PathConfigStorage, layer *planop.LayerPlan, extruderPlans map[int]*planop.ExtruderPlan, part LayerPart) error {
	r := part.Settings
	nr := settings.IntOr(r, "skirt_brim_extruder_nr", 0)
	lineWidth := geometry.Micron(settings.FloatOr(r, "skirt_brim_line_width", 0.4) * geometry.MicronsPerMM)
	lineCount := settings.IntOr(r, "skirt_line_count", 1)
	gap := geometry.Micron(settings.FloatOr(r, "skirt_gap", 3.0) * geometry.MicronsPerMM)

	ep, err := ensureExtruderPlan(layer, extruderPlans, nr)
	if err != nil {
		return err
	}
	cfg, _ := storage.Get(export.FeatureSkirtBrim)

	f := planop.NewFeatureExtrusion(export.FeatureSkirtBrim, lineWidth)
	f.MeshID = part.MeshID
	base := []geometry.Outline{part.Outer}
	for i := 0; i < lineCount; i++ {
		dist := gap + geometry.Micron(i)*lineWidth
		loops := g.Geometry.Offset(base, dist, geometry.JoinRound)
		for _, loop := range loops {
			if err := appendSequence(f, loop, nil, true, lineWidth, cfg.Speed); err != nil {
				return err
			}
		}
	}
	if len(f.Children()) == 0 {
		return nil
	}
	return ep.Append(f)
}

// AssertOutermost verifies the union of all skirt/brim features'
// bounding boxes contains every other feature's bounding box on the
// layer, per
// spec.md §4.G's requirement that skirt/brim be asserted to be the
// outermost polygon. Returns an error naming the first violation found.
func AssertOutermost(layer *planop.LayerPlan) error {
	skirts := planop.FindAllByType[*planop.FeatureExtrusion](layer, planop.Forward, nil, func(f *planop.FeatureExtrusion) bool {
		return f.FeatureType == export.FeatureSkirtBrim
	})
	if len(skirts) == 0 {
		return nil
	}
	sMin, sMax := boundingBoxOf(skirts[0])
	for _, s := range skirts[1:] {
		lo, hi := boundingBoxOf(s)
		sMin, sMax = unionBox(sMin, sMax, lo, hi)
	}

	others := planop.FindAllByType[*planop.FeatureExtrusion](layer, planop.Forward, nil, func(f *planop.FeatureExtrusion) bool {
		return f.FeatureType != export.FeatureSkirtBrim
	})
	for _, o := range others {
		lo, hi := boundingBoxOf(o)
		if lo.X < sMin.X || lo.Y < sMin.Y || hi.X > sMax.X || hi.Y > sMax.Y {
			return fmt.Errorf("feature: %s feature extends outside skirt/brim bounds", o.FeatureType)
		}
	}
	return nil
}

func boundingBoxOf(op planop.Operation) (min, max geometry.Point2) {
	points := planop.FindAllByType[*planop.ExtrusionMove](op, planop.Forward, nil, nil)
	if len(points) == 0 {
		return geometry.Point2{}, geometry.Point2{}
	}
	min = geometry.Point2{X: points[0].Target.X, Y: points[0].Target.Y}
	max = min
	for _, p := range points[1:] {
		if p.Target.X < min.X {
			min.X = p.Target.X
		}
		if p.Target.Y < min.Y {
			min.Y = p.Target.Y
		}
		if p.Target.X > max.X {
			max.X = p.Target.X
		}
		if p.Target.Y > max.Y {
			max.Y = p.Target.Y
		}
	}
	return min, max
}

func unionBox(aMin, aMax, bMin, bMax geometry.Point2) (geometry.Point2, geometry.Point2) {
	min := geometry.Point2{X: minMicron(aMin.X, bMin.X), Y: minMicron(aMin.Y, bMin.Y)}
	max := geometry.Point2{X: maxMicron(aMax.X, bMax.X), Y: maxMicron(aMax.Y, bMax.Y)}
	return min, max
}

func minMicron(a, b geometry.Micron) geometry.Micron {
	if a < b {
		return a
	}
	return b
}

func maxMicron(a, b geometry.Micron) geometry.Micron {
	if a > b {
		return a
	}
	return b
}
