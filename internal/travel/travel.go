// Package travel inserts the plumbing a scheduled print plan needs
// before it can be streamed to an export.Exporter: travel moves between
// consecutive siblings that leave a gap, and extruder-change leaves
// between consecutive extruder plans that use different tools
// (spec.md §4.I).
//
// Grounded on the teacher's gcode/generator.go header/body/footer
// emission loop (writeHeader, writePart, writeFooter): a pre/walk/post
// structure mirrored here by InsertTravelMoves's pre-order-then-between
// walk.
package travel

import (
	"github.com/piwi3910/sliceplan/internal/geometry"
	"github.com/piwi3910/sliceplan/internal/planop"
)

// TravelMoveGenerator produces the travel leaf to insert between two
// consecutive positions within one extruder's plan at one layer.
type TravelMoveGenerator interface {
	Generate(from, to geometry.Point2, layer *planop.LayerPlan, extruderNr int) *planop.ExtruderMove
}

// ExtruderSpeedProfile is one extruder's initial/full travel speed and
// the layer count over which it ramps up (spec.md §4.I's speed
// selection rule).
type ExtruderSpeedProfile struct {
	V0, V1                   geometry.Velocity
	InitialSpeedupLayerCount int
}

func (p ExtruderSpeedProfile) blendFactor(layer int) float64 {
	switch {
	case layer <= 0:
		return 0
	case p.InitialSpeedupLayerCount <= 0 || layer >= p.InitialSpeedupLayerCount:
		return 1
	default:
		return float64(layer) / float64(p.InitialSpeedupLayerCount)
	}
}

func blendVelocity(a, b geometry.Velocity, t float64) geometry.Velocity {
	return a + geometry.Velocity(t)*(b-a)
}

// Speed returns the layer-indexed blended travel speed for this
// profile, per spec.md §4.I: v0 at or below layer 0, v1 at or past
// initial_speedup_layer_count, linear blend between.
//
// Acceleration and jerk blend by the same rule, but the current
// ExtruderMove leaf and Exporter.Travel event carry no field for
// either, so this profile only tracks speed; a caller needing
// accel/jerk at the travel boundary would extend ExtruderMove and the
// Exporter contract together before this profile would have anywhere
// to put the result.
func (p ExtruderSpeedProfile) Speed(layer int) geometry.Velocity {
	return blendVelocity(p.V0, p.V1, p.blendFactor(layer))
}

// DirectTravelGenerator produces a single straight travel move from the
// departure point to the arrival point, at a speed blended from the
// extruder's speed profile and the layer index.
type DirectTravelGenerator struct {
	Profiles map[int]ExtruderSpeedProfile
	Default  ExtruderSpeedProfile
}

func (g *DirectTravelGenerator) profileFor(extruderNr int) ExtruderSpeedProfile {
	if p, ok := g.Profiles[extruderNr]; ok {
		return p
	}
	return g.Default
}

func (g *DirectTravelGenerator) Generate(from, to geometry.Point2, layer *planop.LayerPlan, extruderNr int) *planop.ExtruderMove {
	speed := g.profileFor(extruderNr).Speed(layer.LayerIndex)
	return planop.NewExtruderMove(geometry.Point3{X: to.X, Y: to.Y}, speed)
}

// InsertTravelMoves walks plan pre-order, inserting a travel move
// wherever one sibling's end position differs from the next sibling's
// start position. Recursion descends into each child fully before
// looking at gaps between that child and its next sibling, per
// spec.md §4.I ("first insert travels inside each child, then between
// children"). Between two consecutive ExtruderPlans sharing the same
// extruder number, a travel is inserted the same way; between plans
// with different extruder numbers nothing is inserted here (that gap
// is InsertExtruderChanges's job).
func InsertTravelMoves(plan *planop.PrintPlan, gen TravelMoveGenerator) {
	for _, layer := range plan.Layers() {
		plans := layer.ExtruderPlans()
		for _, ep := range plans {
			insertWithinExtruderPlan(layer, ep, gen)
		}
		insertBetweenExtruderPlans(layer, plans, gen)
	}
}

// insertBetweenExtruderPlans inserts a travel move spanning two
// consecutive ExtruderPlans that share an extruder number, appending it
// to the end of the earlier plan since a bare travel leaf cannot be a
// direct child of a LayerPlan.
func insertBetweenExtruderPlans(layer *planop.LayerPlan, plans []*planop.ExtruderPlan, gen TravelMoveGenerator) {
	for i := 0; i < len(plans)-1; i++ {
		prev, next := plans[i], plans[i+1]
		if prev.ExtruderNumber != next.ExtruderNumber {
			continue
		}
		end, ok1 := planop.FindEndPosition(prev)
		start, ok2 := planop.FindStartPosition(next)
		if !ok1 || !ok2 || end == start {
			continue
		}
		move := gen.Generate(end, start, layer, prev.ExtruderNumber)
		if move == nil {
			continue
		}
		_ = prev.Append(move)
	}
}

func insertWithinExtruderPlan(layer *planop.LayerPlan, ep *planop.ExtruderPlan, gen TravelMoveGenerator) {
	features := ep.Features()
	depth := 0
	for _, f := range features {
		seqs := planop.FindAllByType[*planop.ContinuousExtruderMoveSequence](f, planop.Forward, &depth, nil)
		for i := 0; i < len(seqs)-1; i++ {
			end, ok1 := planop.FindEndPosition(seqs[i])
			start, ok2 := planop.FindStartPosition(seqs[i+1])
			if !ok1 || !ok2 || end == start {
				continue
			}
			if move := gen.Generate(end, start, layer, ep.ExtruderNumber); move != nil {
				_ = f.InsertAfter(seqs[i], move)
			}
		}
	}
	for i := 0; i < len(features)-1; i++ {
		end, ok1 := planop.FindEndPosition(features[i])
		start, ok2 := planop.FindStartPosition(features[i+1])
		if !ok1 || !ok2 || end == start {
			continue
		}
		move := gen.Generate(end, start, layer, ep.ExtruderNumber)
		if move == nil {
			continue
		}
		_ = ep.InsertAfter(features[i], move)
	}
}

// InsertExtruderChanges inserts an ExtruderChange leaf between every
// consecutive pair of ExtruderPlans within a LayerPlan that use
// different extruder numbers (spec.md §4.I).
func InsertExtruderChanges(plan *planop.PrintPlan) {
	for _, layer := range plan.Layers() {
		plans := layer.ExtruderPlans()
		for i := 0; i < len(plans)-1; i++ {
			prev, next := plans[i], plans[i+1]
			if prev.ExtruderNumber == next.ExtruderNumber {
				continue
			}
			change := planop.NewExtruderChange(prev.ExtruderNumber, next.ExtruderNumber)
			_ = layer.InsertAfter(prev, change)
		}
	}
}
