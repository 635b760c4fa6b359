// Package feature implements the feature generators of spec.md §4.G:
// turning one mesh's sliced outline at one layer into the
// FeatureExtrusions a scheduler will later order. Each generator
// delegates the fine-grained geometry (wall bead placement, fill
// pattern) to an injected external collaborator and translates the
// result into ContinuousExtruderMoveSequences of ExtrusionMoves using
// the layer's shared PathConfigStorage.
//
// Grounded on the teacher's engine/gcode split: internal/engine produces
// a layout (here: an outline plus settings), internal/gcode turns a
// layout into concrete moves. feature plays gcode's role, emitting
// planop.FeatureExtrusions instead of text lines.
package feature

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/piwi3910/sliceplan/internal/export"
	"github.com/piwi3910/sliceplan/internal/geometry"
	"github.com/piwi3910/sliceplan/internal/planop"
	"github.com/piwi3910/sliceplan/internal/seam"
	"github.com/piwi3910/sliceplan/internal/settings"
)

// LayerPart is one mesh's sliced cross-section at one layer: the input
// every feature generator consumes (spec.md §4.G's "layer_part").
type LayerPart struct {
	MeshID   uuid.UUID
	Outer    geometry.Outline
	Holes    []geometry.Outline
	Settings settings.Reader
}

// Generator is the feature-generator contract of spec.md §4.G.
type Generator interface {
	// IsActive reports whether this generator should run at all for the
	// given settings, letting callers short-circuit disabled features.
	IsActive(r settings.Reader) bool
	// PreCalculate performs one-shot expensive precomputation (e.g. a
	// lightning-fill support tree) before any Generate call.
	PreCalculate(ctx context.Context) error
	// Generate appends FeatureExtrusions into the extruder plan(s)
	// matching this feature's configured extruder number(s).
	Generate(storage *planop.PathConfigStorage, layer *planop.LayerPlan, extruderPlans map[int]*planop.ExtruderPlan, part LayerPart) error
}

// ensureExtruderPlan returns the extruder plan for nr, creating and
// appending a new one to layer (and registering it in extruderPlans) if
// this is the first feature to target that extruder this layer.
func ensureExtruderPlan(layer *planop.LayerPlan, extruderPlans map[int]*planop.ExtruderPlan, nr int) (*planop.ExtruderPlan, error) {
	if ep, ok := extruderPlans[nr]; ok {
		return ep, nil
	}
	ep := planop.NewExtruderPlan(nr)
	if err := layer.Append(ep); err != nil {
		return nil, fmt.Errorf("feature: append extruder plan %d: %w", nr, err)
	}
	extruderPlans[nr] = ep
	return ep, nil
}

// appendSequence builds a ContinuousExtruderMoveSequence from points
// (with optional per-point widths) and appends it to f.
func appendSequence(f *planop.FeatureExtrusion, points []geometry.Point2, widths []geometry.Micron, closed bool, defaultWidth geometry.Micron, speed geometry.Velocity) error {
	if len(points) == 0 {
		return nil
	}
	seq := planop.NewContinuousExtruderMoveSequence(closed)
	for i, p := range points {
		w := defaultWidth
		if i < len(widths) {
			w = widths[i]
		}
		if err := seq.Append(planop.NewExtrusionMove(geometry.Point3{X: p.X, Y: p.Y}, w, speed)); err != nil {
			return err
		}
	}
	return f.Append(seq)
}

// seamConfigFor builds a feature's seam policy from settings, per
// spec.md's z_seam_* settings (§6). It returns a policy only for wall
// features and nil for every other feature type; MeshSkinGenerator sets
// its own policy on monotonic skin.
func seamConfigFor(r settings.Reader, ft export.PrintFeatureType) *seam.Config {
	if ft != export.FeatureOuterWall && ft != export.FeatureInnerWall {
		return nil
	}
	typeName, _ := r.GetString("z_seam_type")
	cfg := &seam.Config{Type: seamTypeFromString(typeName)}
	x, xok := r.GetFloat("z_seam_x")
	y, yok := r.GetFloat("z_seam_y")
	if xok && yok {
		cfg.UserPoint = geometry.Point2DFromMM(geometry.Point2D{X: x, Y: y})
	}
	cornerName, _ := r.GetString("z_seam_corner")
	cfg.CornerPref = cornerPrefFromString(cornerName)
	return cfg
}

func seamTypeFromString(s string) seam.Type {
	switch s {
	case "random":
		return seam.Random
	case "user_specified":
		return seam.UserSpecified
	case "sharpest_corner":
		return seam.SharpestCorner
	case "plugin":
		return seam.Plugin
	default:
		return seam.Shortest
	}
}

func cornerPrefFromString(s string) seam.CornerPreference {
	switch s {
	case "z_seam_corner_inner":
		return seam.PrefInner
	case "z_seam_corner_outer":
		return seam.PrefOuter
	case "z_seam_corner_any":
		return seam.PrefAny
	case "z_seam_corner_weighted":
		return seam.PrefWeighted
	default:
		return seam.PrefNone
	}
}

func intPtr(v int) *int { return &v }
