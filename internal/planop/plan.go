package planop

import (
	"fmt"

	"github.com/piwi3910/sliceplan/internal/export"
	"github.com/piwi3910/sliceplan/internal/geometry"
)

// PathConfig holds one feature type's default speed/acceleration/jerk/
// line-width settings (spec.md §3.2: "LayerPlan carries ... a shared
// PathConfigStorage").
type PathConfig struct {
	LineWidth    geometry.Micron
	Speed        geometry.Velocity
	Acceleration geometry.Acceleration
	Jerk         geometry.Jerk
	FlowRatio    geometry.Ratio
}

// PathConfigStorage is a read-only-after-construction map from feature
// type to its default PathConfig, shared by every feature generator
// working on one LayerPlan.
type PathConfigStorage struct {
	configs map[export.PrintFeatureType]PathConfig
}

// NewPathConfigStorage returns an empty, ready-to-populate storage.
func NewPathConfigStorage() *PathConfigStorage {
	return &PathConfigStorage{configs: make(map[export.PrintFeatureType]PathConfig)}
}

// Set assigns the default config for a feature type.
func (s *PathConfigStorage) Set(ft export.PrintFeatureType, cfg PathConfig) {
	s.configs[ft] = cfg
}

// Get returns the default config for a feature type, if one was set.
func (s *PathConfigStorage) Get(ft export.PrintFeatureType) (PathConfig, bool) {
	cfg, ok := s.configs[ft]
	return cfg, ok
}

// ExtruderChange is a leaf operation marking a tool change between two
// extruder plans within one layer (spec.md §3.2 invariant 3).
type ExtruderChange struct {
	leaf
	PrevExtruder, NextExtruder int
}

// NewExtruderChange returns a detached extruder-change leaf.
func NewExtruderChange(prev, next int) *ExtruderChange {
	return &ExtruderChange{PrevExtruder: prev, NextExtruder: next}
}

func (c *ExtruderChange) Write(exp export.Exporter) error {
	exp.ExtruderChange(c.NextExtruder)
	return nil
}

// ExtruderPlan is the set of feature extrusions printed by one extruder
// within one layer (spec.md §3.2 invariant 4), plus any inter-feature
// travel moves inserted between them.
type ExtruderPlan struct {
	Sequence
	ExtruderNumber int
}

// NewExtruderPlan returns an empty plan for the given extruder number.
func NewExtruderPlan(extruderNumber int) *ExtruderPlan {
	ep := &ExtruderPlan{ExtruderNumber: extruderNumber}
	ep.Sequence = newSequence(ep, func(c Operation) error {
		switch c.(type) {
		case *FeatureExtrusion, *ExtruderMove:
			return nil
		default:
			return fmt.Errorf("planop: ExtruderPlan children must be *FeatureExtrusion or *ExtruderMove")
		}
	})
	return ep
}

// Features returns this plan's direct FeatureExtrusion children, in
// order, ignoring any interleaved travel leaves.
func (ep *ExtruderPlan) Features() []*FeatureExtrusion {
	return FindAllByType[*FeatureExtrusion](ep, Forward, intPtr(0), nil)
}

// LayerPlan is the set of extrusions for every extruder at one Z level
// (spec.md §3.2 invariant 3): its children alternate ExtruderPlans with
// optional ExtruderChange leaves between plans using different
// extruders.
type LayerPlan struct {
	Sequence
	LayerIndex int
	Z          geometry.Micron
	Thickness  geometry.Micron
	Storage    *PathConfigStorage
}

// NewLayerPlan returns an empty layer plan at the given index/Z/thickness.
func NewLayerPlan(index int, z, thickness geometry.Micron, storage *PathConfigStorage) *LayerPlan {
	lp := &LayerPlan{LayerIndex: index, Z: z, Thickness: thickness, Storage: storage}
	lp.Sequence = newSequence(lp, func(c Operation) error {
		switch c.(type) {
		case *ExtruderPlan, *ExtruderChange:
			return nil
		default:
			return fmt.Errorf("planop: LayerPlan children must be *ExtruderPlan or *ExtruderChange")
		}
	})
	return lp
}

// AbsZ resolves a move's relative Z within seq to an absolute Z,
// per spec.md §3.2 invariant 7: p + layer.z + seq.z_offset.
func (lp *LayerPlan) AbsZ(seq *ContinuousExtruderMoveSequence, p geometry.Point3) geometry.Point3 {
	return geometry.Point3{X: p.X, Y: p.Y, Z: p.Z + lp.Z + seq.ZOffset}
}

// ExtruderPlans returns this layer's direct ExtruderPlan children, in
// order, ignoring any interleaved ExtruderChange leaves.
func (lp *LayerPlan) ExtruderPlans() []*ExtruderPlan {
	return FindAllByType[*ExtruderPlan](lp, Forward, intPtr(0), nil)
}

// Write emits a layer-start event, the default child dispatch, then a
// layer-end event (spec.md §4.F).
func (lp *LayerPlan) Write(exp export.Exporter) error {
	start, _ := FindStartPosition(lp)
	exp.LayerStart(lp.LayerIndex, start)
	if err := lp.Sequence.Write(exp); err != nil {
		return err
	}
	exp.LayerEnd(lp.LayerIndex, lp.Z, lp.Thickness)
	return nil
}

// PrintPlan is the root of the tree: an ordered list of layers in
// strictly increasing layer-index order (spec.md §3.2 invariant 2).
type PrintPlan struct {
	Sequence
}

// NewPrintPlan returns an empty root plan.
func NewPrintPlan() *PrintPlan {
	p := &PrintPlan{}
	p.Sequence = newSequence(p, func(c Operation) error {
		lp, ok := c.(*LayerPlan)
		if !ok {
			return fmt.Errorf("planop: PrintPlan children must be *LayerPlan")
		}
		children := p.Children()
		if len(children) > 0 {
			last := children[len(children)-1].(*LayerPlan)
			if lp.LayerIndex <= last.LayerIndex {
				return fmt.Errorf("planop: layer index %d does not strictly increase after %d", lp.LayerIndex, last.LayerIndex)
			}
		}
		return nil
	})
	return p
}

// Layers returns the plan's layers in order.
func (p *PrintPlan) Layers() []*LayerPlan {
	out := make([]*LayerPlan, len(p.Children()))
	for i, c := range p.Children() {
		out[i] = c.(*LayerPlan)
	}
	return out
}

func intPtr(v int) *int { return &v }
