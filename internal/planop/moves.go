package planop

import (
	"fmt"

	"github.com/piwi3910/sliceplan/internal/export"
	"github.com/piwi3910/sliceplan/internal/geometry"
)

// ExtruderMove is a leaf travel move: a target with no material
// deposited. It appears both between features/extruder plans (inserted
// by internal/travel) and inside a feature as intra-feature travel.
type ExtruderMove struct {
	leaf
	Target geometry.Point3
	Speed  geometry.Velocity
}

// NewExtruderMove returns a detached travel leaf.
func NewExtruderMove(target geometry.Point3, speed geometry.Velocity) *ExtruderMove {
	return &ExtruderMove{Target: target, Speed: speed}
}

func (m *ExtruderMove) Write(exp export.Exporter) error {
	abs := m.Target
	if layer, ok := ancestor[*LayerPlan](m); ok {
		if seq, ok := ancestor[*ContinuousExtruderMoveSequence](m); ok {
			abs = layer.AbsZ(seq, m.Target)
		} else {
			abs = geometry.Point3{X: m.Target.X, Y: m.Target.Y, Z: m.Target.Z + layer.Z}
		}
	}
	ft := export.FeatureTravel
	if feat, ok := ancestor[*FeatureExtrusion](m); ok {
		ft = feat.FeatureType
	}
	exp.Travel(abs, m.Speed, ft)
	return nil
}

// ExtrusionMove is a leaf extrusion move: a target plus the start/end
// line widths, speed and flow ratio needed to emit it.
type ExtrusionMove struct {
	leaf
	Target               geometry.Point3
	StartWidth, EndWidth geometry.Micron
	Speed                geometry.Velocity
	FlowRatio            geometry.Ratio
}

// NewExtrusionMove returns a detached extrusion leaf with equal
// start/end widths and a flow ratio of 1.
func NewExtrusionMove(target geometry.Point3, width geometry.Micron, speed geometry.Velocity) *ExtrusionMove {
	return &ExtrusionMove{Target: target, StartWidth: width, EndWidth: width, Speed: speed, FlowRatio: 1}
}

func (m *ExtrusionMove) Write(exp export.Exporter) error {
	seq, ok := ancestor[*ContinuousExtruderMoveSequence](m)
	if !ok {
		return fmt.Errorf("planop: ExtrusionMove must be inside a ContinuousExtruderMoveSequence")
	}
	layer, ok := ancestor[*LayerPlan](m)
	if !ok {
		return fmt.Errorf("planop: ExtrusionMove must be inside a LayerPlan")
	}
	feat, ok := ancestor[*FeatureExtrusion](m)
	if !ok {
		return fmt.Errorf("planop: ExtrusionMove must be inside a FeatureExtrusion")
	}
	plan, ok := ancestor[*ExtruderPlan](m)
	if !ok {
		return fmt.Errorf("planop: ExtrusionMove must be inside an ExtruderPlan")
	}

	abs := layer.AbsZ(seq, m.Target)
	width := (m.StartWidth + m.EndWidth) / 2
	areaMM2 := float64(width) / geometry.MicronsPerMM * float64(layer.Thickness) / geometry.MicronsPerMM
	mm3PerMM := geometry.Ratio(areaMM2 * float64(m.FlowRatio))
	exp.Extrusion(abs, m.Speed, plan.ExtruderNumber, mm3PerMM, width, layer.Thickness, feat.FeatureType, true)
	return nil
}
