package constraints

import (
	"github.com/google/uuid"

	"github.com/piwi3910/sliceplan/internal/export"
	"github.com/piwi3910/sliceplan/internal/planop"
)

// FeatureConstraintGenerator appends edges to graph recording which
// features must be scheduled after feature, among the candidates in all
// (spec.md §4.H.1 step 1).
type FeatureConstraintGenerator interface {
	AppendConstraints(feature *planop.FeatureExtrusion, all []*planop.FeatureExtrusion, graph *Graph[*planop.FeatureExtrusion])
}

// BedAdhesionConstraints implements spec.md §4.L's bed-adhesion rule:
// skirt/brim must be printed before everything else.
type BedAdhesionConstraints struct{}

func (BedAdhesionConstraints) AppendConstraints(feature *planop.FeatureExtrusion, all []*planop.FeatureExtrusion, graph *Graph[*planop.FeatureExtrusion]) {
	if feature.FeatureType != export.FeatureSkirtBrim {
		return
	}
	for _, other := range all {
		if other != feature && other.FeatureType != export.FeatureSkirtBrim {
			graph.Add(feature, other)
		}
	}
}

// MeshFeatureConstraints implements spec.md §4.L's mesh-feature
// ordering: infill-before-walls (or the reverse) per mesh, and inset
// direction ordering between wall insets of the same mesh.
// InfillBeforeWalls and InsetDirectionInsideOut are keyed by mesh so a
// multi-mesh print can mix per-mesh settings overrides (see
// internal/layerio's mesh-settings-override loader).
type MeshFeatureConstraints struct {
	InfillBeforeWalls       func(meshID uuid.UUID) bool
	InsetDirectionInsideOut func(meshID uuid.UUID) bool
}

func (c MeshFeatureConstraints) AppendConstraints(feature *planop.FeatureExtrusion, all []*planop.FeatureExtrusion, graph *Graph[*planop.FeatureExtrusion]) {
	isWall := feature.FeatureType == export.FeatureOuterWall || feature.FeatureType == export.FeatureInnerWall
	isInfill := feature.FeatureType == export.FeatureInfill

	if isInfill || isWall {
		beforeWalls := c.InfillBeforeWalls != nil && c.InfillBeforeWalls(feature.MeshID)
		for _, other := range all {
			if other == feature || other.MeshID != feature.MeshID {
				continue
			}
			otherIsWall := other.FeatureType == export.FeatureOuterWall || other.FeatureType == export.FeatureInnerWall
			switch {
			case isInfill && otherIsWall:
				if beforeWalls {
					graph.Add(feature, other)
				} else {
					graph.Add(other, feature)
				}
			case isWall && other.FeatureType == export.FeatureInfill:
				if beforeWalls {
					graph.Add(other, feature)
				} else {
					graph.Add(feature, other)
				}
			}
		}
	}

	if isWall {
		insideOut := c.InsetDirectionInsideOut != nil && c.InsetDirectionInsideOut(feature.MeshID)
		for _, other := range all {
			if other == feature || other.MeshID != feature.MeshID {
				continue
			}
			otherIsWall := other.FeatureType == export.FeatureOuterWall || other.FeatureType == export.FeatureInnerWall
			if !otherIsWall {
				continue
			}
			if insideOut && other.InsetIndex == feature.InsetIndex-1 {
				// inside_out: inset i requires inset i-1 to come after it.
				graph.Add(feature, other)
			}
			if !insideOut && other.InsetIndex == feature.InsetIndex+1 {
				// outside_in: inset i requires inset i+1 to come after it.
				graph.Add(feature, other)
			}
		}
	}
}
