package planop

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/piwi3910/sliceplan/internal/export"
	"github.com/piwi3910/sliceplan/internal/geometry"
	"github.com/piwi3910/sliceplan/internal/seam"
)

// FeatureExtrusion is the full set of moves that realise a single print
// feature at one layer (spec.md glossary). InsetIndex is meaningful only
// when FeatureType is an outer/inner wall; MeshID is the zero UUID when
// the feature is not mesh-specific (e.g. skirt/brim). The spec's
// WallFeatureExtrusion/MeshFeatureExtrusion are modelled as optional
// fields on one concrete struct rather than a small type hierarchy,
// since Go favours composition over the spec's variant-attribute
// pattern here (see DESIGN.md).
type FeatureExtrusion struct {
	Sequence
	FeatureType export.PrintFeatureType
	LineWidth   geometry.Micron
	InsetIndex  int
	MeshID      uuid.UUID
	// Seam is nil for features with no seam policy (e.g. skirt/brim),
	// in which case the scheduler preserves generation order and only
	// the current start position is a candidate (spec.md §4.H.1).
	Seam *seam.Config
	// Monotonic and MonotonicDirection carry a roofing/skin feature's
	// configured axis for internal/constraints.MonotonicConstraints
	// (spec.md §4.H.1 step 2); meaningless when false.
	Monotonic          bool
	MonotonicDirection geometry.AngleRadians
}

// NewFeatureExtrusion returns an empty feature extrusion of the given
// type and nominal line width.
func NewFeatureExtrusion(featureType export.PrintFeatureType, lineWidth geometry.Micron) *FeatureExtrusion {
	f := &FeatureExtrusion{FeatureType: featureType, LineWidth: lineWidth}
	f.Sequence = newSequence(f, func(c Operation) error {
		switch c.(type) {
		case *ContinuousExtruderMoveSequence, *ExtruderMove:
			return nil
		default:
			return fmt.Errorf("planop: FeatureExtrusion children must be *ContinuousExtruderMoveSequence or *ExtruderMove")
		}
	})
	return f
}

// ContinuousExtruderMoveSequence is an ordered chain of extrusion (and
// intra-feature travel) moves, either closed (a polygon loop) or open (a
// polyline). ZOffset is added to the owning layer's Z for every point in
// the sequence (spec.md §3.2 invariant 7).
type ContinuousExtruderMoveSequence struct {
	Sequence
	Closed  bool
	ZOffset geometry.Micron
}

// NewContinuousExtruderMoveSequence returns an empty move sequence.
func NewContinuousExtruderMoveSequence(closed bool) *ContinuousExtruderMoveSequence {
	s := &ContinuousExtruderMoveSequence{Closed: closed}
	s.Sequence = newSequence(s, func(c Operation) error {
		switch c.(type) {
		case *ExtrusionMove, *ExtruderMove:
			return nil
		default:
			return fmt.Errorf("planop: ContinuousExtruderMoveSequence children must be *ExtrusionMove or *ExtruderMove")
		}
	})
	return s
}

// Reverse reverses the traversal order of an open sequence in place. It
// is its own inverse (spec.md P2): Reverse(Reverse(s)) == s.
func (s *ContinuousExtruderMoveSequence) Reverse() error {
	if s.Closed {
		return fmt.Errorf("planop: cannot Reverse a closed sequence, use ReorderToStartAt")
	}
	children := s.Children()
	out := make([]Operation, len(children))
	for i, c := range children {
		out[len(children)-1-i] = c
	}
	return s.SetChildren(out)
}

// ReorderToStartAt rotates a closed sequence's children so that index
// becomes the new first child. The multiset of emitted segments is
// unchanged (spec.md P1).
func (s *ContinuousExtruderMoveSequence) ReorderToStartAt(index int) error {
	if !s.Closed {
		return fmt.Errorf("planop: cannot ReorderToStartAt an open sequence, use Reverse")
	}
	children := s.Children()
	if index < 0 || index >= len(children) {
		return fmt.Errorf("planop: ReorderToStartAt: index %d out of range [0, %d)", index, len(children))
	}
	out := make([]Operation, 0, len(children))
	out = append(out, children[index:]...)
	out = append(out, children[:index]...)
	return s.SetChildren(out)
}
