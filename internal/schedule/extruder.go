package schedule

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/piwi3910/sliceplan/internal/constraints"
	"github.com/piwi3910/sliceplan/internal/geometry"
	"github.com/piwi3910/sliceplan/internal/planop"
	"github.com/piwi3910/sliceplan/internal/seam"
)

// ExtruderPlanScheduler orders one ExtruderPlan's features, per
// spec.md §4.H.2.
type ExtruderPlanScheduler struct {
	FeatureGenerators  []constraints.FeatureConstraintGenerator
	SequenceGenerators []constraints.SequenceConstraintGenerator
	Exclusion          seam.ExclusionArea
	RNG                *rand.Rand
	Logger             *slog.Logger
}

// Schedule reorders plan's FeatureExtrusion children into emission
// order starting from start, and returns the nozzle position after the
// last emitted feature.
func (s *ExtruderPlanScheduler) Schedule(plan *planop.ExtruderPlan, start geometry.Point2) (geometry.Point2, error) {
	features := plan.Features()
	if len(features) == 0 {
		return start, nil
	}

	graph := constraints.NewGraph[*planop.FeatureExtrusion]()
	for _, f := range features {
		for _, g := range s.FeatureGenerators {
			g.AppendConstraints(f, features, graph)
		}
	}

	remaining := make(map[*planop.FeatureExtrusion]bool, len(features))
	schedulers := make(map[*planop.FeatureExtrusion]*FeatureScheduler, len(features))
	for _, f := range features {
		remaining[f] = true
		schedulers[f] = NewFeatureScheduler(f, s.SequenceGenerators, s.Exclusion, s.RNG, s.Logger)
	}

	ordered := make([]planop.Operation, 0, len(features))
	current := start
	for len(remaining) > 0 {
		best, ok := s.pickNext(features, remaining, graph, schedulers, current)
		if !ok {
			s.logContradiction(remaining)
			for _, f := range features {
				if remaining[f] {
					ordered = append(ordered, f)
				}
			}
			break
		}
		end, err := schedulers[best].Schedule(current)
		if err != nil {
			return current, err
		}
		ordered = append(ordered, best)
		current = end
		delete(remaining, best)
	}

	if err := plan.SetChildren(ordered); err != nil {
		return current, err
	}
	return current, nil
}

// pickNext finds the processable-now feature whose nearest candidate is
// closest to current (spec.md §4.H.2 step 2). Candidates are visited in
// the plan's original child order, so an exact tie goes to the feature
// that comes first there.
func (s *ExtruderPlanScheduler) pickNext(
	features []*planop.FeatureExtrusion,
	remaining map[*planop.FeatureExtrusion]bool,
	graph *constraints.Graph[*planop.FeatureExtrusion],
	schedulers map[*planop.FeatureExtrusion]*FeatureScheduler,
	current geometry.Point2,
) (*planop.FeatureExtrusion, bool) {
	found := false
	var best *planop.FeatureExtrusion
	bestDist := math.Inf(1)
	for _, f := range features {
		if !remaining[f] {
			continue
		}
		blocked := false
		for other := range remaining {
			if other != f && graph.MustComeAfter(other, f) {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}
		cand, ok := schedulers[f].Peek(current)
		if !ok {
			continue
		}
		d := float64(cand.Point.Sub(current).VSize2())
		if !found || d < bestDist {
			best, bestDist, found = f, d, true
		}
	}
	return best, found
}

func (s *ExtruderPlanScheduler) logContradiction(remaining map[*planop.FeatureExtrusion]bool) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("schedule: contradictory feature constraints, emitting remainder in arbitrary order",
		"remaining_features", len(remaining))
}
