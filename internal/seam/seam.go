// Package seam chooses the starting point of a closed move sequence (or
// the end of an open one) using the multi-criterion finder in
// internal/scoring (spec.md §4.D).
package seam

import (
	"math"
	"math/rand"

	"github.com/piwi3910/sliceplan/internal/geometry"
	"github.com/piwi3910/sliceplan/internal/scoring"
)

// Type selects the overall seam strategy.
type Type int

const (
	Shortest Type = iota
	Random
	UserSpecified
	SharpestCorner
	Plugin
)

// CornerPreference selects which kind of corner SharpestCorner favours.
type CornerPreference int

const (
	PrefNone CornerPreference = iota
	PrefInner
	PrefOuter
	PrefAny
	PrefWeighted
)

// Config is the seam policy attached to a feature extrusion (spec.md
// "Z-seam config").
type Config struct {
	Type              Type
	UserPoint         geometry.Point2
	CornerPref        CornerPreference
	SimplifyCurvature geometry.Micron
}

// Action describes what the scheduler should do with the sequence once a
// candidate has been chosen.
type Action int

const (
	ActionNone Action = iota
	ActionReverse
	ActionReorder
)

// Candidate is one seam option: an index into the sequence's point list
// plus the action required to realise it.
type Candidate struct {
	Index  int
	Action Action
}

// ExclusionArea reports whether a point lies inside an overhang/exclusion
// region that seams should avoid.
type ExclusionArea interface {
	Contains(p geometry.Point2) bool
}

// BuildCandidates constructs the candidate list for a sequence: every
// vertex for a closed sequence (action Reorder), or the two endpoints for
// an open sequence (actions None, Reverse).
func BuildCandidates(points []geometry.Point2, closed bool) []Candidate {
	if len(points) == 0 {
		return nil
	}
	if closed {
		out := make([]Candidate, len(points))
		for i := range points {
			out[i] = Candidate{Index: i, Action: ActionReorder}
		}
		return out
	}
	return []Candidate{
		{Index: 0, Action: ActionNone},
		{Index: len(points) - 1, Action: ActionReverse},
	}
}

// Select runs the full pass pipeline of spec.md §4.D and returns the
// chosen candidate.
func Select(points []geometry.Point2, closed bool, cfg Config, exclusion ExclusionArea, rng *rand.Rand) (Candidate, bool) {
	candidates := BuildCandidates(points, closed)
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	finder := buildFinder(points, candidates, closed, cfg, exclusion, rng)
	idx, ok := finder.FindBest(len(candidates))
	if !ok {
		return Candidate{}, false
	}
	return candidates[idx], true
}

// SelectNearOptimal runs the same pass pipeline as Select but returns
// every candidate tied for best under the final pass's outsider delta
// threshold, instead of collapsing to one. Used by the feature scheduler
// (spec.md §4.H.1 step 3) to pre-filter start candidates to those
// "equally-optimal under the seam criteria" before the nearest-point
// stage picks among them.
func SelectNearOptimal(points []geometry.Point2, closed bool, cfg Config, exclusion ExclusionArea, rng *rand.Rand) []Candidate {
	candidates := BuildCandidates(points, closed)
	if len(candidates) == 0 {
		return nil
	}
	finder := buildFinder(points, candidates, closed, cfg, exclusion, rng)
	indices := finder.FindAllNearOptimal(len(candidates))
	out := make([]Candidate, len(indices))
	for i, idx := range indices {
		out[i] = candidates[idx]
	}
	return out
}

func buildFinder(points []geometry.Point2, candidates []Candidate, closed bool, cfg Config, exclusion ExclusionArea, rng *rand.Rand) *scoring.Finder {
	main := scoring.Pass{OutsiderDeltaThreshold: 0.05}
	switch cfg.Type {
	case Random:
		main.Criteria = append(main.Criteria, scoring.WeightedCriterion{
			Criterion: scoring.CriterionFunc(func(int) geometry.Ratio { return geometry.Ratio(rng.Float64()) }),
			Weight:    1,
		})
	case UserSpecified:
		main.Criteria = append(main.Criteria, scoring.WeightedCriterion{
			Criterion: userDistanceCriterion(points, candidates, cfg.UserPoint),
			Weight:    1,
		})
	case SharpestCorner:
		main.Criteria = append(main.Criteria, scoring.WeightedCriterion{
			Criterion: cornerCriterion(points, closed, candidates, cfg.CornerPref),
			Weight:    1,
		})
	case Shortest, Plugin:
		// No main criterion: the post-ordering nearest-point stage alone
		// picks among these candidates (spec.md §4.D).
	}
	if exclusion != nil {
		main.Criteria = append(main.Criteria, scoring.WeightedCriterion{
			Criterion: exclusionCriterion(points, candidates, exclusion),
			Weight:    2.0,
		})
	}

	passes := []scoring.Pass{main}
	if cfg.Type == SharpestCorner {
		passes = append(passes, backMostPass(points, candidates), rightMostPass(points, candidates))
	}
	return &scoring.Finder{Passes: passes}
}

func userDistanceCriterion(points []geometry.Point2, candidates []Candidate, target geometry.Point2) scoring.Criterion {
	const divider = 1000.0 // small divider: nearby candidates dominate quickly
	return scoring.CriterionFunc(func(c int) geometry.Ratio {
		p := points[candidates[c].Index]
		d := math.Sqrt(float64(p.Sub(target).VSize2()))
		return geometry.Ratio(1.0 / (1.0 + d/divider))
	})
}

func exclusionCriterion(points []geometry.Point2, candidates []Candidate, area ExclusionArea) scoring.Criterion {
	return scoring.CriterionFunc(func(c int) geometry.Ratio {
		if area.Contains(points[candidates[c].Index]) {
			return 0
		}
		return 1
	})
}

func backMostPass(points []geometry.Point2, candidates []Candidate) scoring.Pass {
	maxY := extremeY(points, candidates, false)
	return scoring.Pass{
		OutsiderDeltaThreshold: 0.01,
		Criteria: []scoring.WeightedCriterion{{
			Weight: 1,
			Criterion: scoring.CriterionFunc(func(c int) geometry.Ratio {
				p := points[candidates[c].Index]
				return geometry.Ratio(1.0 / (1.0 + float64(maxY-p.Y)/1000.0))
			}),
		}},
	}
}

func rightMostPass(points []geometry.Point2, candidates []Candidate) scoring.Pass {
	maxX := extremeX(points, candidates)
	return scoring.Pass{
		OutsiderDeltaThreshold: 0.01,
		Criteria: []scoring.WeightedCriterion{{
			Weight: 1,
			Criterion: scoring.CriterionFunc(func(c int) geometry.Ratio {
				p := points[candidates[c].Index]
				return geometry.Ratio(1.0 / (1.0 + float64(maxX-p.X)/1000.0))
			}),
		}},
	}
}

func extremeY(points []geometry.Point2, candidates []Candidate, _ bool) geometry.Micron {
	max := points[candidates[0].Index].Y
	for _, c := range candidates[1:] {
		if points[c.Index].Y > max {
			max = points[c.Index].Y
		}
	}
	return max
}

func extremeX(points []geometry.Point2, candidates []Candidate) geometry.Micron {
	max := points[candidates[0].Index].X
	for _, c := range candidates[1:] {
		if points[c.Index].X > max {
			max = points[c.Index].X
		}
	}
	return max
}
