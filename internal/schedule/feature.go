// Package schedule implements the feature and extruder-plan schedulers
// of spec.md §4.H: turning the unordered set of features a generator
// appended into one deterministic, nearest-point-ordered emission
// sequence, subject to the "must come after" constraints of
// internal/constraints.
//
// Grounded on the teacher's internal/engine/optimizer.go guillotine
// placement loop: repeatedly pick the best still-available candidate,
// commit it, and let that commit unlock new candidates — generalized
// here from "best free rectangle for the next part" to "nearest
// processable print feature/sequence for the nozzle's current position".
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

// SequenceCandidate is one move sequence's proposed next starting point,
// with the action required to realise it (spec.md §4.H.1 step 3).
type SequenceCandidate struct {
	Seq    *planop.ContinuousExtruderMoveSequence
	Index  int
	Action seam.Action
	Point  geometry.Point2
}

// FeatureScheduler orders one FeatureExtrusion's sequences, per
// spec.md §4.H.1/§4.H.2's recursive intra-feature loop.
type FeatureScheduler struct {
	Feature   *planop.FeatureExtrusion
	Exclusion seam.ExclusionArea
	RNG       *rand.Rand
	Logger    *slog.Logger

	moves     *constraints.Graph[*planop.ContinuousExtruderMoveSequence]
	order     []*planop.ContinuousExtruderMoveSequence
	remaining map[*planop.ContinuousExtruderMoveSequence]bool
	ordered   []planop.Operation
}

// NewFeatureScheduler builds a scheduler for feature, running every
// sequence constraint generator over it to produce the moves_constraints
// mapping of spec.md §4.H.1 step 2.
func NewFeatureScheduler(feature *planop.FeatureExtrusion, seqGens []constraints.SequenceConstraintGenerator, exclusion seam.ExclusionArea, rng *rand.Rand, logger *slog.Logger) *FeatureScheduler {
	moves := constraints.NewGraph[*planop.ContinuousExtruderMoveSequence]()
	for _, g := range seqGens {
		g.AppendConstraints(feature, moves)
	}
	order := planop.FindAllByType[*planop.ContinuousExtruderMoveSequence](feature, planop.Forward, intPtr(0), nil)
	remaining := make(map[*planop.ContinuousExtruderMoveSequence]bool, len(order))
	for _, s := range order {
		remaining[s] = true
	}
	return &FeatureScheduler{
		Feature:   feature,
		Exclusion: exclusion,
		RNG:       rng,
		Logger:    logger,
		moves:     moves,
		order:     order,
		remaining: remaining,
	}
}

// Done reports whether every sequence in the feature has been scheduled.
func (fs *FeatureScheduler) Done() bool { return len(fs.remaining) == 0 }

// Peek returns the sequence candidate nearest to current among those
// processable now, without committing to it.
func (fs *FeatureScheduler) Peek(current geometry.Point2) (SequenceCandidate, bool) {
	found := false
	var best SequenceCandidate
	bestDist := math.Inf(1)
	for _, seq := range fs.processable() {
		for _, c := range fs.candidatesFor(seq) {
			d := float64(c.Point.Sub(current).VSize2())
			if !found || d < bestDist {
				best, bestDist, found = c, d, true
			}
		}
	}
	return best, found
}

// Schedule runs the full nearest-point loop over the feature's
// sequences, bounded by moves_constraints, reordering the feature's
// children to the resulting emission order and returning the nozzle
// position after the last emitted sequence (spec.md §4.H.2 step 2's
// recursive inner loop).
func (fs *FeatureScheduler) Schedule(current geometry.Point2) (geometry.Point2, error) {
	for !fs.Done() {
		cand, ok := fs.Peek(current)
		if !ok {
			fs.logContradiction()
			for _, s := range fs.order {
				if fs.remaining[s] {
					fs.ordered = append(fs.ordered, s)
				}
			}
			fs.remaining = map[*planop.ContinuousExtruderMoveSequence]bool{}
			break
		}
		end, err := fs.commit(cand)
		if err != nil {
			return current, err
		}
		current = end
	}
	if err := fs.Feature.SetChildren(fs.ordered); err != nil {
		return current, err
	}
	return current, nil
}

// processable returns the sequences with no remaining, unemitted
// predecessor in moves_constraints. For features with no seam config,
// order must be preserved (spec.md §4.H.1 step 3), so only the earliest
// unemitted sequence in original order is ever processable.
func (fs *FeatureScheduler) processable() []*planop.ContinuousExtruderMoveSequence {
	if fs.Feature.Seam == nil {
		for _, s := range fs.order {
			if fs.remaining[s] {
				return []*planop.ContinuousExtruderMoveSequence{s}
			}
		}
		return nil
	}
	var out []*planop.ContinuousExtruderMoveSequence
	for _, s := range fs.order {
		if !fs.remaining[s] {
			continue
		}
		blocked := false
		for other := range fs.remaining {
			if other != s && fs.moves.MustComeAfter(other, s) {
				blocked = true
				break
			}
		}
		if !blocked {
			out = append(out, s)
		}
	}
	return out
}

func (fs *FeatureScheduler) candidatesFor(seq *planop.ContinuousExtruderMoveSequence) []SequenceCandidate {
	points := sequencePoints(seq)
	if len(points) == 0 {
		return nil
	}
	if fs.Feature.Seam == nil {
		return []SequenceCandidate{{Seq: seq, Index: 0, Action: seam.ActionNone, Point: points[0]}}
	}
	cands := seam.SelectNearOptimal(points, seq.Closed, *fs.Feature.Seam, fs.Exclusion, fs.RNG)
	out := make([]SequenceCandidate, len(cands))
	for i, c := range cands {
		out[i] = SequenceCandidate{Seq: seq, Index: c.Index, Action: c.Action, Point: points[c.Index]}
	}
	return out
}

func (fs *FeatureScheduler) commit(c SequenceCandidate) (geometry.Point2, error) {
	switch c.Action {
	case seam.ActionReverse:
		if err := c.Seq.Reverse(); err != nil {
			return geometry.Point2{}, err
		}
	case seam.ActionReorder:
		if err := c.Seq.ReorderToStartAt(c.Index); err != nil {
			return geometry.Point2{}, err
		}
	}
	delete(fs.remaining, c.Seq)
	fs.ordered = append(fs.ordered, c.Seq)
	if end, ok := planop.FindEndPosition(c.Seq); ok {
		return end, nil
	}
	return c.Point, nil
}

func (fs *FeatureScheduler) logContradiction() {
	logger := fs.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("schedule: contradictory sequence constraints, emitting remainder in arbitrary order",
		"feature_type", fs.Feature.FeatureType.String())
}

// sequencePoints extracts the XY target of every leaf move directly
// under seq, in order.
func sequencePoints(seq *planop.ContinuousExtruderMoveSequence) []geometry.Point2 {
	var out []geometry.Point2
	for _, c := range seq.Children() {
		switch m := c.(type) {
		case *planop.ExtrusionMove:
			out = append(out, m.Target.XY())
		case *planop.ExtruderMove:
			out = append(out, m.Target.XY())
		}
	}
	return out
}

func intPtr(v int) *int { return &v }
