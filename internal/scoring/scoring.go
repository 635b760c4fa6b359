// Package scoring provides the multi-criterion, multi-pass best-element
// finder used throughout the scheduling core to pick seams, start points
// and tie-break between otherwise-equal candidates (spec.md §4.C).
//
// The shape is grounded on the teacher's internal/engine/compare.go
// (score, rank, keep the best) and internal/engine/genetic.go's
// tournament selection (weighted scores, survivor cut).
package scoring

import "github.com/piwi3910/sliceplan/internal/geometry"

// Criterion returns a score in [0, 1] for a candidate identified by
// index. Implementations should spread scores across the full range so
// the criterion actually discriminates between candidates.
type Criterion interface {
	Score(candidate int) geometry.Ratio
}

// CriterionFunc adapts a plain function to the Criterion interface.
type CriterionFunc func(candidate int) geometry.Ratio

func (f CriterionFunc) Score(candidate int) geometry.Ratio { return f(candidate) }

// WeightedCriterion pairs a criterion with the weight it contributes
// within a Pass.
type WeightedCriterion struct {
	Criterion Criterion
	Weight    float64
}

// Pass is one scoring round: a weighted sum of criteria, plus the delta
// threshold used to cut outsiders before the next pass runs.
type Pass struct {
	Criteria               []WeightedCriterion
	OutsiderDeltaThreshold float64
}

// epsilon absorbs floating-point noise in the outsider-delta comparison,
// matching the "+ ε" in spec.md's algorithm description.
const epsilon = 1e-9

// Finder runs an ordered list of passes over a candidate set, narrowing
// survivors pass by pass (spec.md §4.C).
type Finder struct {
	Passes []Pass
}

// scorePass computes a single pass's weighted score for every still-alive
// candidate.
func (f *Finder) scorePass(pass Pass, alive []int) map[int]float64 {
	scores := make(map[int]float64, len(alive))
	for _, c := range alive {
		var total float64
		for _, wc := range pass.Criteria {
			total += float64(wc.Criterion.Score(c)) * wc.Weight
		}
		scores[c] = total
	}
	return scores
}

// FindBest runs find_best(n): returns the single best candidate, or
// ok=false if a pass leaves no survivors. FindBest is idempotent
// (spec.md P6): it is a pure function of n and the criteria, with no
// internal mutable state carried between calls.
func (f *Finder) FindBest(n int) (best int, ok bool) {
	alive := make([]int, n)
	for i := range alive {
		alive[i] = i
	}
	for passIdx, pass := range f.Passes {
		if len(alive) == 0 {
			return 0, false
		}
		scores := f.scorePass(pass, alive)
		bestScore := maxScore(alive, scores)
		last := passIdx == len(f.Passes)-1
		if last {
			return argmax(alive, scores), true
		}
		survivors := make([]int, 0, len(alive))
		for _, c := range alive {
			if bestScore-scores[c] <= pass.OutsiderDeltaThreshold+epsilon {
				survivors = append(survivors, c)
			}
		}
		if len(survivors) == 0 {
			return 0, false
		}
		if len(survivors) == 1 {
			return survivors[0], true
		}
		alive = survivors
	}
	if len(alive) == 0 {
		return 0, false
	}
	return alive[0], true
}

// FindAllNearOptimal runs the same pass sequence but, instead of
// collapsing the final pass to a single argmax, returns every candidate
// tied within the final pass's outsider delta threshold. Used where the
// caller wants "all near-optimal" behaviour instead of "unique".
func (f *Finder) FindAllNearOptimal(n int) []int {
	alive := make([]int, n)
	for i := range alive {
		alive[i] = i
	}
	for passIdx, pass := range f.Passes {
		if len(alive) == 0 {
			return nil
		}
		scores := f.scorePass(pass, alive)
		bestScore := maxScore(alive, scores)
		last := passIdx == len(f.Passes)-1
		if last {
			var out []int
			for _, c := range alive {
				if bestScore-scores[c] <= pass.OutsiderDeltaThreshold+epsilon {
					out = append(out, c)
				}
			}
			return out
		}
		var survivors []int
		for _, c := range alive {
			if bestScore-scores[c] <= pass.OutsiderDeltaThreshold+epsilon {
				survivors = append(survivors, c)
			}
		}
		if len(survivors) == 0 {
			return nil
		}
		alive = survivors
	}
	return alive
}

func maxScore(alive []int, scores map[int]float64) float64 {
	best := scores[alive[0]]
	for _, c := range alive[1:] {
		if scores[c] > best {
			best = scores[c]
		}
	}
	return best
}

func argmax(alive []int, scores map[int]float64) int {
	best := alive[0]
	bestScore := scores[best]
	for _, c := range alive[1:] {
		if scores[c] > bestScore {
			best = c
			bestScore = scores[c]
		}
	}
	return best
}

// InverseLerp maps v linearly from [a, b] to [0, 1], clamping outside
// the range. It is the building block for the corner-scoring criteria
// of spec.md §4.D (e.g. inverse_lerp(1, -1, a)).
func InverseLerp(a, b, v float64) geometry.Ratio {
	if a == b {
		return 0
	}
	t := (v - a) / (b - a)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return geometry.Ratio(t)
}
