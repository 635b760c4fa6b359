package planop

import "github.com/piwi3910/sliceplan/internal/geometry"

// ApplyGradualFlow ramps a sequence's extrusion flow ratio from
// startRatio up to 1 over the first window of travelled distance, and
// from 1 down to endRatio over the last window, to avoid pressure-
// advance artefacts at the start/end of a line (supplemented from
// original_source/include/gradual_flow/FlowLimitedPath.h and
// Processor.h per SPEC_FULL.md §4).
func ApplyGradualFlow(seq *ContinuousExtruderMoveSequence, window geometry.Micron, startRatio, endRatio geometry.Ratio) {
	if window <= 0 {
		return
	}
	moves := FindAllByType[*ExtrusionMove](seq, Forward, intPtr(0), nil)
	if len(moves) == 0 {
		return
	}

	var prev geometry.Point3
	have := false
	var distFromStart geometry.Micron
	for _, m := range moves {
		if have {
			distFromStart += m.Target.Sub(prev).XY().VSize()
		}
		prev, have = m.Target, true
		if distFromStart < window {
			t := float64(distFromStart) / float64(window)
			ratio := float64(startRatio) + (1-float64(startRatio))*t
			if geometry.Ratio(ratio) < m.FlowRatio {
				m.FlowRatio = geometry.Ratio(ratio)
			}
		}
	}

	var distFromEnd geometry.Micron
	have = false
	for i := len(moves) - 1; i >= 0; i-- {
		m := moves[i]
		if have {
			distFromEnd += m.Target.Sub(prev).XY().VSize()
		}
		prev, have = m.Target, true
		if distFromEnd < window {
			t := float64(distFromEnd) / float64(window)
			ratio := float64(endRatio) + (1-float64(endRatio))*t
			if geometry.Ratio(ratio) < m.FlowRatio {
				m.FlowRatio = geometry.Ratio(ratio)
			}
		}
	}
}
