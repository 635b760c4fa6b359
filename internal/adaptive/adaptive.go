// Package adaptive computes per-layer heights from mesh face geometry
// instead of a single fixed layer height (spec.md §4.J, §3.4).
//
// Both algorithms and the smoothing pass are grounded on
// original_source/src/settings/SlicingAdaptive.cpp and
// LayerHeightSmoothing.cpp: spec.md §4.J gives the textual algorithm,
// original_source resolves the one ambiguity it leaves open (what
// "δ_min, δ_mid, δ_max from the layer-height bounds" means: the min,
// base and max configured layer heights themselves, in millimetres,
// fed straight into the same lerp used by the quality blend).
package adaptive

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/piwi3910/sliceplan/internal/geometry"
)

// Face is one mesh triangle's z-span and normal decomposition, named to
// match spec.md's |nz| / sqrt(nx²+ny²) rather than CuraEngine's internal
// field names.
type Face struct {
	ZMin, ZMax float64
	NSin, NCos float64
}

// LayerHeight is one computed layer's thickness at a given z.
type LayerHeight struct {
	Z      float64
	Height float64
}

func lerp(a, b, t float64) float64 { return a + t*(b-a) }

// LegacyConfig parametrises the slope-based, step-quantised algorithm.
type LegacyConfig struct {
	BaseLayerHeight float64
	MaxVariation    float64
	StepSize        float64
	Threshold       float64
	ObjectHeight    float64
}

func (c LegacyConfig) allowedHeights() []float64 {
	if c.StepSize <= 0 {
		return []float64{c.BaseLayerHeight}
	}
	var heights []float64
	for k := 0; ; k++ {
		delta := float64(k) * c.StepSize
		if delta > c.MaxVariation+1e-9 {
			break
		}
		heights = append(heights, c.BaseLayerHeight+delta)
		if k > 0 {
			heights = append(heights, c.BaseLayerHeight-delta)
		}
	}
	sort.Float64s(heights)
	return heights
}

// steepestSlope returns the largest |dz/dxy| among faces intersecting
// [z, z+h), i.e. faces with z_min < z+h and z_max > z.
func steepestSlope(faces []Face, z, h float64) (float64, bool) {
	found := false
	var steepest float64
	for _, f := range faces {
		if f.ZMin >= z+h || f.ZMax <= z {
			continue
		}
		if f.NCos < 1e-9 {
			continue
		}
		slope := f.NSin / f.NCos
		if !found || slope > steepest {
			steepest = slope
			found = true
		}
	}
	return steepest, found
}

// LegacyAdaptiveHeights implements spec.md §4.J's legacy algorithm:
// sweep layers upward, at each z picking the largest allowed height
// whose product with the steepest intersecting slope does not exceed
// the threshold.
func LegacyAdaptiveHeights(faces []Face, cfg LegacyConfig) []LayerHeight {
	allowed := cfg.allowedHeights()
	if len(allowed) == 0 {
		return nil
	}
	var out []LayerHeight
	z := 0.0
	for z < cfg.ObjectHeight {
		best := allowed[0]
		for _, h := range allowed {
			slope, ok := steepestSlope(faces, z, h)
			if !ok || slope*h <= cfg.Threshold {
				if h > best {
					best = h
				}
			}
		}
		out = append(out, LayerHeight{Z: z, Height: best})
		z += best
	}
	return out
}

// AdvancedConfig parametrises the slope + surface-deviation algorithm.
type AdvancedConfig struct {
	MinHeight, BaseHeight, MaxHeight float64
	ObjectHeight                     float64
}

func effectiveDeviation(cfg AdvancedConfig, quality geometry.Ratio) float64 {
	q := float64(quality)
	if q < 0.5 {
		return lerp(cfg.MinHeight, cfg.BaseHeight, 2*q)
	}
	return lerp(cfg.MaxHeight, cfg.BaseHeight, 2*(1-q))
}

// heightFromSlope implements layer_height_from_slope: the minimum of
// the roughness-limited height (δ/0.184) and the slope-limited height
// (1.44·δ·√(n_sin/n_cos)).
func heightFromSlope(f Face, delta float64) float64 {
	roughnessLimit := delta / 0.184
	if f.NCos <= 1e-5 {
		return roughnessLimit
	}
	slopeLimited := 1.44 * delta * math.Sqrt(f.NSin/f.NCos)
	return math.Min(roughnessLimit, slopeLimited)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AdvancedAdaptiveHeights implements spec.md §4.J's advanced algorithm:
// faces sorted by z_min, an effective surface deviation derived from
// the quality factor, the minimum candidate height over intersecting
// faces, then a second pass shrinking the candidate so no face starting
// inside the tentative layer is skipped.
func AdvancedAdaptiveHeights(faces []Face, cfg AdvancedConfig, quality geometry.Ratio) []LayerHeight {
	sorted := append([]Face(nil), faces...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ZMin < sorted[j].ZMin })

	delta := effectiveDeviation(cfg, quality)
	const eps = 1e-9

	var out []LayerHeight
	z := 0.0
	for z < cfg.ObjectHeight {
		height := cfg.MaxHeight
		for _, f := range sorted {
			if f.ZMin >= z {
				break
			}
			if f.ZMax <= z+eps {
				continue
			}
			height = math.Min(height, heightFromSlope(f, delta))
		}
		height = math.Max(height, cfg.MinHeight)

		if height > cfg.MinHeight {
			for _, f := range sorted {
				if f.ZMin >= z+height {
					break
				}
				if f.ZMax <= z+eps || f.ZMin < z {
					continue
				}
				reduced := heightFromSlope(f, delta)
				zDiff := f.ZMin - z
				if reduced < zDiff {
					height = zDiff
				} else if reduced < height {
					height = reduced
				}
			}
			height = math.Max(height, cfg.MinHeight)
		}

		out = append(out, LayerHeight{Z: z, Height: height})
		z += height
	}
	return out
}

// LayerHeightSmoothing applies a multi-pass Gaussian blur to a height
// profile, grounded on LayerHeightSmoothing.cpp's
// generateGaussianKernel/applyGaussianBlur/smooth_layer_heights.
type LayerHeightSmoothing struct {
	Radius             int
	ClampToOriginalMin bool
}

func gaussianKernel(radius int) []float64 {
	size := 2*radius + 1
	sigma := 0.3*float64(radius-1) + 0.8
	normal := distuv.Normal{Mu: 0, Sigma: sigma}
	kernel := make([]float64, size)
	for i := 0; i < size; i++ {
		x := float64(i - radius)
		kernel[i] = normal.Prob(x)
	}
	return kernel
}

func blurOnce(heights []float64, kernel []float64, minH, maxH float64, keepMin bool) []float64 {
	if len(heights) < 6 {
		return heights
	}
	radius := len(kernel) / 2
	result := make([]float64, len(heights))
	result[0] = heights[0]
	deltaH := maxH - minH
	invDeltaH := 1.0
	if deltaH != 0 {
		invDeltaH = 1.0 / deltaH
	}
	for i := 1; i < len(heights); i++ {
		original := heights[i]
		var weighted, weightTotal float64
		begin := i - radius
		if begin < 1 {
			begin = 1
		}
		end := i + radius
		if end > len(heights)-1 {
			end = len(heights) - 1
		}
		for j := begin; j <= end; j++ {
			kernelIdx := radius + (j - i)
			if kernelIdx < 0 || kernelIdx >= len(kernel) {
				continue
			}
			dh := math.Abs(maxH - heights[j])
			weight := kernel[kernelIdx] * math.Sqrt(dh*invDeltaH)
			weighted += weight * heights[j]
			weightTotal += weight
		}
		smoothed := original
		if weightTotal != 0 {
			smoothed = weighted / weightTotal
		}
		smoothed = clamp(smoothed, minH, maxH)
		if keepMin {
			smoothed = math.Min(smoothed, original)
		}
		result[i] = smoothed
	}
	return result
}

// Smooth runs six rounds of Gaussian blur over heights, clamping every
// output into [minH, maxH], and returns the monotonic z positions
// alongside the smoothed heights via cumulative summation.
func (s LayerHeightSmoothing) Smooth(heights []float64, minH, maxH float64) []LayerHeight {
	if len(heights) < 2 {
		return toLayerHeights(heights)
	}
	radius := s.Radius
	if radius < 1 {
		radius = 1
	}
	kernel := gaussianKernel(radius)
	result := append([]float64(nil), heights...)
	for round := 0; round < 6; round++ {
		result = blurOnce(result, kernel, minH, maxH, s.ClampToOriginalMin)
	}
	return toLayerHeights(result)
}

func toLayerHeights(heights []float64) []LayerHeight {
	out := make([]LayerHeight, len(heights))
	z := 0.0
	for i, h := range heights {
		out[i] = LayerHeight{Z: z, Height: h}
		z += h
	}
	return out
}
