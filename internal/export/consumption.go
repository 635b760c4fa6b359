package export

import (
	"math"
	"sync"

	"github.com/piwi3910/sliceplan/internal/geometry"
)

// ConsumptionEstimationExporter accumulates per-feature print duration and
// per-extruder filament volume by integrating the distance between
// consecutive Travel/Extrusion calls (spec.md §4.K).
type ConsumptionEstimationExporter struct {
	mu sync.Mutex

	have    bool
	current geometry.Point3

	DurationByFeature map[PrintFeatureType]geometry.Duration
	VolumeByExtruder  map[int]geometry.Ratio // mm^3
}

// NewConsumptionEstimationExporter returns a ready-to-use accumulator.
func NewConsumptionEstimationExporter() *ConsumptionEstimationExporter {
	return &ConsumptionEstimationExporter{
		DurationByFeature: make(map[PrintFeatureType]geometry.Duration),
		VolumeByExtruder:  make(map[int]geometry.Ratio),
	}
}

func (c *ConsumptionEstimationExporter) distanceMM(to geometry.Point3) float64 {
	if !c.have {
		return 0
	}
	a, b := c.current.ToMM(), to.ToMM()
	return math.Sqrt(a.Dist2(b))
}

func (c *ConsumptionEstimationExporter) LayerStart(int, geometry.Point2) {}
func (c *ConsumptionEstimationExporter) LayerEnd(int, geometry.Micron, geometry.Micron) {}

func (c *ConsumptionEstimationExporter) Travel(position geometry.Point3, speed geometry.Velocity, featureType PrintFeatureType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.distanceMM(position)
	if speed > 0 {
		c.DurationByFeature[FeatureTravel] += geometry.Duration(d / float64(speed))
	}
	c.current, c.have = position, true
}

func (c *ConsumptionEstimationExporter) Extrusion(position geometry.Point3, speed geometry.Velocity, extruderNumber int, mm3PerMM geometry.Ratio, lineWidth, lineThickness geometry.Micron, featureType PrintFeatureType, updateOffset bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.distanceMM(position)
	if speed > 0 {
		c.DurationByFeature[featureType] += geometry.Duration(d / float64(speed))
	}
	c.VolumeByExtruder[extruderNumber] += geometry.Ratio(d * float64(mm3PerMM))
	c.current, c.have = position, true
}

func (c *ConsumptionEstimationExporter) ExtruderChange(int) {}

// TotalDuration sums every feature's accumulated duration.
func (c *ConsumptionEstimationExporter) TotalDuration() geometry.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total geometry.Duration
	for _, d := range c.DurationByFeature {
		total += d
	}
	return total
}
