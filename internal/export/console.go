package export

import (
	"log/slog"

	"github.com/piwi3910/sliceplan/internal/geometry"
)

// ConsoleExporter logs every event at debug level via slog. A debug sink
// used by the demo CLI and tests; production exporters are expected to
// be G-code emitters living outside this module (spec.md §6).
type ConsoleExporter struct {
	Logger *slog.Logger
}

// NewConsoleExporter returns a ConsoleExporter logging to slog.Default()
// when logger is nil.
func NewConsoleExporter(logger *slog.Logger) *ConsoleExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleExporter{Logger: logger}
}

func (c *ConsoleExporter) LayerStart(layerIndex int, startPosition geometry.Point2) {
	c.Logger.Debug("layer start", "layer", layerIndex, "start", startPosition)
}

func (c *ConsoleExporter) LayerEnd(layerIndex int, z, thickness geometry.Micron) {
	c.Logger.Debug("layer end", "layer", layerIndex, "z", z, "thickness", thickness)
}

func (c *ConsoleExporter) Travel(position geometry.Point3, speed geometry.Velocity, featureType PrintFeatureType) {
	c.Logger.Debug("travel", "to", position, "speed", speed, "feature", featureType)
}

func (c *ConsoleExporter) Extrusion(position geometry.Point3, speed geometry.Velocity, extruderNumber int, mm3PerMM geometry.Ratio, lineWidth, lineThickness geometry.Micron, featureType PrintFeatureType, updateOffset bool) {
	c.Logger.Debug("extrusion", "to", position, "speed", speed, "extruder", extruderNumber,
		"mm3permm", mm3PerMM, "width", lineWidth, "thickness", lineThickness, "feature", featureType)
}

func (c *ConsoleExporter) ExtruderChange(nextExtruder int) {
	c.Logger.Debug("extruder change", "next", nextExtruder)
}
