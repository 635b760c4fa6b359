// Package export defines the narrow, ordered sink the print-plan tree
// streams its final emission through (spec.md §4.K), plus a handful of
// concrete sinks: a console debug sink, a consumption-estimation
// accumulator, and a PDF build-log report grounded on the teacher's
// internal/export package.
package export

import "github.com/piwi3910/sliceplan/internal/geometry"

// PrintFeatureType classifies the kind of material a move belongs to.
// Shared by planop.FeatureExtrusion and every Exporter event so the two
// packages agree on vocabulary without planop needing its own copy.
type PrintFeatureType int

const (
	FeatureNone PrintFeatureType = iota
	FeatureOuterWall
	FeatureInnerWall
	FeatureSkin
	FeatureRoof
	FeatureInfill
	FeatureSkirtBrim
	FeatureSupport
	FeatureSupportInterface
	FeaturePrimeTower
	FeatureTravel
)

func (t PrintFeatureType) String() string {
	switch t {
	case FeatureOuterWall:
		return "outer-wall"
	case FeatureInnerWall:
		return "inner-wall"
	case FeatureSkin:
		return "skin"
	case FeatureRoof:
		return "roof"
	case FeatureInfill:
		return "infill"
	case FeatureSkirtBrim:
		return "skirt-brim"
	case FeatureSupport:
		return "support"
	case FeatureSupportInterface:
		return "support-interface"
	case FeaturePrimeTower:
		return "prime-tower"
	case FeatureTravel:
		return "travel"
	default:
		return "none"
	}
}

// Exporter is the sink a fully-scheduled print plan streams events into
// (spec.md §4.K). Extrusion events carry everything needed for either
// G-code emission or consumption estimation; no state is hidden inside
// the exporter from the plan's perspective.
type Exporter interface {
	LayerStart(layerIndex int, startPosition geometry.Point2)
	LayerEnd(layerIndex int, z geometry.Micron, thickness geometry.Micron)
	Travel(position geometry.Point3, speed geometry.Velocity, featureType PrintFeatureType)
	Extrusion(position geometry.Point3, speed geometry.Velocity, extruderNumber int, mm3PerMM geometry.Ratio, lineWidth, lineThickness geometry.Micron, featureType PrintFeatureType, updateOffset bool)
	ExtruderChange(nextExtruder int)
}

// MultiExporter fans every call out to a list of exporters in order,
// grounded on the teacher's pattern of independent sink functions
// (ExportPDF, ExportLabels) invoked over the same shared result.
type MultiExporter struct {
	Exporters []Exporter
}

func (m *MultiExporter) LayerStart(layerIndex int, startPosition geometry.Point2) {
	for _, e := range m.Exporters {
		e.LayerStart(layerIndex, startPosition)
	}
}

func (m *MultiExporter) LayerEnd(layerIndex int, z, thickness geometry.Micron) {
	for _, e := range m.Exporters {
		e.LayerEnd(layerIndex, z, thickness)
	}
}

func (m *MultiExporter) Travel(position geometry.Point3, speed geometry.Velocity, featureType PrintFeatureType) {
	for _, e := range m.Exporters {
		e.Travel(position, speed, featureType)
	}
}

func (m *MultiExporter) Extrusion(position geometry.Point3, speed geometry.Velocity, extruderNumber int, mm3PerMM geometry.Ratio, lineWidth, lineThickness geometry.Micron, featureType PrintFeatureType, updateOffset bool) {
	for _, e := range m.Exporters {
		e.Extrusion(position, speed, extruderNumber, mm3PerMM, lineWidth, lineThickness, featureType, updateOffset)
	}
}

func (m *MultiExporter) ExtruderChange(nextExtruder int) {
	for _, e := range m.Exporters {
		e.ExtruderChange(nextExtruder)
	}
}
