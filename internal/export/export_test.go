package export

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/sliceplan/internal/geometry"
)

func TestMultiExporterFansOutToAll(t *testing.T) {
	a := NewConsumptionEstimationExporter()
	b := NewConsumptionEstimationExporter()
	multi := &MultiExporter{Exporters: []Exporter{a, b}}

	multi.LayerStart(0, geometry.Point2{})
	multi.Extrusion(geometry.Point3{X: 1000}, 50, 0, 0.01, 400, 200, FeatureOuterWall, true)
	multi.Extrusion(geometry.Point3{X: 2000}, 50, 0, 0.01, 400, 200, FeatureOuterWall, true)
	multi.LayerEnd(0, 200, 200)

	assert.Equal(t, a.VolumeByExtruder[0], b.VolumeByExtruder[0])
	assert.Greater(t, float64(a.VolumeByExtruder[0]), 0.0)
}

func TestConsumptionEstimationIntegratesDistance(t *testing.T) {
	c := NewConsumptionEstimationExporter()
	c.Extrusion(geometry.Point3{}, 60, 1, 0.02, 400, 200, FeatureInfill, true)
	c.Extrusion(geometry.Point3{X: 10000}, 60, 1, 0.02, 400, 200, FeatureInfill, true) // 10mm

	require.InDelta(t, 0.2, float64(c.VolumeByExtruder[1]), 1e-9) // 10mm * 0.02 mm3/mm
	require.Greater(t, float64(c.DurationByFeature[FeatureInfill]), 0.0)
}

func TestReportExporterWritesPDF(t *testing.T) {
	r := NewReportExporter()
	r.LayerStart(0, geometry.Point2{})
	r.Extrusion(geometry.Point3{}, 50, 0, 0.01, 400, 200, FeatureOuterWall, true)
	r.Extrusion(geometry.Point3{X: 5000}, 50, 0, 0.01, 400, 200, FeatureOuterWall, true)
	r.LayerEnd(0, 200, 200)

	dir := t.TempDir()
	path := dir + "/report.pdf"
	require.NoError(t, r.WritePDF(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestConsoleExporterDoesNotPanic(t *testing.T) {
	c := NewConsoleExporter(nil)
	c.LayerStart(0, geometry.Point2{})
	c.Extrusion(geometry.Point3{X: 1}, 1, 0, 1, 1, 1, FeatureSkin, false)
	c.Travel(geometry.Point3{X: 2}, 1, FeatureTravel)
	c.ExtruderChange(1)
	c.LayerEnd(0, 1, 1)
}
