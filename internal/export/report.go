package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/sliceplan/internal/geometry"
)

// Page layout constants (A4 portrait in mm), grounded on the teacher's
// internal/export/pdf.go sheet-page constants, repurposed from one page
// per cut sheet to one page per layer.
const (
	reportPageWidth   = 210.0
	reportPageHeight  = 297.0
	reportMarginLeft  = 15.0
	reportMarginRight = 15.0
	reportMarginTop   = 15.0
	reportHeaderH     = 12.0
	reportQRSize      = 24.0
)

// layerRecord accumulates everything ReportExporter needs to render one
// layer's page, built up as Exporter events stream through.
type layerRecord struct {
	index             int
	z, thickness      geometry.Micron
	startPosition     geometry.Point2
	featureCounts     map[PrintFeatureType]int
	extrusionLengthMM float64
	lastPos           geometry.Point3
	havePos           bool
}

// reportQRPayload is the small metadata tuple encoded into each layer
// page's QR code, for build-log traceability — the same "encode small
// metadata as QR" idiom as the teacher's LabelInfo.
type reportQRPayload struct {
	Layer    int     `json:"layer"`
	ZMM      float64 `json:"z_mm"`
	Features int     `json:"features"`
}

// ReportExporter is an Exporter (spec.md §4.K) that renders a
// one-page-per-layer PDF summary: feature counts, extrusion length and a
// traceability QR code. A debug/QA sink, grounded on
// internal/export/pdf.go + labels.go.
type ReportExporter struct {
	mu      sync.Mutex
	layers  []*layerRecord
	current *layerRecord
}

// NewReportExporter returns a ready-to-use report accumulator.
func NewReportExporter() *ReportExporter { return &ReportExporter{} }

func (r *ReportExporter) LayerStart(layerIndex int, startPosition geometry.Point2) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = &layerRecord{
		index:         layerIndex,
		startPosition: startPosition,
		featureCounts: make(map[PrintFeatureType]int),
	}
}

func (r *ReportExporter) LayerEnd(layerIndex int, z, thickness geometry.Micron) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		r.current = &layerRecord{index: layerIndex, featureCounts: make(map[PrintFeatureType]int)}
	}
	r.current.z = z
	r.current.thickness = thickness
	r.layers = append(r.layers, r.current)
	r.current = nil
}

func (r *ReportExporter) Travel(position geometry.Point3, speed geometry.Velocity, featureType PrintFeatureType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return
	}
	r.current.lastPos, r.current.havePos = position, true
}

func (r *ReportExporter) Extrusion(position geometry.Point3, speed geometry.Velocity, extruderNumber int, mm3PerMM geometry.Ratio, lineWidth, lineThickness geometry.Micron, featureType PrintFeatureType, updateOffset bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return
	}
	r.current.featureCounts[featureType]++
	if r.current.havePos {
		a, b := r.current.lastPos.ToMM(), position.ToMM()
		r.current.extrusionLengthMM += math.Sqrt(a.Dist2(b))
	}
	r.current.lastPos, r.current.havePos = position, true
}

func (r *ReportExporter) ExtruderChange(nextExtruder int) {}

// WritePDF renders the accumulated layers to path, one page per layer.
func (r *ReportExporter) WritePDF(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.layers) == 0 {
		return fmt.Errorf("export: no layers recorded")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, reportMarginTop)
	for _, l := range r.layers {
		pdf.AddPage()
		if err := renderLayerPage(pdf, l); err != nil {
			return fmt.Errorf("export: render layer %d: %w", l.index, err)
		}
	}
	return pdf.OutputFileAndClose(path)
}

func renderLayerPage(pdf *fpdf.Fpdf, l *layerRecord) error {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(reportMarginLeft, reportMarginTop)
	title := fmt.Sprintf("Layer %d  (z=%.3f mm)", l.index, float64(l.z)/geometry.MicronsPerMM)
	pdf.CellFormat(reportPageWidth-reportMarginLeft-reportMarginRight, reportHeaderH, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(reportMarginLeft, reportMarginTop+reportHeaderH)
	stats := fmt.Sprintf("thickness: %.3f mm | extrusion length: %.1f mm | start: (%d, %d)",
		float64(l.thickness)/geometry.MicronsPerMM, l.extrusionLengthMM, l.startPosition.X, l.startPosition.Y)
	pdf.CellFormat(reportPageWidth-reportMarginLeft-reportMarginRight, 6, stats, "", 1, "L", false, 0, "")

	y := reportMarginTop + reportHeaderH + 10
	totalFeatures := 0
	for ft := FeatureOuterWall; ft <= FeaturePrimeTower; ft++ {
		if n, ok := l.featureCounts[ft]; ok && n > 0 {
			pdf.SetXY(reportMarginLeft, y)
			pdf.CellFormat(80, 5, fmt.Sprintf("%s: %d extrusion moves", ft, n), "", 1, "L", false, 0, "")
			y += 5
			totalFeatures += n
		}
	}

	payload, err := json.Marshal(reportQRPayload{Layer: l.index, ZMM: float64(l.z) / geometry.MicronsPerMM, Features: totalFeatures})
	if err != nil {
		return fmt.Errorf("marshal qr payload: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("generate qr: %w", err)
	}
	imgName := fmt.Sprintf("qr_layer_%d", l.index)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))
	qrX := reportPageWidth - reportMarginRight - reportQRSize
	pdf.ImageOptions(imgName, qrX, reportMarginTop, reportQRSize, reportQRSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	return nil
}
