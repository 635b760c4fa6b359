// sliceplan — toolpath-scheduling demo CLI.
//
// Loads one mesh's layer outline from a DXF file (plus optional
// per-mesh settings overrides from a spreadsheet), runs the feature
// generators, schedules every extruder plan, inserts travel moves and
// extruder changes, then streams the resulting layer plan through a
// console exporter and, optionally, a PDF report.
//
// Build:
//
//	go build -o sliceplan ./cmd/sliceplan
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/google/uuid"

	"github.com/piwi3910/sliceplan/internal/cliplib"
	"github.com/piwi3910/sliceplan/internal/constraints"
	"github.com/piwi3910/sliceplan/internal/export"
	"github.com/piwi3910/sliceplan/internal/feature"
	"github.com/piwi3910/sliceplan/internal/geometry"
	"github.com/piwi3910/sliceplan/internal/layerio"
	"github.com/piwi3910/sliceplan/internal/planop"
	"github.com/piwi3910/sliceplan/internal/schedule"
	"github.com/piwi3910/sliceplan/internal/settings"
	"github.com/piwi3910/sliceplan/internal/travel"
)

func defaultSettings() settings.Map {
	return settings.Map{
		"wall_line_count":        2,
		"wall_line_width_0":      0.4,
		"wall_line_width_x":      0.4,
		"wall_0_extruder_nr":     0,
		"wall_x_extruder_nr":     0,
		"infill_line_distance":   2.5,
		"infill_extruder_nr":     0,
		"infill_angle":           45.0,
		"skin_line_width":        0.4,
		"skin_extruder_nr":       0,
		"skin_line_distance":     0.4,
		"skin_angle":             0.0,
		"skin_monotonic":         true,
		"top_layers":             3,
		"bottom_layers":          3,
		"skirt_line_count":       2,
		"skirt_brim_extruder_nr": 0,
		"skirt_brim_line_width":  0.4,
		"skirt_gap":              3.0,
		"z_seam_type":            "shortest",
		"gradual_flow_enabled":   true,
		"gradual_flow_window":    1.5,
		"gradual_flow_start":     0.3,
		"gradual_flow_end":       0.3,
	}
}

func mergeSettings(base settings.Map, overrides settings.Map) settings.Map {
	merged := make(settings.Map, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

func main() {
	dxfPath := flag.String("dxf", "", "path to a DXF file describing one mesh's layer outline (required)")
	meshName := flag.String("mesh", "mesh", "mesh identifier used to look up per-mesh settings overrides")
	settingsPath := flag.String("settings", "", "optional spreadsheet of per-mesh settings overrides")
	layerHeightMM := flag.Float64("layer-height", 0.2, "layer thickness in mm")
	zMM := flag.Float64("z", 0.2, "absolute Z height of this layer in mm")
	reportPath := flag.String("report", "", "optional PDF report output path")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *dxfPath == "" {
		logger.Error("missing required -dxf flag")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(logger, *dxfPath, *meshName, *settingsPath, *layerHeightMM, *zMM, *reportPath); err != nil {
		logger.Error("sliceplan failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, dxfPath, meshName, settingsPath string, layerHeightMM, zMM float64, reportPath string) error {
	part, diags := layerio.LoadLayerDXF(dxfPath)
	for _, d := range diags {
		logger.Warn("dxf load diagnostic", "severity", d.Severity, "message", d.Message)
	}
	if len(part.Outer) == 0 {
		return fmt.Errorf("no outline loaded from %s", dxfPath)
	}

	overrides := settings.Map{}
	if settingsPath != "" {
		byMesh, diags := layerio.LoadMeshSettingsOverrides(settingsPath)
		for _, d := range diags {
			logger.Warn("settings load diagnostic", "severity", d.Severity, "message", d.Message)
		}
		if m, ok := byMesh[meshName]; ok {
			overrides = m
		}
	}
	part.Settings = mergeSettings(defaultSettings(), overrides)

	geomOps := cliplib.New()

	storage := planop.NewPathConfigStorage()
	storage.Set(export.FeatureOuterWall, planop.PathConfig{LineWidth: geometry.Micron(0.4 * geometry.MicronsPerMM), Speed: 40})
	storage.Set(export.FeatureInnerWall, planop.PathConfig{LineWidth: geometry.Micron(0.4 * geometry.MicronsPerMM), Speed: 60})
	storage.Set(export.FeatureInfill, planop.PathConfig{LineWidth: geometry.Micron(0.4 * geometry.MicronsPerMM), Speed: 80})
	storage.Set(export.FeatureSkin, planop.PathConfig{LineWidth: geometry.Micron(0.4 * geometry.MicronsPerMM), Speed: 30})
	storage.Set(export.FeatureSkirtBrim, planop.PathConfig{LineWidth: geometry.Micron(0.4 * geometry.MicronsPerMM), Speed: 30})

	layer := planop.NewLayerPlan(0, geometry.Micron(zMM*geometry.MicronsPerMM), geometry.Micron(layerHeightMM*geometry.MicronsPerMM), storage)
	extruderPlans := make(map[int]*planop.ExtruderPlan)

	generators := []feature.Generator{
		&feature.SkirtBrimGenerator{Geometry: geomOps},
		&feature.MeshInsetsGenerator{Walls: offsetWalls{Geometry: geomOps}},
		&feature.MeshInfillGenerator{Pattern: zigzagFill{}},
		&feature.MeshSkinGenerator{Pattern: zigzagFill{}},
	}

	ctx := context.Background()
	for _, gen := range generators {
		if !gen.IsActive(part.Settings) {
			continue
		}
		if err := gen.PreCalculate(ctx); err != nil {
			return fmt.Errorf("precalculate: %w", err)
		}
		if err := gen.Generate(storage, layer, extruderPlans, part); err != nil {
			return fmt.Errorf("generate: %w", err)
		}
	}

	if err := feature.AssertOutermost(layer); err != nil {
		logger.Warn("skirt/brim containment violated", "error", err)
	}

	rng := rand.New(rand.NewSource(1))
	featureGens := []constraints.FeatureConstraintGenerator{
		constraints.BedAdhesionConstraints{},
		constraints.MeshFeatureConstraints{
			InfillBeforeWalls:       func(uuid.UUID) bool { return false },
			InsetDirectionInsideOut: func(uuid.UUID) bool { return true },
		},
	}
	seqGens := []constraints.SequenceConstraintGenerator{
		constraints.MonotonicConstraints{
			Enabled:   func(f *planop.FeatureExtrusion) bool { return f.Monotonic },
			Direction: func(f *planop.FeatureExtrusion) geometry.AngleRadians { return f.MonotonicDirection },
		},
	}

	scheduler := &schedule.ExtruderPlanScheduler{
		FeatureGenerators:  featureGens,
		SequenceGenerators: seqGens,
		Exclusion:          noExclusion{},
		RNG:                rng,
		Logger:             logger,
	}
	nozzle := geometry.Point2{}
	for _, ep := range layer.ExtruderPlans() {
		var err error
		nozzle, err = scheduler.Schedule(ep, nozzle)
		if err != nil {
			return fmt.Errorf("schedule extruder plan %d: %w", ep.ExtruderNumber, err)
		}
	}

	plan := planop.NewPrintPlan()
	if err := plan.Append(layer); err != nil {
		return fmt.Errorf("append layer: %w", err)
	}

	if enabled, _ := part.Settings.GetBool("gradual_flow_enabled"); enabled {
		windowMM := settings.FloatOr(part.Settings, "gradual_flow_window", 1.5)
		startRatio := settings.FloatOr(part.Settings, "gradual_flow_start", 0.3)
		endRatio := settings.FloatOr(part.Settings, "gradual_flow_end", 0.3)
		window := geometry.Micron(windowMM * geometry.MicronsPerMM)
		planop.ApplyProcessorsRecursively(layer, func(seq *planop.ContinuousExtruderMoveSequence) {
			planop.ApplyGradualFlow(seq, window, geometry.Ratio(startRatio), geometry.Ratio(endRatio))
		})
	}

	travelGen := &travel.DirectTravelGenerator{
		Default: travel.ExtruderSpeedProfile{V0: 60, V1: 150, InitialSpeedupLayerCount: 4},
	}
	travel.InsertTravelMoves(plan, travelGen)
	travel.InsertExtruderChanges(plan)

	exporters := []export.Exporter{export.NewConsoleExporter(logger)}
	var report *export.ReportExporter
	if reportPath != "" {
		report = export.NewReportExporter()
		exporters = append(exporters, report)
	}
	sink := &export.MultiExporter{Exporters: exporters}
	if err := plan.Write(sink); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}

	if report != nil {
		if err := report.WritePDF(reportPath); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Info("wrote report", "path", reportPath)
	}

	return nil
}
