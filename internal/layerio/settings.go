package layerio

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/sliceplan/internal/settings"
)

var meshColumnAliases = []string{"mesh", "mesh_id", "mesh id", "part", "part name"}

func isMeshColumn(header string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, alias := range meshColumnAliases {
		if h == alias {
			return true
		}
	}
	return false
}

// LoadMeshSettingsOverrides reads the first sheet of a spreadsheet whose
// header row names one mesh-identifying column (mesh/mesh_id/part) and
// any number of setting-name columns (wall_line_width_0,
// infill_line_distance, z_seam_type, …), and returns one settings.Map
// per mesh. Grounded on the teacher's internal/importer.go header-alias
// detection and row parsing, adapted from "part list columns" (width,
// height, quantity) to an open-ended set of setting-name columns —
// settings is a closed enumeration owned by the caller (settings.Reader's
// contract), not by this loader, so every non-mesh header becomes a
// setting key verbatim rather than being matched against a fixed alias
// table.
func LoadMeshSettingsOverrides(path string) (map[string]settings.Map, []Diagnostic) {
	var diags []Diagnostic
	out := make(map[string]settings.Map)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return out, append(diags, errorDiag("cannot open settings file: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return out, append(diags, errorDiag("settings file has no sheets"))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return out, append(diags, errorDiag("cannot read settings sheet: %v", err))
	}
	if len(rows) < 2 {
		return out, append(diags, errorDiag("settings sheet has no data rows"))
	}

	header := rows[0]
	meshCol := -1
	settingCols := make(map[int]string)
	for i, h := range header {
		if isMeshColumn(h) {
			meshCol = i
			continue
		}
		name := strings.TrimSpace(h)
		if name != "" {
			settingCols[i] = name
		}
	}
	if meshCol == -1 {
		return out, append(diags, errorDiag("no mesh-identifying column found in header row"))
	}

	for lineNum, row := range rows[1:] {
		if len(row) <= meshCol || strings.TrimSpace(row[meshCol]) == "" {
			diags = append(diags, warningDiag("row %d has no mesh identifier, skipped", lineNum+2))
			continue
		}
		mesh := strings.TrimSpace(row[meshCol])
		m := settings.Map{}
		for col, name := range settingCols {
			if col >= len(row) {
				continue
			}
			m[name] = parseCell(row[col])
		}
		out[mesh] = m
	}

	return out, diags
}

func parseCell(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
