// Package settings provides the closed-enumeration "settings consumer"
// contract of spec.md §6: the scheduling core reads configuration by
// name string, with the exact list of names owned by the caller rather
// than standardised here. Grounded on the teacher's
// internal/model.AppConfig / internal/project.Profiles JSON-tagged
// defaults-object pattern.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
)

// Reader is the narrow interface every component in this module depends
// on for configuration, matching spec.md §6's "Settings consumer"
// contract exactly: GetFloat/GetInt/GetBool/GetString by name.
type Reader interface {
	GetFloat(name string) (float64, bool)
	GetInt(name string) (int, bool)
	GetBool(name string) (bool, bool)
	GetString(name string) (string, bool)
}

// Map is an in-memory Reader backed by a flat string-keyed map, used by
// tests and the demo CLI. Values are stored as-is and converted on read;
// a value of the wrong underlying type is reported as "not found" rather
// than panicking.
type Map map[string]any

func (m Map) GetFloat(name string) (float64, bool) {
	switch v := m[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func (m Map) GetInt(name string) (int, bool) {
	switch v := m[name].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func (m Map) GetBool(name string) (bool, bool) {
	v, ok := m[name].(bool)
	return v, ok
}

func (m Map) GetString(name string) (string, bool) {
	v, ok := m[name].(string)
	return v, ok
}

// LoadMapFromJSON reads a flat JSON object from path into a Map, the
// file-backed counterpart to the teacher's internal/project.Profiles
// JSON persistence.
func LoadMapFromJSON(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	return m, nil
}

// FloatOr returns r.GetFloat(name), falling back to def when absent.
func FloatOr(r Reader, name string, def float64) float64 {
	if v, ok := r.GetFloat(name); ok {
		return v
	}
	return def
}

// IntOr returns r.GetInt(name), falling back to def when absent.
func IntOr(r Reader, name string, def int) int {
	if v, ok := r.GetInt(name); ok {
		return v
	}
	return def
}

// BoolOr returns r.GetBool(name), falling back to def when absent.
func BoolOr(r Reader, name string, def bool) bool {
	if v, ok := r.GetBool(name); ok {
		return v
	}
	return def
}

// StringOr returns r.GetString(name), falling back to def when absent.
func StringOr(r Reader, name string, def string) string {
	if v, ok := r.GetString(name); ok {
		return v
	}
	return def
}
