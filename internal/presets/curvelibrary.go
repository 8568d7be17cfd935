package presets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Curve names one reusable set of (x, y) points: a turbine efficiency curve,
// an overflow level-to-flow curve, or a reservoir level-to-volume curve,
// keyed by a manufacturer/model style name so a topology file can reference
// it instead of inlining the points every time the same hardware recurs
// across a river system.
type Curve struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	X           []float64 `json:"x"`
	Y           []float64 `json:"y"`
}

// CurveLibrary is a collection of named curves, serialized as a single JSON
// index, the same shape as Library but for curves instead of topologies.
type CurveLibrary struct {
	UpdatedAt string  `json:"updated_at"`
	Curves    []Curve `json:"curves"`
}

// LoadCurveLibrary reads a curve library from a JSON index file.
func LoadCurveLibrary(path string) (*CurveLibrary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("presets: read curve library %s: %w", path, err)
	}
	var lib CurveLibrary
	if err := json.Unmarshal(raw, &lib); err != nil {
		return nil, fmt.Errorf("presets: parse curve library %s: %w", path, err)
	}
	return &lib, nil
}

// SaveCurveLibrary writes a curve library to a JSON index file, creating its
// parent directory if needed.
func SaveCurveLibrary(lib *CurveLibrary, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("presets: create dir: %w", err)
	}
	raw, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return fmt.Errorf("presets: marshal curve library: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("presets: write curve library %s: %w", path, err)
	}
	return nil
}

// ByName returns the named curve's points, or false if the library has none
// by that name.
func (lib *CurveLibrary) ByName(name string) (Curve, bool) {
	for _, c := range lib.Curves {
		if c.Name == name {
			return c, true
		}
	}
	return Curve{}, false
}

// DefaultCurveLibraryPath resolves the curve library path: the
// CURVE_LIBRARY_FILE environment variable if set, otherwise
// ./examples/presets/curves.json.
func DefaultCurveLibraryPath() string {
	if path := os.Getenv("CURVE_LIBRARY_FILE"); path != "" {
		return path
	}
	return "./examples/presets/curves.json"
}
