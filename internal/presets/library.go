// Package presets catalogues bundled river-system topologies the same way
// the original battery backtester catalogued Grid Status market locations:
// a JSON index file listing named, reusable definitions so callers (the
// CLI, the API's /presets endpoint) can reference one by name instead of
// pointing at a topology file path directly.
package presets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Preset names one bundled topology and the input files it pairs with.
type Preset struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	TopologyFile   string `json:"topology_file"`
	PriceFile      string `json:"price_file"`
	InflowFile     string `json:"inflow_file"`
	ActionFile     string `json:"action_file"`
	DTSeconds      int    `json:"dt_seconds"`
}

// Library is a collection of presets, serialized as a single JSON index.
type Library struct {
	UpdatedAt string   `json:"updated_at"`
	Presets   []Preset `json:"presets"`
}

// Load reads a preset library from a JSON index file.
func Load(path string) (*Library, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("presets: read %s: %w", path, err)
	}
	var lib Library
	if err := json.Unmarshal(raw, &lib); err != nil {
		return nil, fmt.Errorf("presets: parse %s: %w", path, err)
	}
	return &lib, nil
}

// Save writes a preset library to a JSON index file, creating its parent
// directory if needed.
func Save(lib *Library, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("presets: create dir: %w", err)
	}
	raw, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return fmt.Errorf("presets: marshal: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("presets: write %s: %w", path, err)
	}
	return nil
}

// ByName returns the named preset, or false if the library has none by
// that name.
func (lib *Library) ByName(name string) (Preset, bool) {
	for _, p := range lib.Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// DefaultPath resolves the preset library path: the PRESETS_FILE
// environment variable if set, otherwise ./examples/presets/presets.json.
func DefaultPath() string {
	if path := os.Getenv("PRESETS_FILE"); path != "" {
		return path
	}
	return "./examples/presets/presets.json"
}
