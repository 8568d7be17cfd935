package presets

import (
	"path/filepath"
	"testing"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	lib := &Library{
		UpdatedAt: "2026-01-01T00:00:00Z",
		Presets: []Preset{
			{Name: "basin-a", Description: "single reservoir basin", TopologyFile: "a.txt", DTSeconds: 3600},
		},
	}
	path := filepath.Join(t.TempDir(), "nested", "presets.json")
	if err := Save(lib, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Presets) != 1 || got.Presets[0].Name != "basin-a" {
		t.Errorf("expected round-tripped preset basin-a, got %v", got.Presets)
	}
}

func TestByNameFindsAndMisses(t *testing.T) {
	lib := &Library{Presets: []Preset{{Name: "one"}, {Name: "two"}}}
	if _, ok := lib.ByName("two"); !ok {
		t.Error("expected to find preset \"two\"")
	}
	if _, ok := lib.ByName("missing"); ok {
		t.Error("expected ByName to report false for an unknown name")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected an error loading a nonexistent preset library")
	}
}

func TestDefaultPathHonoursEnvOverride(t *testing.T) {
	t.Setenv("PRESETS_FILE", "/custom/path.json")
	if got := DefaultPath(); got != "/custom/path.json" {
		t.Errorf("expected env override, got %q", got)
	}
}

func TestDefaultPathFallsBackWhenUnset(t *testing.T) {
	t.Setenv("PRESETS_FILE", "")
	if got := DefaultPath(); got != "./examples/presets/presets.json" {
		t.Errorf("expected the default path, got %q", got)
	}
}
