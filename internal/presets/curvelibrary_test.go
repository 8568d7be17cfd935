package presets

import (
	"path/filepath"
	"testing"
)

func TestCurveLibrarySaveAndLoadRoundTrip(t *testing.T) {
	lib := &CurveLibrary{
		UpdatedAt: "2026-01-01T00:00:00Z",
		Curves: []Curve{
			{Name: "francis-small", Description: "small Francis turbine", X: []float64{0, 50, 100}, Y: []float64{0, 90, 95}},
		},
	}
	path := filepath.Join(t.TempDir(), "nested", "curves.json")
	if err := SaveCurveLibrary(lib, path); err != nil {
		t.Fatalf("SaveCurveLibrary: %v", err)
	}
	got, err := LoadCurveLibrary(path)
	if err != nil {
		t.Fatalf("LoadCurveLibrary: %v", err)
	}
	if len(got.Curves) != 1 || got.Curves[0].Name != "francis-small" {
		t.Errorf("expected round-tripped curve francis-small, got %v", got.Curves)
	}
	if len(got.Curves[0].X) != 3 || got.Curves[0].Y[1] != 90 {
		t.Errorf("unexpected curve points: %v", got.Curves[0])
	}
}

func TestCurveLibraryByNameFindsAndMisses(t *testing.T) {
	lib := &CurveLibrary{Curves: []Curve{{Name: "one"}, {Name: "two"}}}
	if _, ok := lib.ByName("two"); !ok {
		t.Error("expected to find curve \"two\"")
	}
	if _, ok := lib.ByName("missing"); ok {
		t.Error("expected ByName to report false for an unknown name")
	}
}

func TestLoadCurveLibraryRejectsMissingFile(t *testing.T) {
	if _, err := LoadCurveLibrary(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected an error loading a nonexistent curve library")
	}
}

func TestDefaultCurveLibraryPathHonoursEnvOverride(t *testing.T) {
	t.Setenv("CURVE_LIBRARY_FILE", "/custom/curves.json")
	if got := DefaultCurveLibraryPath(); got != "/custom/curves.json" {
		t.Errorf("expected env override, got %q", got)
	}
}

func TestDefaultCurveLibraryPathFallsBackWhenUnset(t *testing.T) {
	t.Setenv("CURVE_LIBRARY_FILE", "")
	if got := DefaultCurveLibraryPath(); got != "./examples/presets/curves.json" {
		t.Errorf("expected the default path, got %q", got)
	}
}
