package h5

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-doppler/phantom"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := phantom.DefaultFlowConfig()
	cfg.NumScatterers = 8
	cfg.NumControlPoints = 6
	want, err := phantom.GenerateFlow(cfg)
	if err != nil {
		t.Fatalf("GenerateFlow() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "flow.h5")
	if err := Save(path, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Degree != want.Degree || len(got.Knots) != len(want.Knots) {
		t.Fatalf("degree/knots = %d/%d, want %d/%d", got.Degree, len(got.Knots), want.Degree, len(want.Knots))
	}
	if got.NumScatterers() != want.NumScatterers() || got.NumControlPoints() != want.NumControlPoints() {
		t.Fatalf("shape = %dx%d", got.NumScatterers(), got.NumControlPoints())
	}

	// Stored as float32.
	const eps = 1e-6
	for i := range want.Nodes {
		for j := range want.Nodes[i] {
			w, g := want.Nodes[i][j], got.Nodes[i][j]
			if abs(w.X-g.X) > eps || abs(w.Y-g.Y) > eps || abs(w.Z-g.Z) > eps || abs(w.Amplitude-g.Amplitude) > eps*10 {
				t.Fatalf("node [%d][%d] = %+v, want %+v", i, j, g, w)
			}
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.h5")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "bad.h5"), &phantom.Spline{Degree: 1})
	if !errors.Is(err, phantom.ErrInvalidPhantom) {
		t.Fatalf("Save() error = %v, want ErrInvalidPhantom", err)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
