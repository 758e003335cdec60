package dataset

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"
)

func TestGenerateShapes(t *testing.T) {
	cfg := DefaultGenerateConfig("burgers")
	cfg.Width = 32
	cfg.NumTrajectories = 2
	cfg.SamplesPerTrajectory = 5
	cfg.WarmupTime = 0.05
	cfg.SampleTime = 0.2

	snapshots, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Failed to generate snapshots: %v", err)
	}

	if got, want := len(snapshots), 10; got != want {
		t.Fatalf("Expected %d snapshots, got %d", want, got)
	}
	for i, snapshot := range snapshots {
		if len(snapshot) != cfg.Width {
			t.Fatalf("Expected width %d at snapshot %d, got %d", cfg.Width, i, len(snapshot))
		}
		for _, v := range snapshot {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("Expected finite snapshot values, got %v", v)
			}
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := DefaultGenerateConfig("burgers")
	cfg.Width = 32
	cfg.NumTrajectories = 1
	cfg.SamplesPerTrajectory = 3
	cfg.WarmupTime = 0
	cfg.SampleTime = 0.1

	first, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Failed to generate snapshots: %v", err)
	}
	second, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Failed to generate snapshots: %v", err)
	}

	for i := range first {
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Fatalf("Expected identical snapshots for the same seed at (%d,%d)", i, j)
			}
		}
	}
}

func TestGenerateUnknownEquation(t *testing.T) {
	cfg := DefaultGenerateConfig("advection")
	if _, err := Generate(cfg); err == nil {
		t.Error("Expected error for unknown equation")
	}
}

func TestCSVRoundTrip(t *testing.T) {
	snapshots := [][]float64{
		{1.0, 2.5, -3.25},
		{0.0, 1e-8, math.Pi},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, snapshots); err != nil {
		t.Fatalf("Failed to write CSV: %v", err)
	}

	loaded, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(loaded))
	}
	for i := range snapshots {
		for j := range snapshots[i] {
			if loaded[i][j] != snapshots[i][j] {
				t.Errorf("Expected %v at (%d,%d), got %v", snapshots[i][j], i, j, loaded[i][j])
			}
		}
	}
}

func TestCSVFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.csv")
	snapshots := [][]float64{{1, 2}, {3, 4}}

	if err := SaveCSV(path, snapshots); err != nil {
		t.Fatalf("Failed to save CSV: %v", err)
	}
	loaded, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}
	if len(loaded) != 2 || loaded[1][1] != 4 {
		t.Errorf("Expected saved snapshots back, got %v", loaded)
	}
}

func TestReadCSVRaggedRows(t *testing.T) {
	buf := bytes.NewBufferString("1,2,3\n4,5\n")
	if _, err := ReadCSV(buf); err == nil {
		t.Error("Expected error for ragged rows")
	}
}

func TestReadCSVEmpty(t *testing.T) {
	if _, err := ReadCSV(bytes.NewBufferString("")); err == nil {
		t.Error("Expected error for empty input")
	}
}
