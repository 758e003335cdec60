package training

import (
	"math"
	"testing"

	"github.com/brucejunlee/data-driven-discretization-1d/model"
)

func quadratic(x []float64) float64 {
	return (x[0]-1)*(x[0]-1) + (x[1]+2)*(x[1]+2)
}

func TestNelderMeadQuadratic(t *testing.T) {
	opts := &FitOptions{MaxIters: 2000, Tolerance: 1e-10}
	params, loss, _, converged := nelderMead(quadratic, []float64{0, 0}, opts)

	if !converged {
		t.Error("Expected Nelder-Mead to converge on a quadratic")
	}
	if loss > 1e-6 {
		t.Errorf("Expected near-zero loss, got %v", loss)
	}
	if math.Abs(params[0]-1) > 1e-3 || math.Abs(params[1]+2) > 1e-3 {
		t.Errorf("Expected minimum near (1, -2), got %v", params)
	}
}

func TestCoordinateDescentQuadratic(t *testing.T) {
	opts := &FitOptions{MaxIters: 5000, Tolerance: 1e-10, StepSize: 0.5}
	params, loss, _, _ := coordinateDescent(quadratic, []float64{0, 0}, opts)

	if loss > 1e-4 {
		t.Errorf("Expected near-zero loss, got %v", loss)
	}
	if math.Abs(params[0]-1) > 1e-2 || math.Abs(params[1]+2) > 1e-2 {
		t.Errorf("Expected minimum near (1, -2), got %v", params)
	}
}

func TestSortSimplex(t *testing.T) {
	simplex := [][]float64{{3}, {1}, {2}}
	values := []float64{3.0, 1.0, 2.0}
	sortSimplex(simplex, values)

	if values[0] != 1.0 || values[1] != 2.0 || values[2] != 3.0 {
		t.Errorf("Expected sorted values [1 2 3], got %v", values)
	}
	if simplex[0][0] != 1.0 {
		t.Errorf("Expected best point to move with its value, got %v", simplex[0])
	}
}

func TestFitReducesLoss(t *testing.T) {
	cfg := DefaultConfig("burgers")
	cfg.NumLayers = 1
	cfg.FilterSize = 2
	snapshots := sineSnapshots(2, 64)

	samples, err := model.PrepareSamples(snapshots, cfg.Config)
	if err != nil {
		t.Fatalf("Failed to prepare samples: %v", err)
	}
	scales, err := determineLossScales(samples, cfg)
	if err != nil {
		t.Fatalf("Failed to determine loss scales: %v", err)
	}

	m, err := model.New(cfg.Config, samples.Inputs.Width())
	if err != nil {
		t.Fatalf("Failed to build model: %v", err)
	}

	opts := &FitOptions{MaxIters: 3, Tolerance: 1e-12, Method: "coordinate-descent", StepSize: 0.01}
	result, err := Fit(m, samples, scales, cfg, opts)
	if err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	if result.FinalLoss > result.InitialLoss {
		t.Errorf("Expected loss to not increase, got %v -> %v", result.InitialLoss, result.FinalLoss)
	}
	if len(result.Params) != m.NumParams() {
		t.Errorf("Expected %d parameters, got %d", m.NumParams(), len(result.Params))
	}
}

func TestFitUnknownMethod(t *testing.T) {
	cfg := DefaultConfig("burgers")
	cfg.NumLayers = 0
	snapshots := sineSnapshots(1, 64)

	samples, err := model.PrepareSamples(snapshots, cfg.Config)
	if err != nil {
		t.Fatalf("Failed to prepare samples: %v", err)
	}
	scales, err := determineLossScales(samples, cfg)
	if err != nil {
		t.Fatalf("Failed to determine loss scales: %v", err)
	}
	m, err := model.New(cfg.Config, samples.Inputs.Width())
	if err != nil {
		t.Fatalf("Failed to build model: %v", err)
	}

	opts := &FitOptions{MaxIters: 1, Method: "gradient-descent"}
	if _, err := Fit(m, samples, scales, cfg, opts); err == nil {
		t.Error("Expected error for unknown optimization method")
	}
}
