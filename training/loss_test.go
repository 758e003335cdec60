package training

import (
	"math"
	"testing"

	"github.com/brucejunlee/data-driven-discretization-1d/field"
	"github.com/brucejunlee/data-driven-discretization-1d/model"
)

func sineSnapshots(batch, width int) field.Field {
	f := field.New(batch, width)
	for b := 0; b < batch; b++ {
		phase := float64(b) * 0.7
		for i := 0; i < width; i++ {
			x := 2 * math.Pi * float64(i) / float64(width)
			f[b][i] = math.Sin(x+phase) + 0.3*math.Sin(2*x)
		}
	}
	return f
}

func TestLossComponents(t *testing.T) {
	predictions := [][][]float64{{{1.0}, {2.0}}}
	labels := [][][]float64{{{2.0}, {2.0}}}
	baseline := [][][]float64{{{0.0}, {1.0}}}
	floor := []float64{0.5}

	modelError, relativeError := LossComponents(predictions, labels, baseline, floor)

	if got := modelError[0][0][0]; got != 1.0 {
		t.Errorf("Expected model error 1.0, got %v", got)
	}
	if got := modelError[0][1][0]; got != 0.0 {
		t.Errorf("Expected model error 0.0, got %v", got)
	}
	// (2-1)^2 / ((2-0)^2 + 0.5) = 1/4.5
	if got, want := relativeError[0][0][0], 1.0/4.5; math.Abs(got-want) > 1e-12 {
		t.Errorf("Expected relative error %v, got %v", want, got)
	}
	// Exact prediction has zero relative error even with an exact baseline.
	if got := relativeError[0][1][0]; got != 0.0 {
		t.Errorf("Expected relative error 0.0, got %v", got)
	}
}

func TestDetermineLossScalesZeroPredictorScoresOne(t *testing.T) {
	cfg := DefaultConfig("burgers")
	snapshots := sineSnapshots(4, 64)

	scales, err := DetermineLossScales(snapshots, cfg)
	if err != nil {
		t.Fatalf("Failed to determine loss scales: %v", err)
	}

	samples, err := model.PrepareSamples(snapshots, cfg.Config)
	if err != nil {
		t.Fatalf("Failed to prepare samples: %v", err)
	}

	zero := make([][][]float64, len(samples.Labels))
	for b := range samples.Labels {
		rows := make([][]float64, len(samples.Labels[b]))
		for i := range samples.Labels[b] {
			rows[i] = make([]float64, len(samples.Labels[b][i]))
		}
		zero[b] = rows
	}

	loss := Loss(zero, samples.Labels, samples.Baseline, scales, cfg)
	if math.Abs(loss-1.0) > 1e-9 {
		t.Errorf("Expected zero predictor to score 1.0 on calibration data, got %v", loss)
	}
}

func TestDetermineLossScalesFloorAndDegenerateChannels(t *testing.T) {
	// Channel 0: baseline exact and labels all zero. Channel 1: real errors.
	labels := [][][]float64{{{0.0, 1.0}, {0.0, 2.0}, {0.0, 3.0}}}
	baseline := [][][]float64{{{0.0, 0.5}, {0.0, 1.0}, {0.0, 2.0}}}
	samples := &model.Samples{Labels: labels, Baseline: baseline}

	cfg := DefaultConfig("burgers")
	scales, err := determineLossScales(samples, cfg)
	if err != nil {
		t.Fatalf("Failed to determine loss scales: %v", err)
	}

	if got := scales.ErrorFloor[0]; got != minErrorFloor {
		t.Errorf("Expected floor %v on exact-baseline channel, got %v", minErrorFloor, got)
	}
	if got := scales.ErrorFloor[1]; got <= minErrorFloor {
		t.Errorf("Expected floor above minimum on channel 1, got %v", got)
	}
	// All-zero labels mean the zero predictor is exact, so the scale must be
	// zero rather than infinite.
	if got := scales.ErrorScale[0][0]; got != 0.0 {
		t.Errorf("Expected zero absolute scale on degenerate channel, got %v", got)
	}
	if got := scales.ErrorScale[0][1]; got <= 0.0 {
		t.Errorf("Expected positive absolute scale on channel 1, got %v", got)
	}
}

func TestDetermineLossScalesEmptyDataset(t *testing.T) {
	samples := &model.Samples{}
	if _, err := determineLossScales(samples, DefaultConfig("burgers")); err == nil {
		t.Error("Expected error for empty calibration dataset")
	}
}

func TestBatchSize(t *testing.T) {
	cfg := DefaultConfig("burgers")
	if got, want := cfg.BatchSize(), 128*4; got != want {
		t.Errorf("Expected batch size %d, got %d", want, got)
	}
}

func TestSplitSnapshots(t *testing.T) {
	cfg := DefaultConfig("burgers")
	snapshots := make([][]float64, 10)
	training, validation := cfg.SplitSnapshots(snapshots)
	if len(training) != 8 || len(validation) != 2 {
		t.Errorf("Expected 8/2 split, got %d/%d", len(training), len(validation))
	}
}
