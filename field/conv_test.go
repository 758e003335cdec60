package field

import (
	"math"
	"testing"
)

func TestConv1DPeriodicIdentityKernel(t *testing.T) {
	conv, err := NewConv1DPeriodic(3, 1, 1, false)
	if err != nil {
		t.Fatalf("NewConv1DPeriodic failed: %v", err)
	}
	// Kernel [0, 1, 0], zero bias: the identity.
	conv.SetParams([]float64{0, 1, 0, 0})

	x := [][][]float64{{{1}, {2}, {3}, {4}}}
	out := conv.Forward(x)
	for i := range x[0] {
		if out[0][i][0] != x[0][i][0] {
			t.Errorf("Expected identity at %d, got %v", i, out[0][i][0])
		}
	}
}

func TestConv1DPeriodicWrapsBoundary(t *testing.T) {
	conv, err := NewConv1DPeriodic(3, 1, 1, false)
	if err != nil {
		t.Fatalf("NewConv1DPeriodic failed: %v", err)
	}
	// Central difference kernel [-1, 0, 1].
	conv.SetParams([]float64{-1, 0, 1, 0})

	x := [][][]float64{{{1}, {2}, {3}, {4}}}
	out := conv.Forward(x)

	// At position 0 the left neighbor wraps to the last point.
	expected := []float64{2 - 4, 3 - 1, 4 - 2, 1 - 3}
	for i, want := range expected {
		if math.Abs(out[0][i][0]-want) > 1e-12 {
			t.Errorf("Expected out[%d] = %v, got %v", i, want, out[0][i][0])
		}
	}
}

func TestConv1DPeriodicReLU(t *testing.T) {
	conv, err := NewConv1DPeriodic(1, 1, 1, true)
	if err != nil {
		t.Fatalf("NewConv1DPeriodic failed: %v", err)
	}
	conv.SetParams([]float64{1, 0})

	x := [][][]float64{{{-2}, {3}}}
	out := conv.Forward(x)
	if out[0][0][0] != 0 {
		t.Errorf("Expected ReLU to clamp -2 to 0, got %v", out[0][0][0])
	}
	if out[0][1][0] != 3 {
		t.Errorf("Expected ReLU to pass 3, got %v", out[0][1][0])
	}
}

func TestConv1DPeriodicParamRoundTrip(t *testing.T) {
	conv, err := NewConv1DPeriodic(3, 2, 4, false)
	if err != nil {
		t.Fatalf("NewConv1DPeriodic failed: %v", err)
	}
	if conv.NumParams() != 3*2*4+4 {
		t.Errorf("Expected %d params, got %d", 3*2*4+4, conv.NumParams())
	}

	params := make([]float64, conv.NumParams())
	for i := range params {
		params[i] = float64(i) * 0.1
	}
	conv.SetParams(params)
	got := conv.GetParams()
	for i := range params {
		if got[i] != params[i] {
			t.Errorf("Expected param[%d] = %v, got %v", i, params[i], got[i])
		}
	}
}

func TestBatchNormTrainingNormalizes(t *testing.T) {
	bn, err := NewBatchNorm(1)
	if err != nil {
		t.Fatalf("NewBatchNorm failed: %v", err)
	}

	x := [][][]float64{{{10}, {12}, {14}, {16}}}
	out := bn.Forward(x, true)

	mean := 0.0
	for i := range out[0] {
		mean += out[0][i][0]
	}
	mean /= 4
	if math.Abs(mean) > 1e-9 {
		t.Errorf("Expected normalized mean near 0, got %v", mean)
	}

	variance := 0.0
	for i := range out[0] {
		variance += out[0][i][0] * out[0][i][0]
	}
	variance /= 4
	if math.Abs(variance-1) > 0.25 {
		t.Errorf("Expected normalized variance near 1, got %v", variance)
	}
}

func TestBatchNormInferenceUsesFrozenStats(t *testing.T) {
	bn, err := NewBatchNorm(1)
	if err != nil {
		t.Fatalf("NewBatchNorm failed: %v", err)
	}

	// With fresh running stats (mean 0, var 1) inference is nearly the
	// identity regardless of the batch.
	x := [][][]float64{{{5}, {-5}}}
	out := bn.Forward(x, false)
	for i := range x[0] {
		want := x[0][i][0] / math.Sqrt(1+1e-3)
		if math.Abs(out[0][i][0]-want) > 1e-9 {
			t.Errorf("Expected frozen-stat output %v at %d, got %v", want, i, out[0][i][0])
		}
	}
}

func TestBatchNormShapesUnchangedByMode(t *testing.T) {
	bn, err := NewBatchNorm(2)
	if err != nil {
		t.Fatalf("NewBatchNorm failed: %v", err)
	}
	x := [][][]float64{{{1, 2}, {3, 4}, {5, 6}}}

	for _, training := range []bool{true, false} {
		out := bn.Forward(x, training)
		if len(out) != 1 || len(out[0]) != 3 || len(out[0][0]) != 2 {
			t.Errorf("Training=%v: expected shape (1,3,2) preserved", training)
		}
	}
}
