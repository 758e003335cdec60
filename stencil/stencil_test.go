package stencil

import (
	"math"
	"testing"
)

func TestGridCentered(t *testing.T) {
	grid, err := Grid(Centered, 1, 2, 1.0)
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}
	expected := []float64{-1, 0, 1}
	if len(grid) != len(expected) {
		t.Fatalf("Expected grid size %d, got %d", len(expected), len(grid))
	}
	for i := range expected {
		if grid[i] != expected[i] {
			t.Errorf("Expected grid[%d] = %v, got %v", i, expected[i], grid[i])
		}
	}
}

func TestGridCenteredSpacing(t *testing.T) {
	grid, err := Grid(Centered, 2, 2, 0.5)
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}
	expected := []float64{-1.0, -0.5, 0, 0.5, 1.0}
	if len(grid) != len(expected) {
		t.Fatalf("Expected grid size %d, got %d", len(expected), len(grid))
	}
	for i := range expected {
		if math.Abs(grid[i]-expected[i]) > 1e-12 {
			t.Errorf("Expected grid[%d] = %v, got %v", i, expected[i], grid[i])
		}
	}
}

func TestGridStaggered(t *testing.T) {
	grid, err := Grid(Staggered, 0, 1, 1.0)
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}
	expected := []float64{-0.5, 0.5}
	if len(grid) != len(expected) {
		t.Fatalf("Expected grid size %d, got %d", len(expected), len(grid))
	}
	for i := range expected {
		if math.Abs(grid[i]-expected[i]) > 1e-12 {
			t.Errorf("Expected grid[%d] = %v, got %v", i, expected[i], grid[i])
		}
	}
}

func TestGridStaggeredEvenSize(t *testing.T) {
	for order := 0; order <= 3; order++ {
		grid, err := Grid(Staggered, order, 1, 1.0)
		if err != nil {
			t.Fatalf("Grid failed for order %d: %v", order, err)
		}
		if len(grid)%2 != 0 {
			t.Errorf("Expected even staggered grid for order %d, got size %d", order, len(grid))
		}
	}
}

func TestCoefficientsCentralDifference(t *testing.T) {
	grid := []float64{-1, 0, 1}
	coeffs, err := Coefficients(grid, 1)
	if err != nil {
		t.Fatalf("Coefficients failed: %v", err)
	}
	expected := []float64{-0.5, 0, 0.5}
	for i := range expected {
		if math.Abs(coeffs[i]-expected[i]) > 1e-10 {
			t.Errorf("Expected coeffs[%d] = %v, got %v", i, expected[i], coeffs[i])
		}
	}
}

func TestCoefficientsSecondDerivative(t *testing.T) {
	grid := []float64{-1, 0, 1}
	coeffs, err := Coefficients(grid, 2)
	if err != nil {
		t.Fatalf("Coefficients failed: %v", err)
	}
	expected := []float64{1, -2, 1}
	for i := range expected {
		if math.Abs(coeffs[i]-expected[i]) > 1e-10 {
			t.Errorf("Expected coeffs[%d] = %v, got %v", i, expected[i], coeffs[i])
		}
	}
}

func TestCoefficientsSpacing(t *testing.T) {
	dx := 0.25
	grid := []float64{-dx, 0, dx}
	coeffs, err := Coefficients(grid, 1)
	if err != nil {
		t.Fatalf("Coefficients failed: %v", err)
	}
	expected := []float64{-1 / (2 * dx), 0, 1 / (2 * dx)}
	for i := range expected {
		if math.Abs(coeffs[i]-expected[i]) > 1e-10 {
			t.Errorf("Expected coeffs[%d] = %v, got %v", i, expected[i], coeffs[i])
		}
	}
}

func TestCoefficientsStaggeredFirstDerivative(t *testing.T) {
	grid := []float64{-0.5, 0.5}
	coeffs, err := Coefficients(grid, 1)
	if err != nil {
		t.Fatalf("Coefficients failed: %v", err)
	}
	expected := []float64{-1, 1}
	for i := range expected {
		if math.Abs(coeffs[i]-expected[i]) > 1e-10 {
			t.Errorf("Expected coeffs[%d] = %v, got %v", i, expected[i], coeffs[i])
		}
	}
}

// evalPoly evaluates a polynomial with the given coefficients (constant
// term first) at x.
func evalPoly(coeffs []float64, x float64) float64 {
	result := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		result = result*x + coeffs[i]
	}
	return result
}

// derivPoly returns the coefficients of the derivative polynomial.
func derivPoly(coeffs []float64) []float64 {
	if len(coeffs) <= 1 {
		return []float64{0}
	}
	out := make([]float64, len(coeffs)-1)
	for i := 1; i < len(coeffs); i++ {
		out[i-1] = float64(i) * coeffs[i]
	}
	return out
}

func TestCoefficientsDifferentiatePolynomialsExactly(t *testing.T) {
	cases := []struct {
		name            string
		grid            []float64
		derivativeOrder int
	}{
		{"central 3-point first", []float64{-1, 0, 1}, 1},
		{"central 5-point first", []float64{-2, -1, 0, 1, 2}, 1},
		{"central 5-point second", []float64{-2, -1, 0, 1, 2}, 2},
		{"central 5-point third", []float64{-2, -1, 0, 1, 2}, 3},
		{"staggered 4-point first", []float64{-1.5, -0.5, 0.5, 1.5}, 1},
		{"scaled 5-point second", []float64{-0.2, -0.1, 0, 0.1, 0.2}, 2},
	}

	poly := []float64{1.7, -0.3, 2.1, 0.9, -1.2} // degree 4

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			coeffs, err := Coefficients(tc.grid, tc.derivativeOrder)
			if err != nil {
				t.Fatalf("Coefficients failed: %v", err)
			}

			// Truncate the test polynomial to the accuracy the grid
			// guarantees.
			maxDegree := len(tc.grid) - 1
			p := poly
			if len(p) > maxDegree+1 {
				p = p[:maxDegree+1]
			}

			applied := 0.0
			for i, g := range tc.grid {
				applied += coeffs[i] * evalPoly(p, g)
			}

			exact := p
			for d := 0; d < tc.derivativeOrder; d++ {
				exact = derivPoly(exact)
			}
			want := evalPoly(exact, 0)

			if math.Abs(applied-want) > 1e-6 {
				t.Errorf("Expected derivative %v, got %v", want, applied)
			}
		})
	}
}

func TestConstraintsInfeasible(t *testing.T) {
	grid := []float64{-1, 0, 1}
	if _, _, err := Constraints(grid, 1, 5); err == nil {
		t.Error("Expected error for infeasible accuracy order, got nil")
	}
}

func TestConstraintsNegativeAccuracy(t *testing.T) {
	grid := []float64{-1, 0, 1}
	if _, _, err := Constraints(grid, 1, -1); err == nil {
		t.Error("Expected error for negative accuracy order, got nil")
	}
}
