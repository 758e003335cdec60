package stencil

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// AccuracyLayer maps unconstrained input vectors onto finite-difference
// coefficient vectors that satisfy a polynomial accuracy constraint by
// construction.
//
// The constraint system A c = b is underdetermined whenever the accuracy
// order is low enough to leave free directions on the grid. The layer stores
// one particular solution (the bias) and an orthonormal basis for the
// nullspace of A, so that bias + N' x satisfies the constraints for any
// input x. The input dimension equals the number of free directions.
type AccuracyLayer struct {
	grid            []float64
	derivativeOrder int
	accuracyOrder   int

	bias      []float64   // particular solution, length len(grid)
	nullspace [][]float64 // inputSize rows of length len(grid)
}

// NewAccuracyLayer builds an AccuracyLayer for the given grid and orders.
//
// bias, when non-nil, supplies the particular solution to which zero inputs
// map; it must itself satisfy the accuracy constraints. When nil, the
// classical finite-difference coefficients for the grid are used. outScale
// multiplies the nullspace contribution relative to the bias.
//
// Returns an error when the constraints are infeasible or leave no free
// directions, both configuration mistakes that should surface before any
// computation.
func NewAccuracyLayer(grid []float64, derivativeOrder, accuracyOrder int, bias []float64, outScale float64) (*AccuracyLayer, error) {
	a, b, err := Constraints(grid, derivativeOrder, accuracyOrder)
	if err != nil {
		return nil, err
	}

	if bias == nil {
		bias, err = Coefficients(grid, derivativeOrder)
		if err != nil {
			return nil, err
		}
	}

	// The bias must land in the solution set of the lower-order system.
	var residual mat.VecDense
	residual.MulVec(a, mat.NewVecDense(len(bias), bias))
	residual.SubVec(&residual, b)
	if mat.Norm(&residual, 2) > 1e-8 {
		return nil, fmt.Errorf("bias does not satisfy accuracy order %d constraints on grid", accuracyOrder)
	}

	rows, cols := a.Dims()
	inputSize := cols - rows
	if inputSize == 0 {
		return nil, fmt.Errorf(
			"accuracy order %d on a grid of %d points admits only one stencil; nothing to learn",
			accuracyOrder, cols)
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFullV) {
		return nil, fmt.Errorf("SVD of constraint matrix failed")
	}
	var v mat.Dense
	svd.VTo(&v)

	// The trailing right-singular vectors span the nullspace of A. They are
	// orthonormal, which makes the basis independent of the grid spacing, so
	// rescale to keep learned contributions comparable to the bias.
	dx := grid[1] - grid[0]
	scale := outScale / pow(dx, derivativeOrder)
	nullspace := make([][]float64, inputSize)
	for k := 0; k < inputSize; k++ {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = v.At(j, rows+k) * scale
		}
		nullspace[k] = row
	}

	return &AccuracyLayer{
		grid:            grid,
		derivativeOrder: derivativeOrder,
		accuracyOrder:   accuracyOrder,
		bias:            bias,
		nullspace:       nullspace,
	}, nil
}

// InputSize returns the number of free directions, i.e. the length of input
// vectors Apply accepts.
func (l *AccuracyLayer) InputSize() int {
	return len(l.nullspace)
}

// GridSize returns the length of coefficient vectors Apply produces.
func (l *AccuracyLayer) GridSize() int {
	return len(l.grid)
}

// Bias returns the particular solution to which zero inputs map.
func (l *AccuracyLayer) Bias() []float64 {
	out := make([]float64, len(l.bias))
	copy(out, l.bias)
	return out
}

// Apply maps an input vector of length InputSize to a full coefficient
// vector of length GridSize. The result satisfies the polynomial accuracy
// constraints for any input.
func (l *AccuracyLayer) Apply(input []float64) []float64 {
	if len(input) != len(l.nullspace) {
		panic(fmt.Sprintf("input length %d does not match nullspace dimension %d",
			len(input), len(l.nullspace)))
	}
	out := make([]float64, len(l.bias))
	copy(out, l.bias)
	for k, x := range input {
		row := l.nullspace[k]
		for j := range out {
			out[j] += x * row[j]
		}
	}
	return out
}

func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}
