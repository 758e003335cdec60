// Package stencil constructs finite-difference stencils on regular 1-D grids
// and solves the polynomial-accuracy constraint systems that govern them.
//
// A stencil is a vector of coefficients, one per grid point, approximating a
// spatial derivative of a given order. Requiring the stencil to differentiate
// all polynomials up to a chosen degree exactly yields a Vandermonde-type
// linear system in the coefficients. When the system is fully determined its
// unique solution is the classical finite-difference stencil; when it is
// underdetermined the remaining degrees of freedom form an affine subspace
// that AccuracyLayer exposes for learned coefficients.
//
// Reference: Fornberg, Bengt (1988), "Generation of Finite Difference
// Formulas on Arbitrarily Spaced Grids", Mathematics of Computation,
// 51 (184): 699-706.
package stencil

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// GridOffset describes the relationship between the input grid and the points
// at which derivatives are evaluated.
type GridOffset int

const (
	// Centered evaluates derivatives at the grid points themselves.
	Centered GridOffset = iota
	// Staggered evaluates derivatives halfway between grid points.
	Staggered
)

func (g GridOffset) String() string {
	switch g {
	case Centered:
		return "centered"
	case Staggered:
		return "staggered"
	default:
		return fmt.Sprintf("GridOffset(%d)", int(g))
	}
}

// Grid returns the smallest grid of point positions, relative to the
// evaluation point, on which a finite difference of the given derivative
// order can be computed with at least the given polynomial accuracy order.
//
// Centered grids contain integer multiples of dx and have odd size.
// Staggered grids contain half-integer multiples of dx and have even size.
func Grid(offset GridOffset, derivativeOrder, accuracyOrder int, dx float64) ([]float64, error) {
	if derivativeOrder < 0 {
		return nil, fmt.Errorf("negative derivative order: %d", derivativeOrder)
	}
	if accuracyOrder < 1 {
		return nil, fmt.Errorf("accuracy order must be at least 1, got %d", accuracyOrder)
	}
	minSize := derivativeOrder + accuracyOrder

	switch offset {
	case Centered:
		maxOffset := minSize / 2
		grid := make([]float64, 0, 2*maxOffset+1)
		for i := -maxOffset; i <= maxOffset; i++ {
			grid = append(grid, float64(i)*dx)
		}
		return grid, nil
	case Staggered:
		maxOffset := (minSize + 1) / 2
		grid := make([]float64, 0, 2*maxOffset)
		for i := -maxOffset; i < maxOffset; i++ {
			grid = append(grid, (0.5+float64(i))*dx)
		}
		return grid, nil
	default:
		return nil, fmt.Errorf("unexpected grid offset: %v", offset)
	}
}

// Constraints sets up the linear system A c = b whose solutions c are finite
// difference coefficients on grid that differentiate polynomials exactly.
//
// Each row demands that the stencil applied to the monomial x^m yields
// d!/0 depending on whether m equals the derivative order, for every m below
// accuracyOrder + derivativeOrder. Duplicate rows are merged, so A never has
// more rows than independent constraints.
//
// Returns an error when the constraints cannot be satisfied on a grid of
// this size.
func Constraints(grid []float64, derivativeOrder, accuracyOrder int) (*mat.Dense, *mat.VecDense, error) {
	if accuracyOrder < 0 {
		return nil, nil, fmt.Errorf(
			"cannot compute a finite difference stencil with negative accuracy order: %d", accuracyOrder)
	}
	n := len(grid)

	// Deduplicate the zero constraints. Raising a symmetric grid to
	// different powers can produce identical rows.
	seen := make(map[string][]float64)
	for m := 0; m < accuracyOrder+derivativeOrder; m++ {
		if m == derivativeOrder {
			continue
		}
		row := gridPow(grid, m)
		seen[rowKey(row)] = row
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	numConstraints := len(keys) + 1
	if numConstraints > n {
		return nil, nil, fmt.Errorf(
			"no finite difference stencil exists for derivative order %d and accuracy order %d on a grid of %d points",
			derivativeOrder, accuracyOrder, n)
	}

	a := mat.NewDense(numConstraints, n, nil)
	for i, k := range keys {
		a.SetRow(i, seen[k])
	}
	a.SetRow(numConstraints-1, gridPow(grid, derivativeOrder))

	b := mat.NewVecDense(numConstraints, nil)
	b.SetVec(numConstraints-1, factorial(derivativeOrder))

	return a, b, nil
}

// Coefficients returns the classical finite-difference stencil for the given
// derivative order on grid, with the highest accuracy order the grid
// guarantees in general. On centered grids the actual accuracy can be one
// order higher than requested.
func Coefficients(grid []float64, derivativeOrder int) ([]float64, error) {
	a, b, err := Constraints(grid, derivativeOrder, len(grid)-derivativeOrder)
	if err != nil {
		return nil, err
	}
	rows, cols := a.Dims()
	if rows != cols {
		return nil, fmt.Errorf(
			"constraint system for derivative order %d on grid of %d points is not fully determined (%d constraints)",
			derivativeOrder, cols, rows)
	}

	var c mat.VecDense
	if err := c.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("solving finite difference system: %w", err)
	}

	out := make([]float64, cols)
	copy(out, c.RawVector().Data)
	return out, nil
}

// gridPow raises every grid point to the m-th power.
func gridPow(grid []float64, m int) []float64 {
	out := make([]float64, len(grid))
	for i, g := range grid {
		out[i] = math.Pow(g, float64(m))
	}
	return out
}

// rowKey builds a map key identifying a constraint row up to float formatting.
func rowKey(row []float64) string {
	key := ""
	for _, v := range row {
		key += fmt.Sprintf("%.12e,", v)
	}
	return key
}

func factorial(n int) float64 {
	result := 1.0
	for i := 2; i <= n; i++ {
		result *= float64(i)
	}
	return result
}
