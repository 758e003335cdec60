package equation

import (
	"fmt"
	"math"

	"github.com/brucejunlee/data-driven-discretization-1d/field"
	"github.com/brucejunlee/data-driven-discretization-1d/stencil"
)

// DefaultDomainLength is the periodic domain size shared by the built-in
// equations.
const DefaultDomainLength = 2 * math.Pi

// DefaultBurgersViscosity is the diffusion coefficient for the built-in
// Burgers equation.
const DefaultBurgersViscosity = 0.01

func init() {
	Register("burgers", func(numX int) (Equation, error) {
		return newNonConservative("burgers", numX, []int{1, 2},
			func(u float64, d map[int]float64) float64 {
				return -u*d[1] + DefaultBurgersViscosity*d[2]
			})
	})
	Register("burgers_conservative", func(numX int) (Equation, error) {
		return newConservative("burgers_conservative", numX, []int{0, 1},
			func(d map[int]float64) float64 {
				return d[0]*d[0]/2 - DefaultBurgersViscosity*d[1]
			})
	})
	Register("kdv", func(numX int) (Equation, error) {
		return newNonConservative("kdv", numX, []int{1, 3},
			func(u float64, d map[int]float64) float64 {
				return -6*u*d[1] - d[3]
			})
	})
	Register("kdv_conservative", func(numX int) (Equation, error) {
		return newConservative("kdv_conservative", numX, []int{0, 2},
			func(d map[int]float64) float64 {
				return 3*d[0]*d[0] + d[2]
			})
	})
	Register("ks", func(numX int) (Equation, error) {
		return newNonConservative("ks", numX, []int{1, 2, 4},
			func(u float64, d map[int]float64) float64 {
				return -u*d[1] - d[2] - d[4]
			})
	})
	Register("ks_conservative", func(numX int) (Equation, error) {
		return newConservative("ks_conservative", numX, []int{0, 1, 3},
			func(d map[int]float64) float64 {
				return d[0]*d[0]/2 + d[1] + d[3]
			})
	})
}

// nonConservative evaluates the time derivative pointwise from centered
// spatial derivatives.
type nonConservative struct {
	name   string
	orders []int
	dx     float64
	motion func(u float64, derivs map[int]float64) float64
}

func newNonConservative(name string, numX int, orders []int,
	motion func(u float64, derivs map[int]float64) float64) (Equation, error) {
	if numX < 1 {
		return nil, fmt.Errorf("equation %s needs a positive number of grid points, got %d", name, numX)
	}
	return &nonConservative{
		name:   name,
		orders: orders,
		dx:     DefaultDomainLength / float64(numX),
		motion: motion,
	}, nil
}

func (e *nonConservative) Name() string                   { return e.name }
func (e *nonConservative) DerivativeOrders() []int        { return append([]int(nil), e.orders...) }
func (e *nonConservative) GridOffset() stencil.GridOffset { return stencil.Centered }
func (e *nonConservative) Dx() float64                    { return e.dx }

func (e *nonConservative) EquationOfMotion(u field.Field, derivatives map[int]field.Field) field.Field {
	out := field.New(len(u), u.Width())
	point := make(map[int]float64, len(e.orders))
	for b := range u {
		for i := range u[b] {
			for _, order := range e.orders {
				point[order] = derivatives[order][b][i]
			}
			out[b][i] = e.motion(u[b][i], point)
		}
	}
	return out
}

// conservative evaluates a flux at staggered points and differences it, so
// the resulting time derivative conserves the spatial integral of the field
// exactly.
type conservative struct {
	name   string
	orders []int
	dx     float64
	flux   func(derivs map[int]float64) float64
}

func newConservative(name string, numX int, orders []int,
	flux func(derivs map[int]float64) float64) (Equation, error) {
	if numX < 1 {
		return nil, fmt.Errorf("equation %s needs a positive number of grid points, got %d", name, numX)
	}
	return &conservative{
		name:   name,
		orders: orders,
		dx:     DefaultDomainLength / float64(numX),
		flux:   flux,
	}, nil
}

func (e *conservative) Name() string                   { return e.name }
func (e *conservative) DerivativeOrders() []int        { return append([]int(nil), e.orders...) }
func (e *conservative) GridOffset() stencil.GridOffset { return stencil.Staggered }
func (e *conservative) Dx() float64                    { return e.dx }

func (e *conservative) EquationOfMotion(u field.Field, derivatives map[int]field.Field) field.Field {
	width := u.Width()
	out := field.New(len(u), width)
	point := make(map[int]float64, len(e.orders))
	for b := range u {
		// Index i of a staggered derivative refers to the point i+1/2.
		flux := make([]float64, width)
		for i := 0; i < width; i++ {
			for _, order := range e.orders {
				point[order] = derivatives[order][b][i]
			}
			flux[i] = e.flux(point)
		}
		for i := 0; i < width; i++ {
			left := flux[(i-1+width)%width]
			out[b][i] = -(flux[i] - left) / e.dx
		}
	}
	return out
}
