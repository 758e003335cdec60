// Package model implements the learned finite-difference coefficient
// predictor and the derivative composition pipeline built on top of it.
//
// The predictor is a pseudo-linear filter: a convolutional stack with
// periodic boundaries outputs, at every spatial position, one coefficient
// vector per target derivative order. Contracting those vectors against the
// local field patches yields spatial derivatives, and composing the result
// with an evolution equation yields the predicted time derivative. The
// output head can be left unconstrained, forced to sum to zero, or projected
// onto the polynomial-accuracy subspace so the learned filter degenerates
// gracefully to classical finite differences.
package model

import (
	"fmt"

	"github.com/brucejunlee/data-driven-discretization-1d/equation"
	"github.com/brucejunlee/data-driven-discretization-1d/field"
	"github.com/brucejunlee/data-driven-discretization-1d/stencil"
)

// Scheme selects how raw network outputs become coefficient vectors. The
// scheme is resolved once at construction, never per forward pass.
type Scheme int

const (
	// SchemeFixed learns a single position-independent coefficient vector
	// per derivative order. Used as a baseline and ablation.
	SchemeFixed Scheme = iota
	// SchemeUnconstrained reshapes raw convolution outputs directly into
	// coefficient vectors, optionally de-meaned to sum to zero.
	SchemeUnconstrained
	// SchemePolynomialConstrained projects raw outputs through the
	// polynomial-accuracy nullspace so every predicted stencil reproduces
	// low-degree polynomials exactly.
	SchemePolynomialConstrained
)

func (s Scheme) String() string {
	switch s {
	case SchemeFixed:
		return "fixed"
	case SchemeUnconstrained:
		return "unconstrained"
	case SchemePolynomialConstrained:
		return "polynomial-constrained"
	default:
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
}

// Config holds the model hyperparameters.
type Config struct {
	// Equation names the evolution equation from the registry.
	Equation string
	// Conservative selects the flux-form variant on a staggered grid.
	Conservative bool

	// ResampleFactor is the integer ratio between high- and low-resolution
	// grids; ResampleMethod is "mean" or "subsample".
	ResampleFactor int
	ResampleMethod string

	// NumLayers is the depth of the convolutional stack. Zero selects the
	// fixed, position-independent coefficient scheme.
	NumLayers int
	// FilterSize is the channel width of hidden convolution layers.
	FilterSize int
	// KernelSize is the receptive field of each convolution layer.
	KernelSize int

	// PolynomialAccuracyOrder selects the constrained output scheme when
	// positive; PolynomialAccuracyScale scales its learned nullspace
	// contribution.
	PolynomialAccuracyOrder int
	PolynomialAccuracyScale float64

	// EnsureUnbiased de-means unconstrained coefficient vectors so they sum
	// to zero. Infeasible together with a zeroth-order derivative target.
	EnsureUnbiased bool

	// CoefficientGridMinSize is the minimum number of points in the stencil
	// the predicted coefficients are defined on.
	CoefficientGridMinSize int
}

// DefaultConfig returns the standard model configuration for the named
// equation.
func DefaultConfig(equationName string) Config {
	return Config{
		Equation:                equationName,
		Conservative:            true,
		ResampleFactor:          4,
		ResampleMethod:          "subsample",
		NumLayers:               3,
		FilterSize:              128,
		KernelSize:              3,
		PolynomialAccuracyOrder: 2,
		PolynomialAccuracyScale: 1.0,
		EnsureUnbiased:          false,
		CoefficientGridMinSize:  6,
	}
}

// Scheme returns the output scheme the configuration resolves to.
func (c Config) Scheme() Scheme {
	switch {
	case c.NumLayers == 0:
		return SchemeFixed
	case c.PolynomialAccuracyOrder == 0:
		return SchemeUnconstrained
	default:
		return SchemePolynomialConstrained
	}
}

// Validate reports configuration errors that do not depend on the equation
// or grid resolution.
func (c Config) Validate() error {
	if c.Equation == "" {
		return fmt.Errorf("equation name is required")
	}
	if c.NumLayers < 0 {
		return fmt.Errorf("number of layers cannot be negative: %d", c.NumLayers)
	}
	if c.NumLayers > 0 && c.FilterSize < 1 {
		return fmt.Errorf("filter size must be positive, got %d", c.FilterSize)
	}
	if c.NumLayers > 0 && c.KernelSize < 1 {
		return fmt.Errorf("kernel size must be positive, got %d", c.KernelSize)
	}
	if c.CoefficientGridMinSize < 1 {
		return fmt.Errorf("coefficient grid min size must be positive, got %d", c.CoefficientGridMinSize)
	}
	if c.ResampleFactor < 1 {
		return fmt.Errorf("resample factor must be positive, got %d", c.ResampleFactor)
	}
	if _, err := field.ResamplerByName(c.ResampleMethod); err != nil {
		return err
	}
	return nil
}

// Model predicts finite-difference coefficients for one equation at one
// resolution and composes them into derivatives.
type Model struct {
	cfg    Config
	scheme Scheme
	eq     equation.Equation
	orders []int
	numX   int

	// grid holds the stencil point positions shared by every target
	// derivative, in physical units.
	grid []float64

	norm   *field.BatchNorm
	hidden []*field.Conv1DPeriodic
	head   *field.Conv1DPeriodic

	// fixed holds one learned coefficient vector per derivative order for
	// SchemeFixed, initialized to the classical stencils.
	fixed [][]float64

	// accuracy holds one projection layer per derivative order for
	// SchemePolynomialConstrained.
	accuracy []*stencil.AccuracyLayer
}

// New constructs a model for fields of width numX. All configuration errors
// surface here, before any tensor computation: infeasible polynomial
// accuracy orders, sum-to-zero together with a zeroth-order target, unknown
// equations or resample methods.
func New(cfg Config, numX int) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	eq, err := equation.New(cfg.Equation, cfg.Conservative, numX)
	if err != nil {
		return nil, err
	}
	orders := eq.DerivativeOrders()

	grid, err := stencil.Grid(eq.GridOffset(), 0, cfg.CoefficientGridMinSize, eq.Dx())
	if err != nil {
		return nil, err
	}

	m := &Model{
		cfg:    cfg,
		scheme: cfg.Scheme(),
		eq:     eq,
		orders: orders,
		numX:   numX,
		grid:   grid,
	}

	switch m.scheme {
	case SchemeFixed:
		m.fixed = make([][]float64, len(orders))
		for i, order := range orders {
			coeffs, err := stencil.Coefficients(grid, order)
			if err != nil {
				return nil, fmt.Errorf("initializing fixed coefficients for derivative order %d: %w", order, err)
			}
			m.fixed[i] = coeffs
		}
		return m, nil

	case SchemeUnconstrained:
		if cfg.EnsureUnbiased {
			for _, order := range orders {
				if order == 0 {
					return nil, fmt.Errorf(
						"unbiased coefficients are infeasible for a zeroth-order derivative target")
				}
			}
		}
		if err := m.buildStack(len(orders) * len(grid)); err != nil {
			return nil, err
		}
		return m, nil

	case SchemePolynomialConstrained:
		m.accuracy = make([]*stencil.AccuracyLayer, len(orders))
		headSize := 0
		for i, order := range orders {
			layer, err := stencil.NewAccuracyLayer(
				grid, order, cfg.PolynomialAccuracyOrder, nil, cfg.PolynomialAccuracyScale)
			if err != nil {
				return nil, fmt.Errorf("constraining derivative order %d: %w", order, err)
			}
			m.accuracy[i] = layer
			headSize += layer.InputSize()
		}
		if err := m.buildStack(headSize); err != nil {
			return nil, err
		}
		return m, nil
	}

	return nil, fmt.Errorf("unexpected scheme: %v", m.scheme)
}

func (m *Model) buildStack(headChannels int) error {
	norm, err := field.NewBatchNorm(1)
	if err != nil {
		return err
	}
	m.norm = norm

	in := 1
	for i := 0; i < m.cfg.NumLayers-1; i++ {
		conv, err := field.NewConv1DPeriodic(m.cfg.KernelSize, in, m.cfg.FilterSize, true)
		if err != nil {
			return err
		}
		m.hidden = append(m.hidden, conv)
		in = m.cfg.FilterSize
	}

	head, err := field.NewConv1DPeriodic(m.cfg.KernelSize, in, headChannels, false)
	if err != nil {
		return err
	}
	m.head = head
	return nil
}

// Equation returns the evolution equation the model composes with.
func (m *Model) Equation() equation.Equation {
	return m.eq
}

// GridSize returns the number of points in the coefficient stencil.
func (m *Model) GridSize() int {
	return len(m.grid)
}

// Grid returns the stencil point positions, in physical units, shared by
// every target derivative.
func (m *Model) Grid() []float64 {
	return append([]float64(nil), m.grid...)
}

// Scheme returns the resolved coefficient output scheme.
func (m *Model) Scheme() Scheme {
	return m.scheme
}

// PredictCoefficients runs the learned filter over u, returning one
// coefficient vector per batch element, spatial position and derivative
// order, with shape (batch, x, derivative, coefficient).
//
// In training mode normalization statistics come from the current batch;
// otherwise frozen statistics are used. The flag never changes shapes or
// meaning, only numeric calibration.
func (m *Model) PredictCoefficients(u field.Field, training bool) ([][][][]float64, error) {
	if u.Width() != m.numX {
		return nil, fmt.Errorf("field width %d does not match model resolution %d", u.Width(), m.numX)
	}

	numDerivs := len(m.orders)
	gridSize := len(m.grid)

	if m.scheme == SchemeFixed {
		out := make([][][][]float64, len(u))
		for b := range u {
			rows := make([][][]float64, u.Width())
			for i := range rows {
				vectors := make([][]float64, numDerivs)
				for d := range vectors {
					vectors[d] = append([]float64(nil), m.fixed[d]...)
				}
				rows[i] = vectors
			}
			out[b] = rows
		}
		return out, nil
	}

	// (batch, x, 1) feature tensor.
	net := make([][][]float64, len(u))
	for b := range u {
		rows := make([][]float64, len(u[b]))
		for i, v := range u[b] {
			rows[i] = []float64{v}
		}
		net[b] = rows
	}

	net = m.norm.Forward(net, training)
	for _, conv := range m.hidden {
		net = conv.Forward(net)
	}
	net = m.head.Forward(net)

	out := make([][][][]float64, len(u))
	for b := range net {
		rows := make([][][]float64, len(net[b]))
		for i, raw := range net[b] {
			vectors := make([][]float64, numDerivs)
			switch m.scheme {
			case SchemeUnconstrained:
				for d := 0; d < numDerivs; d++ {
					vec := append([]float64(nil), raw[d*gridSize:(d+1)*gridSize]...)
					if m.cfg.EnsureUnbiased {
						mean := 0.0
						for _, v := range vec {
							mean += v
						}
						mean /= float64(len(vec))
						for j := range vec {
							vec[j] -= mean
						}
					}
					vectors[d] = vec
				}
			case SchemePolynomialConstrained:
				offset := 0
				for d, layer := range m.accuracy {
					vectors[d] = layer.Apply(raw[offset : offset+layer.InputSize()])
					offset += layer.InputSize()
				}
			}
			rows[i] = vectors
		}
		out[b] = rows
	}
	return out, nil
}

// GetParams returns the flat learnable parameter vector.
func (m *Model) GetParams() []float64 {
	var out []float64
	if m.scheme == SchemeFixed {
		for _, vec := range m.fixed {
			out = append(out, vec...)
		}
		return out
	}
	out = append(out, m.norm.GetParams()...)
	for _, conv := range m.hidden {
		out = append(out, conv.GetParams()...)
	}
	out = append(out, m.head.GetParams()...)
	return out
}

// SetParams updates the flat learnable parameter vector.
func (m *Model) SetParams(params []float64) {
	if len(params) != m.NumParams() {
		panic("params length must match NumParams()")
	}
	if m.scheme == SchemeFixed {
		offset := 0
		for _, vec := range m.fixed {
			copy(vec, params[offset:offset+len(vec)])
			offset += len(vec)
		}
		return
	}
	offset := 0
	take := func(n int) []float64 {
		chunk := params[offset : offset+n]
		offset += n
		return chunk
	}
	m.norm.SetParams(take(m.norm.NumParams()))
	for _, conv := range m.hidden {
		conv.SetParams(take(conv.NumParams()))
	}
	m.head.SetParams(take(m.head.NumParams()))
}

// NumParams returns the number of learnable parameters.
func (m *Model) NumParams() int {
	if m.scheme == SchemeFixed {
		total := 0
		for _, vec := range m.fixed {
			total += len(vec)
		}
		return total
	}
	total := m.norm.NumParams()
	for _, conv := range m.hidden {
		total += conv.NumParams()
	}
	return total + m.head.NumParams()
}
