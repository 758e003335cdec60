// Package equation defines the evolution-equation contract the derivative
// pipeline composes with, plus a registry of concrete equations.
//
// An Equation declares which spatial derivative orders it needs, on which
// grid convention, and maps a field together with those derivatives to a
// time derivative. The pipeline never inspects an equation beyond this
// interface: it supplies the declared derivatives and consumes the returned
// time derivative.
package equation

import (
	"fmt"
	"sort"
	"sync"

	"github.com/brucejunlee/data-driven-discretization-1d/field"
	"github.com/brucejunlee/data-driven-discretization-1d/stencil"
)

// Equation describes the time evolution of a scalar field on a uniform
// periodic grid.
type Equation interface {
	// Name returns the registered equation name.
	Name() string

	// DerivativeOrders returns the sorted spatial derivative orders the
	// equation of motion consumes. Never empty; may include 0.
	DerivativeOrders() []int

	// GridOffset returns the convention relating derivative evaluation
	// points to the field's grid points.
	GridOffset() stencil.GridOffset

	// Dx returns the grid spacing.
	Dx() float64

	// EquationOfMotion maps the field and its spatial derivatives, keyed by
	// order, to the time derivative. The result has the same shape as u.
	EquationOfMotion(u field.Field, derivatives map[int]field.Field) field.Field
}

// Factory creates an equation discretized on numX periodic grid points.
type Factory func(numX int) (Equation, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds an equation factory under the given name. Panics on
// duplicate registration, which indicates a programming error.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[name]; ok {
		panic(fmt.Sprintf("equation %q registered twice", name))
	}
	registry[name] = factory
}

// New builds the named equation on numX grid points. The conservative flag
// selects the flux-form variant on a staggered grid when the equation
// provides one.
func New(name string, conservative bool, numX int) (Equation, error) {
	key := name
	if conservative {
		key = name + "_conservative"
	}

	registryMu.RLock()
	factory, ok := registry[key]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown equation: %q (conservative=%v)", name, conservative)
	}
	return factory(numX)
}

// Names returns the sorted names of all registered equations.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
