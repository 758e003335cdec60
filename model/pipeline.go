package model

import (
	"fmt"

	"github.com/brucejunlee/data-driven-discretization-1d/equation"
	"github.com/brucejunlee/data-driven-discretization-1d/field"
	"github.com/brucejunlee/data-driven-discretization-1d/stencil"
)

// ApplyCoefficients contracts each predicted coefficient vector with the
// aligned periodic patch of u, yielding spatial derivatives with shape
// (batch, x, derivative).
func ApplyCoefficients(coefficients [][][][]float64, u field.Field, offset stencil.GridOffset) ([][][]float64, error) {
	if len(coefficients) == 0 || len(coefficients[0]) == 0 || len(coefficients[0][0]) == 0 {
		return nil, fmt.Errorf("empty coefficient tensor")
	}
	size := len(coefficients[0][0][0])
	patches := field.Patches(u, size, offset)

	out := make([][][]float64, len(u))
	for b := range u {
		rows := make([][]float64, len(u[b]))
		for i := range u[b] {
			vectors := coefficients[b][i]
			derivs := make([]float64, len(vectors))
			window := patches[b][i]
			for d, vec := range vectors {
				dot := 0.0
				for j, c := range vec {
					dot += c * window[j]
				}
				derivs[d] = dot
			}
			rows[i] = derivs
		}
		out[b] = rows
	}
	return out, nil
}

// PredictSpaceDerivatives runs the learned filter and applies the predicted
// coefficients, producing spatial derivatives (batch, x, derivative).
func (m *Model) PredictSpaceDerivatives(u field.Field, training bool) ([][][]float64, error) {
	coefficients, err := m.PredictCoefficients(u, training)
	if err != nil {
		return nil, err
	}
	return ApplyCoefficients(coefficients, u, m.eq.GridOffset())
}

// ApplySpaceDerivatives re-keys spatial derivatives by derivative order and
// feeds them through the equation of motion, producing the time derivative.
func (m *Model) ApplySpaceDerivatives(spaceDerivatives [][][]float64, u field.Field) field.Field {
	return applySpaceDerivatives(spaceDerivatives, u, m.eq)
}

func applySpaceDerivatives(spaceDerivatives [][][]float64, u field.Field, eq equation.Equation) field.Field {
	orders := eq.DerivativeOrders()
	byOrder := make(map[int]field.Field, len(orders))
	for d, order := range orders {
		deriv := make(field.Field, len(u))
		for b := range u {
			row := make([]float64, len(u[b]))
			for i := range row {
				row[i] = spaceDerivatives[b][i][d]
			}
			deriv[b] = row
		}
		byOrder[order] = deriv
	}
	return eq.EquationOfMotion(u, byOrder)
}

// PredictTimeDerivative infers the time derivative of u with the learned
// forward model.
func (m *Model) PredictTimeDerivative(u field.Field, training bool) (field.Field, error) {
	space, err := m.PredictSpaceDerivatives(u, training)
	if err != nil {
		return nil, err
	}
	return m.ApplySpaceDerivatives(space, u), nil
}

// PredictAllDerivatives stacks predicted spatial derivatives and the
// resulting time derivative along the last axis, producing the full
// per-position prediction (batch, x, derivative+1) used for loss and
// evaluation.
func (m *Model) PredictAllDerivatives(u field.Field, training bool) ([][][]float64, error) {
	space, err := m.PredictSpaceDerivatives(u, training)
	if err != nil {
		return nil, err
	}
	time := m.ApplySpaceDerivatives(space, u)
	return StackSpaceTime(space, time), nil
}

// StackSpaceTime appends the time derivative as one extra channel after the
// space-derivative channels.
func StackSpaceTime(spaceDerivatives [][][]float64, timeDerivative field.Field) [][][]float64 {
	out := make([][][]float64, len(spaceDerivatives))
	for b := range spaceDerivatives {
		rows := make([][]float64, len(spaceDerivatives[b]))
		for i := range spaceDerivatives[b] {
			row := make([]float64, len(spaceDerivatives[b][i])+1)
			copy(row, spaceDerivatives[b][i])
			row[len(row)-1] = timeDerivative[b][i]
			rows[i] = row
		}
		out[b] = rows
	}
	return out
}

// BaselineDerivatives computes all derivatives of u with classical finite
// differences on the smallest grid per declared order, followed by the
// equation of motion. No learned filter is involved; this is both the label
// generator at high resolution and the comparison baseline for relative
// error normalization.
func BaselineDerivatives(u field.Field, eq equation.Equation) ([][][]float64, error) {
	orders := eq.DerivativeOrders()
	space := make([][][]float64, len(u))
	for b := range u {
		rows := make([][]float64, len(u[b]))
		for i := range rows {
			rows[i] = make([]float64, len(orders))
		}
		space[b] = rows
	}

	for d, order := range orders {
		grid, err := stencil.Grid(eq.GridOffset(), order, 1, eq.Dx())
		if err != nil {
			return nil, err
		}
		coeffs, err := stencil.Coefficients(grid, order)
		if err != nil {
			return nil, err
		}
		patches := field.Patches(u, len(grid), eq.GridOffset())
		for b := range u {
			for i := range u[b] {
				dot := 0.0
				for j, c := range coeffs {
					dot += c * patches[b][i][j]
				}
				space[b][i][d] = dot
			}
		}
	}

	time := applySpaceDerivatives(space, u, eq)
	return StackSpaceTime(space, time), nil
}

// Samples is one prepared batch for training or evaluation: low-resolution
// inputs together with high-resolution labels and the classical
// low-resolution baseline, both with shape (batch, x, derivative+1).
type Samples struct {
	Inputs   field.Field
	Labels   [][][]float64
	Baseline [][][]float64
}

// PrepareSamples turns high-resolution snapshots into model inputs: labels
// are baseline derivatives computed at fine resolution then resampled;
// baseline derivatives are recomputed from the resampled inputs. An invalid
// resample factor is reported before any tensor computation.
func PrepareSamples(fine field.Field, cfg Config) (*Samples, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	resample, err := field.ResamplerByName(cfg.ResampleMethod)
	if err != nil {
		return nil, err
	}
	if fine.Width()%cfg.ResampleFactor != 0 {
		return nil, fmt.Errorf("resample factor %d does not evenly divide field width %d",
			cfg.ResampleFactor, fine.Width())
	}

	fineEq, err := equation.New(cfg.Equation, cfg.Conservative, fine.Width())
	if err != nil {
		return nil, err
	}
	fineDerivatives, err := BaselineDerivatives(fine, fineEq)
	if err != nil {
		return nil, err
	}
	labels, err := resampleChannels(fineDerivatives, cfg.ResampleFactor, resample)
	if err != nil {
		return nil, err
	}

	coarse, err := resample(fine, cfg.ResampleFactor)
	if err != nil {
		return nil, err
	}
	coarseEq, err := equation.New(cfg.Equation, cfg.Conservative, coarse.Width())
	if err != nil {
		return nil, err
	}
	baseline, err := BaselineDerivatives(coarse, coarseEq)
	if err != nil {
		return nil, err
	}

	return &Samples{Inputs: coarse, Labels: labels, Baseline: baseline}, nil
}

// resampleChannels applies a field resampler to every derivative channel of
// a (batch, x, channel) tensor.
func resampleChannels(derivatives [][][]float64, factor int, resample field.Resampler) ([][][]float64, error) {
	if len(derivatives) == 0 || len(derivatives[0]) == 0 {
		return nil, fmt.Errorf("empty derivative tensor")
	}
	channels := len(derivatives[0][0])

	var out [][][]float64
	for ch := 0; ch < channels; ch++ {
		plane := make(field.Field, len(derivatives))
		for b := range derivatives {
			row := make([]float64, len(derivatives[b]))
			for i := range row {
				row[i] = derivatives[b][i][ch]
			}
			plane[b] = row
		}
		coarse, err := resample(plane, factor)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = make([][][]float64, len(coarse))
			for b := range out {
				rows := make([][]float64, coarse.Width())
				for i := range rows {
					rows[i] = make([]float64, channels)
				}
				out[b] = rows
			}
		}
		for b := range coarse {
			for i := range coarse[b] {
				out[b][i][ch] = coarse[b][i]
			}
		}
	}
	return out, nil
}
