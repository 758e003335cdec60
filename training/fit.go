package training

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/brucejunlee/data-driven-discretization-1d/model"
)

// FitOptions configures the gradient-free parameter fitting process.
type FitOptions struct {
	MaxIters  int     // Maximum number of iterations
	Tolerance float64 // Convergence tolerance for the loss
	Method    string  // "nelder-mead" or "coordinate-descent"
	StepSize  float64 // Initial step size for coordinate descent
	Verbose   bool    // Log progress during optimization
}

// DefaultFitOptions returns default fitting options.
func DefaultFitOptions() *FitOptions {
	return &FitOptions{
		MaxIters:  1000,
		Tolerance: 1e-4,
		Method:    "nelder-mead",
		StepSize:  0.01,
		Verbose:   false,
	}
}

// FitResult contains the results of parameter fitting.
type FitResult struct {
	Params      []float64 // Final parameter values
	InitialLoss float64   // Loss before optimization
	FinalLoss   float64   // Loss after optimization
	Iterations  int       // Number of iterations performed
	Converged   bool      // Whether the optimization converged
}

// Fit optimizes the model's parameters to minimize the normalized loss on a
// prepared sample batch. The loss scales must already be calibrated; they
// are read, never modified.
func Fit(m *model.Model, samples *model.Samples, scales *LossScales, cfg Config, opts *FitOptions) (*FitResult, error) {
	if opts == nil {
		opts = DefaultFitOptions()
	}

	initialParams := m.GetParams()
	if len(initialParams) == 0 {
		return nil, fmt.Errorf("no learnable parameters found")
	}

	objective := func(params []float64) float64 {
		m.SetParams(params)
		predictions, err := m.PredictAllDerivatives(samples.Inputs, true)
		if err != nil {
			return math.Inf(1)
		}
		return Loss(predictions, samples.Labels, samples.Baseline, scales, cfg)
	}

	initialLoss := objective(initialParams)
	if opts.Verbose {
		slog.Info("starting fit", "method", opts.Method,
			"params", len(initialParams), "initial_loss", initialLoss)
	}

	var finalParams []float64
	var finalLoss float64
	var iters int
	var converged bool

	switch opts.Method {
	case "nelder-mead":
		finalParams, finalLoss, iters, converged = nelderMead(objective, initialParams, opts)
	case "coordinate-descent":
		finalParams, finalLoss, iters, converged = coordinateDescent(objective, initialParams, opts)
	default:
		return nil, fmt.Errorf("unknown optimization method: %s", opts.Method)
	}

	m.SetParams(finalParams)

	if opts.Verbose {
		slog.Info("fit finished", "final_loss", finalLoss,
			"iterations", iters, "converged", converged)
	}

	return &FitResult{
		Params:      finalParams,
		InitialLoss: initialLoss,
		FinalLoss:   finalLoss,
		Iterations:  iters,
		Converged:   converged,
	}, nil
}

// coordinateDescent implements simple coordinate descent optimization.
func coordinateDescent(f func([]float64) float64, x0 []float64, opts *FitOptions) ([]float64, float64, int, bool) {
	x := append([]float64(nil), x0...)

	bestLoss := f(x)
	stepSize := opts.StepSize

	for iter := 0; iter < opts.MaxIters; iter++ {
		improved := false

		for i := 0; i < len(x); i++ {
			oldVal := x[i]

			x[i] = oldVal + stepSize
			posLoss := f(x)

			x[i] = oldVal - stepSize
			negLoss := f(x)

			if posLoss < bestLoss {
				x[i] = oldVal + stepSize
				bestLoss = posLoss
				improved = true
			} else if negLoss < bestLoss {
				x[i] = oldVal - stepSize
				bestLoss = negLoss
				improved = true
			} else {
				x[i] = oldVal
			}
		}

		if opts.Verbose && iter%100 == 0 {
			slog.Info("coordinate descent", "iter", iter, "loss", bestLoss)
		}

		if !improved {
			stepSize *= 0.5
			if stepSize < 1e-10 {
				return x, bestLoss, iter, true
			}
		}

		if bestLoss < opts.Tolerance {
			return x, bestLoss, iter, true
		}
	}

	return x, bestLoss, opts.MaxIters, false
}

// nelderMead implements the Nelder-Mead simplex algorithm.
func nelderMead(f func([]float64) float64, x0 []float64, opts *FitOptions) ([]float64, float64, int, bool) {
	n := len(x0)

	alpha := 1.0 // reflection
	gamma := 2.0 // expansion
	rho := 0.5   // contraction
	sigma := 0.5 // shrink

	simplex := make([][]float64, n+1)
	values := make([]float64, n+1)

	simplex[0] = append([]float64(nil), x0...)
	values[0] = f(simplex[0])

	// Create the initial simplex by perturbing each coordinate.
	for i := 0; i < n; i++ {
		simplex[i+1] = append([]float64(nil), x0...)
		simplex[i+1][i] += 0.05 * (1.0 + math.Abs(x0[i]))
		values[i+1] = f(simplex[i+1])
	}

	for iter := 0; iter < opts.MaxIters; iter++ {
		sortSimplex(simplex, values)

		if opts.Verbose && iter%100 == 0 {
			slog.Info("nelder-mead", "iter", iter, "best", values[0], "worst", values[n])
		}

		if values[n]-values[0] < opts.Tolerance {
			return simplex[0], values[0], iter, true
		}

		// Centroid of the best n points.
		centroid := make([]float64, n)
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j < n; j++ {
				sum += simplex[j][i]
			}
			centroid[i] = sum / float64(n)
		}

		// Reflection.
		reflected := make([]float64, n)
		for i := 0; i < n; i++ {
			reflected[i] = centroid[i] + alpha*(centroid[i]-simplex[n][i])
		}
		reflectedVal := f(reflected)

		if values[0] <= reflectedVal && reflectedVal < values[n-1] {
			simplex[n] = reflected
			values[n] = reflectedVal
			continue
		}

		// Expansion.
		if reflectedVal < values[0] {
			expanded := make([]float64, n)
			for i := 0; i < n; i++ {
				expanded[i] = centroid[i] + gamma*(reflected[i]-centroid[i])
			}
			expandedVal := f(expanded)

			if expandedVal < reflectedVal {
				simplex[n] = expanded
				values[n] = expandedVal
			} else {
				simplex[n] = reflected
				values[n] = reflectedVal
			}
			continue
		}

		// Contraction.
		contracted := make([]float64, n)
		if reflectedVal < values[n] {
			for i := 0; i < n; i++ {
				contracted[i] = centroid[i] + rho*(reflected[i]-centroid[i])
			}
		} else {
			for i := 0; i < n; i++ {
				contracted[i] = centroid[i] + rho*(simplex[n][i]-centroid[i])
			}
		}
		contractedVal := f(contracted)

		if contractedVal < math.Min(reflectedVal, values[n]) {
			simplex[n] = contracted
			values[n] = contractedVal
			continue
		}

		// Shrink.
		for i := 1; i <= n; i++ {
			for j := 0; j < n; j++ {
				simplex[i][j] = simplex[0][j] + sigma*(simplex[i][j]-simplex[0][j])
			}
			values[i] = f(simplex[i])
		}
	}

	sortSimplex(simplex, values)
	return simplex[0], values[0], opts.MaxIters, false
}

// sortSimplex sorts the simplex points by their function values.
func sortSimplex(simplex [][]float64, values []float64) {
	n := len(values)
	for i := 1; i < n; i++ {
		val := values[i]
		point := simplex[i]
		j := i - 1
		for j >= 0 && values[j] > val {
			values[j+1] = values[j]
			simplex[j+1] = simplex[j]
			j--
		}
		values[j+1] = val
		simplex[j+1] = point
	}
}
