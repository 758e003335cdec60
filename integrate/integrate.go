// Package integrate implements explicit Runge-Kutta time integration for
// spatially discretized evolution equations, with adaptive step size
// control. The right-hand side is any function of (t, u); constructors wrap
// learned and classical finite-difference discretizations into problems.
package integrate

import (
	"math"
)

// Func computes the time derivative du/dt given time t and state u.
type Func func(t float64, u []float64) []float64

// Problem is an initial value problem du/dt = F(t, u), u(t0) = U0.
type Problem struct {
	F     Func
	U0    []float64
	Tspan [2]float64 // Time span [t0, tf]
}

// Options contains integrator configuration parameters.
type Options struct {
	Dt       float64 // Initial time step
	Dtmin    float64 // Minimum time step
	Dtmax    float64 // Maximum time step
	Abstol   float64 // Absolute error tolerance
	Reltol   float64 // Relative error tolerance
	Maxiters int     // Maximum number of steps
	Adaptive bool    // Use adaptive step size control
}

// DefaultOptions returns balanced settings suitable for most problems.
func DefaultOptions() *Options {
	return &Options{
		Dt:       1e-3,
		Dtmin:    1e-8,
		Dtmax:    0.1,
		Abstol:   1e-6,
		Reltol:   1e-3,
		Maxiters: 1000000,
		Adaptive: true,
	}
}

// AccurateOptions returns options for high-precision integration, at the
// cost of many more right-hand-side evaluations.
func AccurateOptions() *Options {
	return &Options{
		Dt:       1e-4,
		Dtmin:    1e-10,
		Dtmax:    0.01,
		Abstol:   1e-9,
		Reltol:   1e-6,
		Maxiters: 10000000,
		Adaptive: true,
	}
}

// StiffOptions returns options for equations with widely varying time
// scales, such as high-order dissipative terms on fine grids.
func StiffOptions() *Options {
	return &Options{
		Dt:       1e-5,
		Dtmin:    1e-12,
		Dtmax:    1e-3,
		Abstol:   1e-8,
		Reltol:   1e-5,
		Maxiters: 10000000,
		Adaptive: true,
	}
}

// FixedStepOptions returns non-adaptive options with the given step.
// Use with methods that carry no embedded error estimator.
func FixedStepOptions(dt float64, maxiters int) *Options {
	return &Options{
		Dt:       dt,
		Dtmin:    dt,
		Dtmax:    dt,
		Maxiters: maxiters,
		Adaptive: false,
	}
}

// Method is an explicit Runge-Kutta method in Butcher tableau form.
type Method struct {
	Name  string
	Order int
	C     []float64   // Runge-Kutta nodes
	A     [][]float64 // Runge-Kutta matrix
	B     []float64   // Solution weights
	Bhat  []float64   // Error estimate weights
}

// Solution is the computed trajectory of an initial value problem.
type Solution struct {
	T []float64   // Time points
	U [][]float64 // State at each time point
}

// Final returns the state at the last accepted step.
func (s *Solution) Final() []float64 {
	if len(s.U) == 0 {
		return nil
	}
	return s.U[len(s.U)-1]
}

// At returns the state at time point index i, or nil when out of range.
func (s *Solution) At(i int) []float64 {
	if i < 0 || i >= len(s.U) {
		return nil
	}
	return s.U[i]
}

// Sample returns the trajectory downsampled to at most n evenly spaced
// snapshots, always including the first and last.
func (s *Solution) Sample(n int) *Solution {
	if n >= len(s.T) || n < 2 {
		return s
	}
	t := make([]float64, n)
	u := make([][]float64, n)
	for i := 0; i < n; i++ {
		j := i * (len(s.T) - 1) / (n - 1)
		t[i] = s.T[j]
		u[i] = s.U[j]
	}
	return &Solution{T: t, U: u}
}

// Solve integrates the problem with the given method and options.
// Nil method and options select Tsit5 with default settings. Integration
// stops early when the state stops being finite; the returned trajectory
// contains only accepted finite steps.
func Solve(prob *Problem, method *Method, opts *Options) *Solution {
	if method == nil {
		method = Tsit5()
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	t0 := prob.Tspan[0]
	tf := prob.Tspan[1]
	f := prob.F
	n := len(prob.U0)

	tOut := []float64{t0}
	uOut := [][]float64{append([]float64(nil), prob.U0...)}
	tcur := t0
	ucur := append([]float64(nil), prob.U0...)
	dtcur := opts.Dt
	nsteps := 0

	numStages := len(method.C)

	for tcur < tf && nsteps < opts.Maxiters {
		if tcur+dtcur > tf {
			dtcur = tf - tcur
		}

		k := make([][]float64, numStages)
		k[0] = f(tcur, ucur)

		for stage := 1; stage < numStages; stage++ {
			tstage := tcur + method.C[stage]*dtcur
			ustage := append([]float64(nil), ucur...)
			for j := 0; j < stage; j++ {
				aj := 0.0
				if len(method.A) > stage && len(method.A[stage]) > j {
					aj = method.A[stage][j]
				}
				if aj != 0 {
					scale := dtcur * aj
					for i := 0; i < n; i++ {
						ustage[i] += scale * k[j][i]
					}
				}
			}
			k[stage] = f(tstage, ustage)
		}

		unext := append([]float64(nil), ucur...)
		for j := 0; j < len(method.B); j++ {
			if method.B[j] != 0 {
				scale := dtcur * method.B[j]
				for i := 0; i < n; i++ {
					unext[i] += scale * k[j][i]
				}
			}
		}

		if !isFinite(unext) {
			break
		}

		err := 0.0
		if opts.Adaptive {
			for i := 0; i < n; i++ {
				errest := 0.0
				for j := 0; j < len(method.Bhat); j++ {
					errest += dtcur * method.Bhat[j] * k[j][i]
				}
				scale := opts.Abstol + opts.Reltol*math.Max(math.Abs(ucur[i]), math.Abs(unext[i]))
				if scale == 0 {
					scale = opts.Abstol
				}
				val := math.Abs(errest) / scale
				if val > err {
					err = val
				}
			}
		}

		if !opts.Adaptive || err <= 1.0 || dtcur <= opts.Dtmin {
			tcur += dtcur
			ucur = unext
			tOut = append(tOut, tcur)
			uOut = append(uOut, append([]float64(nil), ucur...))
			nsteps++

			if opts.Adaptive && err > 0 {
				factor := 0.9 * math.Pow(1.0/err, 1.0/float64(method.Order+1))
				factor = math.Min(factor, 5.0)
				dtcur = math.Min(opts.Dtmax, math.Max(opts.Dtmin, dtcur*factor))
			}
		} else {
			factor := 0.9 * math.Pow(1.0/err, 1.0/float64(method.Order+1))
			factor = math.Max(factor, 0.1)
			dtcur = math.Max(opts.Dtmin, dtcur*factor)
		}
	}

	return &Solution{T: tOut, U: uOut}
}

func isFinite(u []float64) bool {
	for _, v := range u {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
