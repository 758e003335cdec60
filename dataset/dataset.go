// Package dataset generates and stores training snapshots: solution states
// of an evolution equation sampled from long high-resolution trajectories.
package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/brucejunlee/data-driven-discretization-1d/equation"
	"github.com/brucejunlee/data-driven-discretization-1d/field"
	"github.com/brucejunlee/data-driven-discretization-1d/integrate"
)

// GenerateConfig configures snapshot generation.
type GenerateConfig struct {
	Equation     string // Equation name from the registry
	Conservative bool   // Use the flux-form variant
	Width        int    // Number of grid points

	NumTrajectories      int     // Independent trajectories to integrate
	SamplesPerTrajectory int     // Snapshots kept per trajectory
	WarmupTime           float64 // Integration time discarded before sampling
	SampleTime           float64 // Integration time covered by the samples

	NumModes  int     // Sine modes in the random initial condition
	Amplitude float64 // Maximum amplitude per mode
	Seed      int64   // Random seed
}

// DefaultGenerateConfig returns generation settings suitable for training.
func DefaultGenerateConfig(equationName string) GenerateConfig {
	return GenerateConfig{
		Equation:             equationName,
		Conservative:         true,
		Width:                256,
		NumTrajectories:      10,
		SamplesPerTrajectory: 100,
		WarmupTime:           1.0,
		SampleTime:           10.0,
		NumModes:             3,
		Amplitude:            1.0,
		Seed:                 1,
	}
}

// Generate integrates the classical discretization of the configured
// equation from random initial conditions and returns the sampled states as
// one batch of snapshots.
func Generate(cfg GenerateConfig) (field.Field, error) {
	if cfg.NumTrajectories < 1 || cfg.SamplesPerTrajectory < 1 {
		return nil, fmt.Errorf("need at least one trajectory and one sample, got %d and %d",
			cfg.NumTrajectories, cfg.SamplesPerTrajectory)
	}
	eq, err := equation.New(cfg.Equation, cfg.Conservative, cfg.Width)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	var snapshots field.Field

	for tr := 0; tr < cfg.NumTrajectories; tr++ {
		u0 := randomInitialCondition(rng, cfg.Width, cfg.NumModes, cfg.Amplitude)

		if cfg.WarmupTime > 0 {
			warm := integrate.Solve(
				integrate.BaselineProblem(eq, u0, [2]float64{0, cfg.WarmupTime}), nil, nil)
			u0 = warm.Final()
		}

		sol := integrate.Solve(
			integrate.BaselineProblem(eq, u0, [2]float64{0, cfg.SampleTime}), nil, nil)
		if len(sol.U) < cfg.SamplesPerTrajectory {
			return nil, fmt.Errorf("trajectory %d diverged after %d steps", tr, len(sol.U))
		}
		snapshots = append(snapshots, sol.Sample(cfg.SamplesPerTrajectory).U...)
	}
	return snapshots, nil
}

// randomInitialCondition sums sine modes with random amplitudes and phases.
func randomInitialCondition(rng *rand.Rand, width, numModes int, amplitude float64) []float64 {
	u := make([]float64, width)
	for m := 1; m <= numModes; m++ {
		a := amplitude * (2*rng.Float64() - 1)
		phase := 2 * math.Pi * rng.Float64()
		for i := range u {
			x := 2 * math.Pi * float64(i) / float64(width)
			u[i] += a * math.Sin(float64(m)*x+phase)
		}
	}
	return u
}
