// Package training provides the loss, its data-driven normalization, the
// evaluation metrics and the gradient-free parameter fitting used to train
// coefficient-prediction models, plus a SQLite-backed recorder for metric
// history.
package training

import (
	"github.com/brucejunlee/data-driven-discretization-1d/model"
)

// Config collects all training hyperparameters on top of the model
// configuration.
type Config struct {
	model.Config

	// BaseBatchSize is scaled by the resample factor to compute the batch
	// size used in training, so models trained at different resolutions see
	// the same number of data points per batch.
	BaseBatchSize int

	// RelativeErrorWeight interpolates between the absolute squared error
	// head (0) and the relative squared error head (1).
	RelativeErrorWeight float64

	// TimeDerivativeWeight is the share of the loss assigned to the time
	// derivative channel; the space channels split the remainder uniformly.
	TimeDerivativeWeight float64

	// LearningRates and LearningStops describe the piecewise-constant
	// learning schedule consumed by external optimizers.
	LearningRates []float64
	LearningStops []int

	// FracTraining is the fraction of snapshots used for training rather
	// than validation.
	FracTraining float64

	// ErrorFloorQuantile selects the quantile of the baseline squared error
	// used as the per-channel floor when normalizing relative errors.
	ErrorFloorQuantile float64

	// EvalInterval is the step frequency at which evaluations run.
	EvalInterval int
}

// DefaultConfig returns the standard training configuration for the named
// equation.
func DefaultConfig(equationName string) Config {
	return Config{
		Config:               model.DefaultConfig(equationName),
		BaseBatchSize:        128,
		RelativeErrorWeight:  1e-6,
		TimeDerivativeWeight: 1.0,
		LearningRates:        []float64{1e-3, 1e-4},
		LearningStops:        []int{20000, 40000},
		FracTraining:         0.8,
		ErrorFloorQuantile:   0.1,
		EvalInterval:         250,
	}
}

// BatchSize returns the effective batch size for this configuration.
func (c Config) BatchSize() int {
	return c.BaseBatchSize * c.ResampleFactor
}

// SplitSnapshots partitions snapshots into training and validation parts
// according to FracTraining.
func (c Config) SplitSnapshots(snapshots [][]float64) (training, validation [][]float64) {
	numTraining := int(float64(len(snapshots))*c.FracTraining + 0.5)
	if numTraining > len(snapshots) {
		numTraining = len(snapshots)
	}
	return snapshots[:numTraining], snapshots[numTraining:]
}
