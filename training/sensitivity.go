package training

import (
	"math"
	"sort"

	"github.com/brucejunlee/data-driven-discretization-1d/model"
)

// SensitivityResult holds per-parameter loss sensitivities.
type SensitivityResult struct {
	Baseline  float64   // Loss with the current parameters
	Gradients []float64 // Central-difference loss gradient per parameter
	Ranking   []int     // Parameter indices sorted by absolute gradient
}

// Sensitivity estimates how strongly the loss depends on each model
// parameter, by central finite differences with the given step. The model's
// parameters are restored before returning.
func Sensitivity(m *model.Model, samples *model.Samples, scales *LossScales, cfg Config, step float64) (*SensitivityResult, error) {
	params := m.GetParams()
	defer m.SetParams(params)

	evaluate := func(p []float64) (float64, error) {
		m.SetParams(p)
		predictions, err := m.PredictAllDerivatives(samples.Inputs, true)
		if err != nil {
			return 0, err
		}
		return Loss(predictions, samples.Labels, samples.Baseline, scales, cfg), nil
	}

	baseline, err := evaluate(params)
	if err != nil {
		return nil, err
	}

	gradients := make([]float64, len(params))
	probe := append([]float64(nil), params...)
	for i := range params {
		probe[i] = params[i] + step
		up, err := evaluate(probe)
		if err != nil {
			return nil, err
		}
		probe[i] = params[i] - step
		down, err := evaluate(probe)
		if err != nil {
			return nil, err
		}
		probe[i] = params[i]
		gradients[i] = (up - down) / (2 * step)
	}

	ranking := make([]int, len(gradients))
	for i := range ranking {
		ranking[i] = i
	}
	sort.Slice(ranking, func(a, b int) bool {
		return math.Abs(gradients[ranking[a]]) > math.Abs(gradients[ranking[b]])
	})

	return &SensitivityResult{
		Baseline:  baseline,
		Gradients: gradients,
		Ranking:   ranking,
	}, nil
}
