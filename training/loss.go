package training

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/brucejunlee/data-driven-discretization-1d/field"
	"github.com/brucejunlee/data-driven-discretization-1d/model"
)

// minErrorFloor keeps the relative-error denominator strictly positive.
const minErrorFloor = 1e-12

// LossScales is the calibrated normalization state for the loss: one floor
// and two head scales (absolute, relative) per derivative channel. It is
// computed once per training configuration by DetermineLossScales and
// treated as read-only afterwards; no concurrent writers are permitted once
// calibration completes.
type LossScales struct {
	// ErrorFloor is added to the baseline squared error before dividing, so
	// positions where the baseline is exact cannot blow up the relative
	// head.
	ErrorFloor []float64

	// ErrorScale has shape (2, channels): row 0 scales the absolute squared
	// error head, row 1 the relative head. Chosen so an all-zero predictor
	// scores 1.0 per channel and head on the calibration data.
	ErrorScale [2][]float64
}

// LossComponents returns the elementwise squared model error and relative
// squared error of predictions against labels, with the baseline error plus
// the per-channel floor as the relative denominator. All tensors have shape
// (batch, x, channel).
func LossComponents(predictions, labels, baseline [][][]float64, errorFloor []float64) (modelError, relativeError [][][]float64) {
	modelError = make([][][]float64, len(labels))
	relativeError = make([][][]float64, len(labels))
	for b := range labels {
		me := make([][]float64, len(labels[b]))
		re := make([][]float64, len(labels[b]))
		for i := range labels[b] {
			meRow := make([]float64, len(labels[b][i]))
			reRow := make([]float64, len(labels[b][i]))
			for ch := range labels[b][i] {
				d := labels[b][i][ch] - predictions[b][i][ch]
				bd := labels[b][i][ch] - baseline[b][i][ch]
				meRow[ch] = d * d
				reRow[ch] = d * d / (bd*bd + errorFloor[ch])
			}
			me[i] = meRow
			re[i] = reRow
		}
		modelError[b] = me
		relativeError[b] = re
	}
	return modelError, relativeError
}

// DetermineLossScales calibrates the loss normalization from high-resolution
// snapshots.
//
// The per-channel error floor is a low quantile of the classical baseline's
// squared error, floored at a small positive constant. The per-channel
// scales are the reciprocals of the mean errors an all-zero predictor makes,
// so that a trivial predictor yields a normalized loss of exactly 1.0 per
// channel regardless of each channel's physical units. Channels whose mean
// zero-prediction error vanishes receive a zero (not infinite) scale.
func DetermineLossScales(snapshots field.Field, cfg Config) (*LossScales, error) {
	samples, err := model.PrepareSamples(snapshots, cfg.Config)
	if err != nil {
		return nil, err
	}
	return determineLossScales(samples, cfg)
}

func determineLossScales(samples *model.Samples, cfg Config) (*LossScales, error) {
	labels, baseline := samples.Labels, samples.Baseline
	if len(labels) == 0 || len(labels[0]) == 0 {
		return nil, fmt.Errorf("empty calibration dataset")
	}
	channels := len(labels[0][0])

	// Per-channel floor: a low quantile of the baseline squared error.
	floor := make([]float64, channels)
	for ch := 0; ch < channels; ch++ {
		var errs []float64
		for b := range labels {
			for i := range labels[b] {
				d := labels[b][i][ch] - baseline[b][i][ch]
				errs = append(errs, d*d)
			}
		}
		sort.Float64s(errs)
		q := stat.Quantile(cfg.ErrorFloorQuantile, stat.LinInterp, errs, nil)
		if q < minErrorFloor {
			q = minErrorFloor
		}
		floor[ch] = q
	}

	zero := make([][][]float64, len(labels))
	for b := range labels {
		rows := make([][]float64, len(labels[b]))
		for i := range labels[b] {
			rows[i] = make([]float64, channels)
		}
		zero[b] = rows
	}
	modelError, relativeError := LossComponents(zero, labels, baseline, floor)

	scales := &LossScales{ErrorFloor: floor}
	for h, component := range [][][][]float64{modelError, relativeError} {
		scale := make([]float64, channels)
		for ch := 0; ch < channels; ch++ {
			mean := channelMean(component, ch)
			if mean > 0 {
				scale[ch] = 1 / mean
			}
		}
		scales.ErrorScale[h] = scale
	}
	return scales, nil
}

// Loss combines absolute and relative squared errors into one scalar.
//
// Each head's per-channel mean is multiplied by the calibrated scale; the
// heads are mixed by RelativeErrorWeight, the channels by the space/time
// weighting, and everything sums to a single value interpretable as a
// fraction of the trivial-baseline error.
func Loss(predictions, labels, baseline [][][]float64, scales *LossScales, cfg Config) float64 {
	modelError, relativeError := LossComponents(predictions, labels, baseline, scales.ErrorFloor)

	channels := len(scales.ErrorFloor)
	numSpace := channels - 1

	absRelWeights := [2]float64{1 - cfg.RelativeErrorWeight, cfg.RelativeErrorWeight}
	spaceTimeWeights := make([]float64, channels)
	for ch := 0; ch < numSpace; ch++ {
		spaceTimeWeights[ch] = (1 - cfg.TimeDerivativeWeight) / float64(numSpace)
	}
	spaceTimeWeights[channels-1] = cfg.TimeDerivativeWeight

	total := 0.0
	for h, component := range [][][][]float64{modelError, relativeError} {
		for ch := 0; ch < channels; ch++ {
			normalized := channelMean(component, ch) * scales.ErrorScale[h][ch]
			total += absRelWeights[h] * spaceTimeWeights[ch] * normalized
		}
	}
	return total
}

// channelMean averages one channel of a (batch, x, channel) tensor over
// batch and position.
func channelMean(tensor [][][]float64, ch int) float64 {
	sum := 0.0
	count := 0
	for b := range tensor {
		for i := range tensor[b] {
			sum += tensor[b][i][ch]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
