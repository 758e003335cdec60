package training

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// CalculateMetrics summarizes predictions against labels and the classical
// baseline, per derivative channel. Ratios below 1 mean the model beats the
// baseline.
//
// Metric keys follow the target naming y_x, y_xx, ... for space derivatives
// and y_t for the time derivative.
func CalculateMetrics(predictions, labels, baseline [][][]float64, loss float64, derivativeOrders []int) map[string]float64 {
	channels := len(derivativeOrders) + 1
	targets := make([]string, 0, channels)
	for _, order := range derivativeOrders {
		targets = append(targets, "y_"+strings.Repeat("x", order))
	}
	targets = append(targets, "y_t")

	metrics := map[string]float64{
		"loss":  loss,
		"count": float64(len(labels)),
	}

	for ch, target := range targets {
		var sumAbsModel, sumAbsBase float64
		var sumSqModel, sumSqBase float64
		var sumLogRatio float64
		var below, count float64

		for b := range labels {
			for i := range labels[b] {
				dm := labels[b][i][ch] - predictions[b][i][ch]
				db := labels[b][i][ch] - baseline[b][i][ch]

				sumAbsModel += math.Abs(dm)
				sumAbsBase += math.Abs(db)
				sumSqModel += dm * dm
				sumSqBase += db * db
				sumLogRatio += math.Log(safeAbs(dm) / safeAbs(db))
				if dm*dm < db*db {
					below++
				}
				count++
			}
		}

		metrics["mae/"+target] = sumAbsModel / math.Max(sumAbsBase, 1e-300)
		metrics["rms_error/"+target] = math.Sqrt(sumSqModel / math.Max(sumSqBase, 1e-300))
		metrics["mean_abs_relative_error/"+target] = math.Exp(sumLogRatio / count)
		metrics["frac_below_baseline/"+target] = below / count
	}
	return metrics
}

// safeAbs returns the absolute value, guaranteed larger than a small
// epsilon.
func safeAbs(x float64) float64 {
	return math.Max(math.Abs(x), 1e-8)
}

// OneLine summarizes a metrics map into a single log line.
func OneLine(metrics map[string]float64) string {
	matching := func(like string) string {
		keys := make([]string, 0, len(metrics))
		for k := range metrics {
			if strings.Contains(k, like) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%1.4f", metrics[k])
		}
		return strings.Join(parts, "/")
	}

	return fmt.Sprintf("loss: %1.7f, abs_error: %s, rel_error: %s, below_baseline: %s",
		metrics["loss"],
		matching("mae"),
		matching("mean_abs_relative_error"),
		matching("frac_below_baseline"))
}
