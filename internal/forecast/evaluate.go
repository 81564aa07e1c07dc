package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Metrics holds holdout accuracy figures for a test segment. MAPE is NaN
// when every held-out actual is zero; the pipeline's sanitization turns that
// into the explicit missing marker rather than reporting a misleading zero.
type Metrics struct {
	RMSE float64
	MAE  float64
	MAPE float64
	R2   float64
}

// Evaluate compares held-out actuals against model predictions. An empty
// test segment yields zero metrics, not an error. Zero-valued actual days
// are excluded from the MAPE mean to keep the metric finite. R2 is 0 by
// convention for a constant test series.
func Evaluate(actual, predicted []float64) Metrics {
	n := len(actual)
	if len(predicted) < n {
		n = len(predicted)
	}
	if n == 0 {
		return Metrics{}
	}

	var sqSum, absSum, mapeSum float64
	mapeN := 0
	for i := 0; i < n; i++ {
		diff := actual[i] - predicted[i]
		sqSum += diff * diff
		absSum += math.Abs(diff)
		if actual[i] != 0 {
			mapeSum += math.Abs(diff / actual[i])
			mapeN++
		}
	}

	m := Metrics{
		RMSE: math.Sqrt(sqSum / float64(n)),
		MAE:  absSum / float64(n),
		MAPE: math.NaN(),
	}
	if mapeN > 0 {
		m.MAPE = mapeSum / float64(mapeN) * 100
	}

	meanActual := stat.Mean(actual[:n], nil)
	var ssTotal float64
	for i := 0; i < n; i++ {
		dev := actual[i] - meanActual
		ssTotal += dev * dev
	}
	if ssTotal > 0 {
		m.R2 = 1 - sqSum/ssTotal
	}
	return m
}
