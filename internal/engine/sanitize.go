package engine

import (
	"math"

	"github.com/metroflow/metro-forecast/internal/models"
)

// sanitizeResult converts a staged result into the boundary shape, replacing
// every non-finite numeric value with the explicit missing marker (nil, JSON
// null). Several metrics and interval bounds can legitimately be non-finite;
// none of them may leak past this step.
func sanitizeResult(staged rawResult) *models.ForecastResult {
	result := &models.ForecastResult{
		Train:     sanitizeSegment(staged.train),
		Test:      sanitizeSegment(staged.test),
		Future:    sanitizeSegment(staged.future),
		Anomalies: staged.anomalies,
		Components: models.Components{
			Trend:  sanitizeSlice(staged.trend),
			Yearly: sanitizeSlice(staged.yearly),
			Weekly: sanitizeSlice(staged.weekly),
		},
	}
	if staged.anomalies == nil {
		result.Anomalies = []models.AnomalyWindow{}
	}
	if staged.metrics != nil {
		result.Metrics = &models.MetricsReport{
			RMSE: finite(staged.metrics.RMSE),
			MAE:  finite(staged.metrics.MAE),
			MAPE: finite(staged.metrics.MAPE),
			R2:   finite(staged.metrics.R2),
		}
	}
	return result
}

func sanitizeSegment(seg rawSegment) models.SegmentSeries {
	out := models.SegmentSeries{
		Dates:     make([]string, len(seg.dates)),
		Actual:    make([]*float64, len(seg.dates)),
		Predicted: sanitizeSlice(seg.point),
		Lower:     sanitizeSlice(seg.lower),
		Upper:     sanitizeSlice(seg.upper),
	}
	for i, d := range seg.dates {
		out.Dates[i] = d.Format(models.DateLayout)
		if i < len(seg.actual) {
			out.Actual[i] = finite(seg.actual[i])
		}
	}
	return out
}

func sanitizeSlice(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = finite(v)
	}
	return out
}

// finite returns a pointer to v, or nil when v is NaN or infinite.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	u := v
	return &u
}
