package models

// SegmentSeries holds aligned actual/predicted rows for one span of the
// prediction range. Slices are index-aligned with Dates; a nil entry is the
// explicit missing marker (serialised as JSON null) for values that are
// absent (no actual on future dates) or were non-finite before sanitization.
type SegmentSeries struct {
	Dates     []string   `json:"dates"`
	Actual    []*float64 `json:"actual"`
	Predicted []*float64 `json:"predicted"`
	Lower     []*float64 `json:"lower"`
	Upper     []*float64 `json:"upper"`
}

// MetricsReport carries holdout accuracy figures after sanitization.
type MetricsReport struct {
	RMSE *float64 `json:"rmse"`
	MAE  *float64 `json:"mae"`
	MAPE *float64 `json:"mape"`
	R2   *float64 `json:"r2"`
}

// Components are the additive decomposition contributions aligned to the
// full prediction range (train, then test, then future). Fields are always
// present; a component the model did not fit is an empty slice.
type Components struct {
	Trend  []*float64 `json:"trend"`
	Yearly []*float64 `json:"yearly"`
	Weekly []*float64 `json:"weekly"`
}

// ForecastResult is the sanitized output of one pipeline run. No numeric
// value in it is infinite or NaN; such values are nil instead.
type ForecastResult struct {
	Train      SegmentSeries   `json:"train"`
	Test       SegmentSeries   `json:"test"`
	Future     SegmentSeries   `json:"forecast"`
	Metrics    *MetricsReport  `json:"metrics"`
	Anomalies  []AnomalyWindow `json:"anomalies"`
	Components Components      `json:"components"`
}

// StationForecast wraps a forecast result with its station identity.
type StationForecast struct {
	Line     string          `json:"line"`
	Station  string          `json:"station"`
	Forecast *ForecastResult `json:"forecast"`
}
