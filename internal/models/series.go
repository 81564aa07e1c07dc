package models

import (
	"encoding/json"
	"time"
)

// DateLayout is the calendar-date format used across the service boundary.
const DateLayout = "2006-01-02"

// ObservationPoint is one day of ridership for a single station.
type ObservationPoint struct {
	Date  time.Time
	Value float64
}

// AnomalyWindow is a confirmed demand-shock interval. ImpactPercent is the
// relative drop against the trailing baseline, rounded to one decimal.
type AnomalyWindow struct {
	Name          string
	Start         time.Time
	End           time.Time
	ImpactPercent float64
}

// Contains reports whether d falls inside the inclusive window span.
func (w AnomalyWindow) Contains(d time.Time) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// MarshalJSON emits the window with calendar-date strings for the API payload.
func (w AnomalyWindow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name          string  `json:"name"`
		Start         string  `json:"start_date"`
		End           string  `json:"end_date"`
		ImpactPercent float64 `json:"impact_percent"`
	}{
		Name:          w.Name,
		Start:         w.Start.Format(DateLayout),
		End:           w.End.Format(DateLayout),
		ImpactPercent: w.ImpactPercent,
	})
}

// TrainTestSplit partitions a series at a cutoff date. Train holds every
// observation dated at or before the cutoff, Test everything after it.
type TrainTestSplit struct {
	Train  []ObservationPoint
	Test   []ObservationPoint
	Cutoff time.Time
}

// PredictionRow is a single model prediction with its uncertainty interval.
type PredictionRow struct {
	Date  time.Time
	Point float64
	Lower float64
	Upper float64
}
