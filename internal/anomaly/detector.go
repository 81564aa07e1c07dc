// Package anomaly confirms demand-shock windows in a ridership series and
// turns them into exogenous regressors for the forecast model.
package anomaly

import (
	"math"
	"time"

	"github.com/metroflow/metro-forecast/internal/models"
)

// Candidate is a pre-specified interval to evaluate against the series.
// The detector is a threshold rule, not a change-point search: it only
// confirms or rejects candidates, it never discovers new intervals.
type Candidate struct {
	Name  string
	Start time.Time
	End   time.Time
}

const (
	defaultBaselineDays = 365
	defaultThreshold    = 0.30
)

// Detector compares a candidate window's mean against a trailing baseline.
type Detector struct {
	baselineDays int
	threshold    float64
}

// NewDetector creates a detector. Non-positive arguments fall back to the
// 365-day baseline and 30% drop threshold.
func NewDetector(baselineDays int, threshold float64) *Detector {
	if baselineDays <= 0 {
		baselineDays = defaultBaselineDays
	}
	if threshold <= 0 || threshold >= 1 {
		threshold = defaultThreshold
	}
	return &Detector{baselineDays: baselineDays, threshold: threshold}
}

// Detect evaluates every candidate independently and returns the confirmed
// windows. A candidate is confirmed when its mean drops below the trailing
// baseline mean by more than the threshold; candidates with an empty
// baseline or no in-window observations are skipped.
func (d *Detector) Detect(obs []models.ObservationPoint, candidates []Candidate) []models.AnomalyWindow {
	var windows []models.AnomalyWindow
	for _, c := range candidates {
		baselineStart := c.Start.AddDate(0, 0, -d.baselineDays)
		baselineMean, baselineN := meanBetween(obs, baselineStart, c.Start.AddDate(0, 0, -1))
		if baselineN == 0 || baselineMean <= 0 {
			continue
		}

		windowMean, windowN := meanBetween(obs, c.Start, c.End)
		if windowN == 0 {
			continue
		}

		if windowMean < baselineMean*(1-d.threshold) {
			impact := math.Round((1-windowMean/baselineMean)*1000) / 10
			windows = append(windows, models.AnomalyWindow{
				Name:          c.Name,
				Start:         c.Start,
				End:           c.End,
				ImpactPercent: impact,
			})
		}
	}
	return windows
}

// meanBetween averages observations dated within [start, end] inclusive.
func meanBetween(obs []models.ObservationPoint, start, end time.Time) (float64, int) {
	sum := 0.0
	n := 0
	for _, o := range obs {
		if o.Date.Before(start) || o.Date.After(end) {
			continue
		}
		sum += o.Value
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}
