package forecast

import (
	"math"
	"time"
)

const (
	yearlyPeriodDays = 365.25
	weeklyPeriodDays = 7.0
	secondsPerDay    = 86400.0
)

// featureSpec fixes the design-matrix layout chosen at fit time so that
// prediction builds identical columns for any date set, including dates
// beyond the training history.
//
// Column order: intercept, slope, changepoint hinges, yearly Fourier pairs,
// weekly Fourier pairs, optional binary regressor.
type featureSpec struct {
	origin       time.Time
	spanDays     float64
	changepoints []float64
	yearlyOrder  int
	weeklyOrder  int
	hasRegressor bool
}

func (s featureSpec) columns() int {
	n := 2 + len(s.changepoints) + 2*s.yearlyOrder + 2*s.weeklyOrder
	if s.hasRegressor {
		n++
	}
	return n
}

// normalize maps a date onto training time, 0 at the first training date and
// 1 at the last. Future dates extend past 1, which keeps the trend linear
// beyond the last changepoint.
func (s featureSpec) normalize(d time.Time) float64 {
	return d.Sub(s.origin).Hours() / 24 / s.spanDays
}

// row fills dst with the feature values for one date.
func (s featureSpec) row(d time.Time, regressor float64, dst []float64) {
	tn := s.normalize(d)
	i := 0
	dst[i] = 1
	i++
	dst[i] = tn
	i++
	for _, cp := range s.changepoints {
		if tn > cp {
			dst[i] = tn - cp
		} else {
			dst[i] = 0
		}
		i++
	}

	// Seasonality uses absolute calendar time so the phase of a date does
	// not depend on where the training window starts.
	days := float64(d.Unix()) / secondsPerDay
	for k := 1; k <= s.yearlyOrder; k++ {
		angle := 2 * math.Pi * float64(k) * days / yearlyPeriodDays
		dst[i] = math.Sin(angle)
		i++
		dst[i] = math.Cos(angle)
		i++
	}
	for k := 1; k <= s.weeklyOrder; k++ {
		angle := 2 * math.Pi * float64(k) * days / weeklyPeriodDays
		dst[i] = math.Sin(angle)
		i++
		dst[i] = math.Cos(angle)
		i++
	}
	if s.hasRegressor {
		dst[i] = regressor
	}
}

// penalties returns the per-column ridge weights implied by the smoothing
// priors: a small prior means a stiff component. Intercept and slope stay
// effectively unpenalized.
func (s featureSpec) penalties(trendPrior, seasonalityPrior, regressorPrior float64) []float64 {
	const base = 1e-8
	lam := make([]float64, s.columns())
	for i := range lam {
		lam[i] = base
	}
	i := 2
	for range s.changepoints {
		lam[i] += 1 / (trendPrior * trendPrior)
		i++
	}
	for k := 0; k < 2*s.yearlyOrder+2*s.weeklyOrder; k++ {
		lam[i] += 1 / (seasonalityPrior * seasonalityPrior)
		i++
	}
	if s.hasRegressor {
		lam[i] += 1 / (regressorPrior * regressorPrior)
	}
	return lam
}

// changepointGrid places n potential changepoints uniformly over the first
// coverage fraction of training time.
func changepointGrid(n int, coverage float64) []float64 {
	if n <= 0 {
		return nil
	}
	grid := make([]float64, n)
	for j := 1; j <= n; j++ {
		grid[j-1] = coverage * float64(j) / float64(n+1)
	}
	return grid
}
