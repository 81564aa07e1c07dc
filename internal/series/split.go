package series

import (
	"time"

	"github.com/metroflow/metro-forecast/internal/models"
)

// daysPerMonth approximates one forecast month of daily rows.
const daysPerMonth = 30

// Split partitions a prepared series at cutoff = max date - holdout days.
// Train holds observations dated at or before the cutoff, test everything
// after; the partition is exhaustive and keeps the input order.
func Split(obs []models.ObservationPoint, holdoutDays int) models.TrainTestSplit {
	if len(obs) == 0 {
		return models.TrainTestSplit{}
	}

	cutoff := obs[len(obs)-1].Date.AddDate(0, 0, -holdoutDays)
	split := models.TrainTestSplit{Cutoff: cutoff}
	for _, o := range obs {
		if !o.Date.After(cutoff) {
			split.Train = append(split.Train, o)
		} else {
			split.Test = append(split.Test, o)
		}
	}
	return split
}

// FutureDates returns horizonMonths worth of consecutive calendar days
// immediately after the last historical date.
func FutureDates(last time.Time, horizonMonths int) []time.Time {
	if horizonMonths <= 0 {
		return nil
	}
	days := horizonMonths * daysPerMonth
	dates := make([]time.Time, 0, days)
	for i := 1; i <= days; i++ {
		dates = append(dates, last.AddDate(0, 0, i))
	}
	return dates
}

// Dates projects the date column out of an observation sequence.
func Dates(obs []models.ObservationPoint) []time.Time {
	dates := make([]time.Time, len(obs))
	for i, o := range obs {
		dates[i] = o.Date
	}
	return dates
}
