// Package series validates and reshapes raw per-station observations into
// the canonical daily sequence the forecasting pipeline operates on.
package series

import (
	"fmt"
	"math"
	"sort"

	"github.com/metroflow/metro-forecast/internal/models"
	"github.com/metroflow/metro-forecast/internal/utils"
)

// Prepare asserts shape invariants on a raw observation slice and returns a
// canonical copy: dates truncated to UTC calendar days, sorted strictly
// ascending. It does not interpolate or clip; that belongs to the upstream
// data collaborator. Duplicate dates, non-finite values and negative values
// are rejected with a data error.
func Prepare(raw []models.ObservationPoint) ([]models.ObservationPoint, error) {
	if len(raw) == 0 {
		return nil, utils.DataError("prepare", "empty observation series", nil)
	}

	prepared := make([]models.ObservationPoint, len(raw))
	for i, obs := range raw {
		if obs.Date.IsZero() {
			return nil, utils.DataError("prepare", fmt.Sprintf("observation %d has no date", i), nil)
		}
		if math.IsNaN(obs.Value) || math.IsInf(obs.Value, 0) {
			return nil, utils.DataError("prepare", fmt.Sprintf("non-finite value on %s", obs.Date.Format(models.DateLayout)), nil)
		}
		if obs.Value < 0 {
			return nil, utils.DataError("prepare", fmt.Sprintf("negative value on %s", obs.Date.Format(models.DateLayout)), nil)
		}
		prepared[i] = models.ObservationPoint{
			Date:  utils.TruncateToDay(obs.Date),
			Value: obs.Value,
		}
	}

	sort.Slice(prepared, func(i, j int) bool { return prepared[i].Date.Before(prepared[j].Date) })

	for i := 1; i < len(prepared); i++ {
		if prepared[i].Date.Equal(prepared[i-1].Date) {
			return nil, utils.DataError("prepare", fmt.Sprintf("duplicate date %s", prepared[i].Date.Format(models.DateLayout)), nil)
		}
	}

	return prepared, nil
}
