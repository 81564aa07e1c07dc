package anomaly

import (
	"time"

	"github.com/metroflow/metro-forecast/internal/models"
)

// Regressor maps calendar dates onto a binary indicator: 1 inside any
// confirmed anomaly window, 0 elsewhere. It is a pure function of the window
// set, so it works for dates beyond the training history.
type Regressor struct {
	windows []models.AnomalyWindow
}

// NewRegressor builds a regressor from confirmed windows; the empty set is valid.
func NewRegressor(windows []models.AnomalyWindow) *Regressor {
	return &Regressor{windows: windows}
}

// Empty reports whether no anomaly windows were confirmed.
func (r *Regressor) Empty() bool {
	return len(r.windows) == 0
}

// Active reports whether d lies inside any window's inclusive span.
func (r *Regressor) Active(d time.Time) bool {
	for _, w := range r.windows {
		if w.Contains(d) {
			return true
		}
	}
	return false
}

// Series returns the indicator values aligned to dates. It returns nil when
// no windows exist so callers can pass it straight to the model as the
// optional regressor column.
func (r *Regressor) Series(dates []time.Time) []float64 {
	if r.Empty() {
		return nil
	}
	values := make([]float64, len(dates))
	for i, d := range dates {
		if r.Active(d) {
			values[i] = 1
		}
	}
	return values
}
