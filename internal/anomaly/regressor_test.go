package anomaly

import (
	"testing"
	"time"

	"github.com/metroflow/metro-forecast/internal/models"
)

func TestRegressorIndicator(t *testing.T) {
	window := models.AnomalyWindow{
		Name:  "covid",
		Start: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2020, 8, 31, 0, 0, 0, 0, time.UTC),
	}
	r := NewRegressor([]models.AnomalyWindow{window})

	dates := []time.Time{
		time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC), // day before
		time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),  // inclusive start
		time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC), // inside
		time.Date(2020, 8, 31, 0, 0, 0, 0, time.UTC), // inclusive end
		time.Date(2020, 9, 1, 0, 0, 0, 0, time.UTC),  // day after
	}
	want := []float64{0, 1, 1, 1, 0}

	values := r.Series(dates)
	if len(values) != len(dates) {
		t.Fatalf("series length = %d, want %d", len(values), len(dates))
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("indicator for %v = %v, want %v", dates[i], values[i], want[i])
		}
	}
}

func TestRegressorCoversFutureDates(t *testing.T) {
	// Windows are calendar intervals, so the indicator must evaluate for
	// dates far beyond any training history.
	window := models.AnomalyWindow{
		Name:  "closure",
		Start: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2030, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	r := NewRegressor([]models.AnomalyWindow{window})
	if !r.Active(time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Error("expected future in-window date to be active")
	}
	if r.Active(time.Date(2030, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("expected future out-of-window date to be inactive")
	}
}

func TestRegressorEmpty(t *testing.T) {
	r := NewRegressor(nil)
	if !r.Empty() {
		t.Error("expected Empty for nil window set")
	}
	if r.Active(time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("empty regressor must never be active")
	}
	if values := r.Series([]time.Time{time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)}); values != nil {
		t.Errorf("expected nil series for empty regressor, got %v", values)
	}
}
