package engine

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/metroflow/metro-forecast/internal/anomaly"
	"github.com/metroflow/metro-forecast/internal/forecast"
	"github.com/metroflow/metro-forecast/internal/models"
	"github.com/metroflow/metro-forecast/internal/utils"
)

// ridershipFixture is three years of daily ridership with weekly shape and a
// five-month 50% collapse starting 2020-03-01.
func ridershipFixture() []models.ObservationPoint {
	start := time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC)
	dropStart := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	dropEnd := time.Date(2020, 7, 31, 0, 0, 0, 0, time.UTC)

	days := 1095
	obs := make([]models.ObservationPoint, 0, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		v := 50000 + 5000*math.Sin(2*math.Pi*float64(i)/7)
		if !d.Before(dropStart) && !d.After(dropEnd) {
			v *= 0.5
		}
		obs = append(obs, models.ObservationPoint{Date: d, Value: v})
	}
	return obs
}

func fixtureCandidates() []anomaly.Candidate {
	return []anomaly.Candidate{{
		Name:  "pandemic",
		Start: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2020, 7, 31, 0, 0, 0, 0, time.UTC),
	}}
}

func TestGenerateForecastEndToEnd(t *testing.T) {
	obs := ridershipFixture()
	p := NewPipeline(nil, Config{Candidates: fixtureCandidates()})

	result, err := p.GenerateForecast(context.Background(), obs)
	if err != nil {
		t.Fatalf("GenerateForecast: %v", err)
	}

	if len(result.Anomalies) != 1 {
		t.Fatalf("anomalies = %d, want 1", len(result.Anomalies))
	}
	if result.Anomalies[0].Name != "pandemic" {
		t.Errorf("anomaly name = %q", result.Anomalies[0].Name)
	}
	if result.Anomalies[0].ImpactPercent < 40 || result.Anomalies[0].ImpactPercent > 60 {
		t.Errorf("impact = %v, expected near 50", result.Anomalies[0].ImpactPercent)
	}

	// Train and test partition the history; future is 12 months of 30 days.
	if got := len(result.Train.Dates) + len(result.Test.Dates); got != len(obs) {
		t.Errorf("train+test = %d, want %d", got, len(obs))
	}
	if len(result.Test.Dates) != 180 {
		t.Errorf("test segment = %d days, want 180", len(result.Test.Dates))
	}
	if len(result.Future.Dates) != 360 {
		t.Errorf("future segment = %d days, want 360", len(result.Future.Dates))
	}

	// Components cover the full prediction range.
	wantRange := len(obs) + 360
	if len(result.Components.Trend) != wantRange {
		t.Errorf("trend component length = %d, want %d", len(result.Components.Trend), wantRange)
	}

	// Segments are contiguous and sorted.
	assertSortedDates(t, "train", result.Train.Dates)
	assertSortedDates(t, "test", result.Test.Dates)
	assertSortedDates(t, "future", result.Future.Dates)
	if result.Test.Dates[0] <= result.Train.Dates[len(result.Train.Dates)-1] {
		t.Error("test segment does not start after train segment")
	}
	if result.Future.Dates[0] <= result.Test.Dates[len(result.Test.Dates)-1] {
		t.Error("future segment does not start after test segment")
	}

	if result.Metrics == nil {
		t.Fatal("expected metrics for a non-empty test segment")
	}
	if result.Metrics.RMSE == nil || result.Metrics.MAPE == nil {
		t.Errorf("expected finite holdout metrics, got %+v", result.Metrics)
	}

	// Future actuals are all missing; future predictions exist.
	for i, a := range result.Future.Actual {
		if a != nil {
			t.Fatalf("future actual %d is set", i)
		}
	}
	assertAllFinite(t, "future predicted", result.Future.Predicted)
	assertAllFinite(t, "train predicted", result.Train.Predicted)
}

func assertSortedDates(t *testing.T, name string, dates []string) {
	t.Helper()
	for i := 1; i < len(dates); i++ {
		if dates[i] <= dates[i-1] {
			t.Fatalf("%s dates not strictly ascending at %d: %s then %s", name, i, dates[i-1], dates[i])
		}
	}
}

func assertAllFinite(t *testing.T, name string, values []*float64) {
	t.Helper()
	for i, v := range values {
		if v == nil {
			t.Fatalf("%s: value %d missing", name, i)
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			t.Fatalf("%s: value %d non-finite after sanitization", name, i)
		}
	}
}

func TestGenerateForecastDeterministic(t *testing.T) {
	obs := ridershipFixture()
	p := NewPipeline(nil, Config{Candidates: fixtureCandidates()})

	a, err := p.GenerateForecast(context.Background(), obs)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := p.GenerateForecast(context.Background(), obs)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs produced different results")
	}
}

func TestGenerateForecastEmptySeries(t *testing.T) {
	p := NewPipeline(nil, Config{})
	_, err := p.GenerateForecast(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for empty series")
	}
	if utils.KindOf(err) != utils.KindData {
		t.Errorf("error kind = %v, want KindData", utils.KindOf(err))
	}
}

func TestGenerateForecastTooFewTrainingPoints(t *testing.T) {
	// Two observations inside the holdout leave an empty training segment.
	obs := []models.ObservationPoint{
		{Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Value: 10},
		{Date: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), Value: 12},
	}
	p := NewPipeline(nil, Config{})
	_, err := p.GenerateForecast(context.Background(), obs)
	if err == nil {
		t.Fatal("expected fit error")
	}
	if utils.KindOf(err) != utils.KindFit {
		t.Errorf("error kind = %v, want KindFit", utils.KindOf(err))
	}
}

func TestGenerateForecastCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPipeline(nil, Config{})
	if _, err := p.GenerateForecast(ctx, ridershipFixture()); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestGenerateForecastNoCandidates(t *testing.T) {
	p := NewPipeline(nil, Config{})
	result, err := p.GenerateForecast(context.Background(), ridershipFixture())
	if err != nil {
		t.Fatalf("GenerateForecast: %v", err)
	}
	if result.Anomalies == nil {
		t.Fatal("anomalies must be an empty slice, not nil")
	}
	if len(result.Anomalies) != 0 {
		t.Errorf("anomalies = %d, want 0", len(result.Anomalies))
	}
}

func TestSanitizeNonFinite(t *testing.T) {
	staged := rawResult{
		trend:  []float64{1, math.NaN(), math.Inf(1)},
		yearly: []float64{0},
		weekly: []float64{0},
	}
	staged.test.dates = []time.Time{time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}
	staged.test.actual = []float64{math.NaN()}
	staged.test.point = []float64{5}
	staged.test.lower = []float64{math.Inf(-1)}
	staged.test.upper = []float64{6}
	staged.metrics = &forecast.Metrics{RMSE: 2, MAE: 1, MAPE: math.NaN(), R2: 0.5}

	result := sanitizeResult(staged)

	if result.Components.Trend[0] == nil || *result.Components.Trend[0] != 1 {
		t.Error("finite trend value lost")
	}
	if result.Components.Trend[1] != nil || result.Components.Trend[2] != nil {
		t.Error("non-finite trend values not replaced with the missing marker")
	}
	if result.Test.Dates[0] != "2023-01-01" {
		t.Errorf("test date = %q", result.Test.Dates[0])
	}
	if result.Test.Actual[0] != nil {
		t.Error("NaN actual not replaced with the missing marker")
	}
	if result.Test.Lower[0] != nil {
		t.Error("infinite lower bound not replaced with the missing marker")
	}
	if result.Test.Upper[0] == nil || *result.Test.Upper[0] != 6 {
		t.Error("finite upper bound lost")
	}
	if result.Metrics == nil {
		t.Fatal("metrics dropped")
	}
	if result.Metrics.MAPE != nil {
		t.Error("NaN MAPE not replaced with the missing marker")
	}
	if result.Metrics.RMSE == nil || *result.Metrics.RMSE != 2 {
		t.Error("finite RMSE lost")
	}
	if result.Anomalies == nil {
		t.Error("anomalies must sanitize to an empty slice")
	}
}
