package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/metroflow/metro-forecast/internal/engine"
	"github.com/metroflow/metro-forecast/internal/models"
)

type fakeRepo struct {
	stations  []models.StationInfo
	series    map[string][]models.ObservationPoint
	err       error
	refreshed bool
}

func (f *fakeRepo) Refresh(ctx context.Context) error {
	f.refreshed = true
	return f.err
}

func (f *fakeRepo) Stations(ctx context.Context) ([]models.StationInfo, error) {
	return f.stations, f.err
}

func (f *fakeRepo) TimeSeries(ctx context.Context, line, station string) (*models.StationTimeSeries, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.StationTimeSeries{Line: line, Station: station}, nil
}

func (f *fakeRepo) StationObservations(ctx context.Context, line, station string) ([]models.ObservationPoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	obs, ok := f.series[line+"/"+station]
	if !ok {
		return nil, errors.New("station not found")
	}
	return obs, nil
}

func dailySeries(days int) []models.ObservationPoint {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := make([]models.ObservationPoint, 0, days)
	for i := 0; i < days; i++ {
		v := 40000 + 3000*math.Sin(2*math.Pi*float64(i)/7)
		obs = append(obs, models.ObservationPoint{Date: start.AddDate(0, 0, i), Value: v})
	}
	return obs
}

func TestForecastHappyPath(t *testing.T) {
	repo := &fakeRepo{series: map[string][]models.ObservationPoint{
		"linea 1/pantitlan": dailySeries(800),
	}}
	svc := NewForecastService(nil, repo, engine.NewPipeline(nil, engine.Config{}))

	fc, err := svc.Forecast(context.Background(), "linea 1", "pantitlan")
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if fc.Line != "linea 1" || fc.Station != "pantitlan" {
		t.Errorf("identity = %s/%s", fc.Line, fc.Station)
	}
	if fc.Forecast == nil {
		t.Fatal("nil forecast payload")
	}
	if len(fc.Forecast.Future.Dates) != 360 {
		t.Errorf("future days = %d, want 360", len(fc.Forecast.Future.Dates))
	}
	if svc.LatencyP95() <= 0 {
		t.Error("expected a latency sample after a successful forecast")
	}
}

func TestForecastUnknownStation(t *testing.T) {
	repo := &fakeRepo{series: map[string][]models.ObservationPoint{}}
	svc := NewForecastService(nil, repo, engine.NewPipeline(nil, engine.Config{}))
	if _, err := svc.Forecast(context.Background(), "linea 1", "nowhere"); err == nil {
		t.Fatal("expected lookup error")
	}
	if svc.LatencyP95() != 0 {
		t.Error("failed lookup must not record latency")
	}
}

func TestForecastPipelineFailure(t *testing.T) {
	// A series too short to fit surfaces the pipeline error unchanged.
	repo := &fakeRepo{series: map[string][]models.ObservationPoint{
		"linea 1/pantitlan": dailySeries(1),
	}}
	svc := NewForecastService(nil, repo, engine.NewPipeline(nil, engine.Config{}))
	if _, err := svc.Forecast(context.Background(), "linea 1", "pantitlan"); err == nil {
		t.Fatal("expected pipeline error")
	}
}

func TestStationsPassThrough(t *testing.T) {
	want := []models.StationInfo{{Line: "linea 1", Station: "pantitlan", TotalRecords: 10}}
	svc := NewForecastService(nil, &fakeRepo{stations: want}, engine.NewPipeline(nil, engine.Config{}))

	got, err := svc.Stations(context.Background())
	if err != nil {
		t.Fatalf("Stations: %v", err)
	}
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("Stations = %+v", got)
	}

	failing := NewForecastService(nil, &fakeRepo{err: errors.New("boom")}, engine.NewPipeline(nil, engine.Config{}))
	if _, err := failing.Stations(context.Background()); err == nil {
		t.Error("expected repo error to pass through")
	}
	if _, err := failing.TimeSeries(context.Background(), "l", "s"); err == nil {
		t.Error("expected repo error to pass through")
	}
}

func TestRefreshStations(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewForecastService(nil, repo, engine.NewPipeline(nil, engine.Config{}))
	if err := svc.RefreshStations(context.Background()); err != nil {
		t.Fatalf("RefreshStations: %v", err)
	}
	if !repo.refreshed {
		t.Error("refresh not forwarded to the repo")
	}
}
