package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/metroflow/metro-forecast/internal/engine"
	"github.com/metroflow/metro-forecast/internal/metrics"
	"github.com/metroflow/metro-forecast/internal/models"
	"github.com/metroflow/metro-forecast/internal/utils"
)

// StationRepo defines the data-collaborator operations the service needs.
type StationRepo interface {
	Stations(ctx context.Context) ([]models.StationInfo, error)
	TimeSeries(ctx context.Context, line, station string) (*models.StationTimeSeries, error)
	StationObservations(ctx context.Context, line, station string) ([]models.ObservationPoint, error)
	Refresh(ctx context.Context) error
}

// ForecastService is the application facade tying the data collaborator to
// the forecasting pipeline.
type ForecastService struct {
	logger    *slog.Logger
	repo      StationRepo
	pipeline  *engine.Pipeline
	latencies *utils.LatencyTracker
}

// NewForecastService constructs the service facade.
func NewForecastService(logger *slog.Logger, repo StationRepo, pipeline *engine.Pipeline) *ForecastService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForecastService{
		logger:    logger,
		repo:      repo,
		pipeline:  pipeline,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Stations lists every known station with summary metadata.
func (s *ForecastService) Stations(ctx context.Context) ([]models.StationInfo, error) {
	stations, err := s.repo.Stations(ctx)
	if err != nil {
		metrics.ObserveStationLookup(metrics.OutcomeError)
		return nil, err
	}
	metrics.ObserveStationLookup(metrics.OutcomeSuccess)
	return stations, nil
}

// TimeSeries returns the monthly view for one station.
func (s *ForecastService) TimeSeries(ctx context.Context, line, station string) (*models.StationTimeSeries, error) {
	ts, err := s.repo.TimeSeries(ctx, line, station)
	if err != nil {
		metrics.ObserveStationLookup(metrics.OutcomeError)
		return nil, err
	}
	metrics.ObserveStationLookup(metrics.OutcomeSuccess)
	return ts, nil
}

// RefreshStations drops the cached station list so the next listing rebuilds it.
func (s *ForecastService) RefreshStations(ctx context.Context) error {
	if err := s.repo.Refresh(ctx); err != nil {
		return err
	}
	s.logger.Info("station list cache invalidated")
	return nil
}

// Forecast runs the full pipeline for one station. Concurrent calls are
// independent recomputations; no per-station deduplication happens here.
func (s *ForecastService) Forecast(ctx context.Context, line, station string) (*models.StationForecast, error) {
	obs, err := s.repo.StationObservations(ctx, line, station)
	if err != nil {
		metrics.ObserveStationLookup(metrics.OutcomeError)
		return nil, err
	}
	metrics.ObserveStationLookup(metrics.OutcomeSuccess)

	s.logger.Debug("forecast requested",
		slog.String("line", line),
		slog.String("station", station),
		slog.Int("observations", len(obs)))

	start := time.Now()
	result, err := s.pipeline.GenerateForecast(ctx, obs)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveForecast(duration, metrics.OutcomeError)
		s.logger.Error("forecast pipeline failed",
			slog.String("line", line),
			slog.String("station", station),
			slog.Any("error", err))
		return nil, err
	}

	s.latencies.Observe(duration)
	metrics.ObserveForecast(duration, metrics.OutcomeSuccess)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("forecast latency",
			slog.Duration("p95", s.latencies.Percentile(95)),
			slog.Int("samples", count))
	}

	return &models.StationForecast{Line: line, Station: station, Forecast: result}, nil
}

// LatencyP95 returns the current p95 forecast latency.
func (s *ForecastService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}
