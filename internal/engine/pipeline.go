// Package engine orchestrates one forecast request: prepare, split, detect
// anomalies, build regressors, fit, predict, segment, evaluate, sanitize.
// A pipeline run owns every intermediate object; nothing is cached or shared
// across requests, and any stage failure aborts the whole run.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/metroflow/metro-forecast/internal/anomaly"
	"github.com/metroflow/metro-forecast/internal/forecast"
	"github.com/metroflow/metro-forecast/internal/models"
	"github.com/metroflow/metro-forecast/internal/series"
)

// Config fixes the pipeline constants for the process lifetime.
type Config struct {
	HorizonMonths    int
	HoldoutDays      int
	BaselineDays     int
	AnomalyThreshold float64
	Candidates       []anomaly.Candidate
	Model            forecast.Config
}

func (c Config) withDefaults() Config {
	if c.HorizonMonths <= 0 {
		c.HorizonMonths = 12
	}
	if c.HoldoutDays <= 0 {
		c.HoldoutDays = 180
	}
	if c.BaselineDays <= 0 {
		c.BaselineDays = 365
	}
	if c.AnomalyThreshold <= 0 {
		c.AnomalyThreshold = 0.30
	}
	return c
}

// Pipeline runs the forecasting flow. It is stateless between requests and
// safe for concurrent use; each run constructs its own model instance.
type Pipeline struct {
	logger   *slog.Logger
	cfg      Config
	detector *anomaly.Detector
}

// NewPipeline constructs a pipeline with the given constants.
func NewPipeline(logger *slog.Logger, cfg Config) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Pipeline{
		logger:   logger,
		cfg:      cfg,
		detector: anomaly.NewDetector(cfg.BaselineDays, cfg.AnomalyThreshold),
	}
}

// GenerateForecast runs the whole pipeline over a station's raw observations
// and returns the sanitized result. Once fitting starts the run goes to
// completion; callers wanting timeouts must supervise externally.
func (p *Pipeline) GenerateForecast(ctx context.Context, raw []models.ObservationPoint) (*models.ForecastResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prepared, err := series.Prepare(raw)
	if err != nil {
		return nil, err
	}

	split := series.Split(prepared, p.cfg.HoldoutDays)
	windows := p.detector.Detect(prepared, p.cfg.Candidates)
	for _, w := range windows {
		p.logger.Info("anomaly window confirmed",
			slog.String("name", w.Name),
			slog.Float64("impact_percent", w.ImpactPercent))
	}
	regressor := anomaly.NewRegressor(windows)

	model := forecast.NewModel(p.cfg.Model, p.logger)
	if err := model.Fit(split.Train, regressor.Series(series.Dates(split.Train))); err != nil {
		return nil, err
	}

	last := prepared[len(prepared)-1].Date
	fullRange := append(series.Dates(prepared), series.FutureDates(last, p.cfg.HorizonMonths)...)

	pred, err := model.Predict(fullRange, regressor.Series(fullRange))
	if err != nil {
		return nil, err
	}

	staged := p.segment(prepared, split.Cutoff, last, fullRange, pred)
	staged.anomalies = windows

	if len(staged.test.dates) > 0 {
		metrics := forecast.Evaluate(staged.test.actual, staged.test.point)
		staged.metrics = &metrics
	}

	result := sanitizeResult(staged)
	p.logger.Debug("forecast generated",
		slog.Int("history", len(prepared)),
		slog.Int("future", len(fullRange)-len(prepared)),
		slog.Int("anomalies", len(windows)),
		slog.Bool("degraded", model.Degraded()))
	return result, nil
}

// rawSegment accumulates one span of the prediction range before sanitization.
type rawSegment struct {
	dates  []time.Time
	actual []float64 // empty for the future segment
	point  []float64
	lower  []float64
	upper  []float64
}

func (s *rawSegment) add(row models.PredictionRow, actual float64, hasActual bool) {
	s.dates = append(s.dates, row.Date)
	if hasActual {
		s.actual = append(s.actual, actual)
	}
	s.point = append(s.point, row.Point)
	s.lower = append(s.lower, row.Lower)
	s.upper = append(s.upper, row.Upper)
}

type rawResult struct {
	train, test, future rawSegment
	metrics             *forecast.Metrics
	anomalies           []models.AnomalyWindow
	trend               []float64
	yearly              []float64
	weekly              []float64
}

// segment splits the full-range predictions into train/test/future spans by
// the cutoff and last historical date. The first len(prepared) entries of the
// full range are exactly the historical dates, so actuals align by index.
func (p *Pipeline) segment(prepared []models.ObservationPoint, cutoff, last time.Time, fullRange []time.Time, pred *forecast.Prediction) rawResult {
	out := rawResult{
		trend:  pred.Trend,
		yearly: pred.Yearly,
		weekly: pred.Weekly,
	}
	for i, row := range pred.Rows {
		switch {
		case !row.Date.After(cutoff):
			out.train.add(row, prepared[i].Value, true)
		case !row.Date.After(last):
			out.test.add(row, prepared[i].Value, true)
		default:
			out.future.add(row, 0, false)
		}
	}
	return out
}
