// Package repo is the data collaborator: it loads the ridership CSV export,
// indexes it per station, and serves the station list, monthly time series
// views and the raw daily series the forecasting pipeline consumes.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/metroflow/metro-forecast/internal/cache"
	"github.com/metroflow/metro-forecast/internal/models"
	"github.com/metroflow/metro-forecast/internal/utils"
)

// ErrStationNotFound signals an unknown (line, station) pair.
var ErrStationNotFound = errors.New("station not found")

const stationListKey = "stations:list"

const defaultMinObservations = 90

type stationKey struct {
	Line    string
	Station string
}

// RidershipStore holds the full dataset in memory, keyed by normalized
// (line, station). The station list is the only cached derived view; its
// invalidation is the provider's TTL or an explicit Refresh.
type RidershipStore struct {
	logger          *slog.Logger
	cache           cache.Provider
	series          map[stationKey][]models.ObservationPoint
	keys            []stationKey
	minObservations int
}

// NewRidershipStore loads and preprocesses the CSV at path. minObservations
// is the soft threshold below which a forecast is flagged unreliable.
func NewRidershipStore(logger *slog.Logger, path string, provider cache.Provider, minObservations int) (*RidershipStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	if minObservations <= 0 {
		minObservations = defaultMinObservations
	}

	series, keys, err := loadCSV(logger, path)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, obs := range series {
		total += len(obs)
	}
	logger.Info("ridership data loaded",
		slog.String("path", path),
		slog.Int("stations", len(keys)),
		slog.Int("rows", total))

	return &RidershipStore{
		logger:          logger,
		cache:           provider,
		series:          series,
		keys:            keys,
		minObservations: minObservations,
	}, nil
}

// Stations returns every (line, station) pair with record count and mean
// ridership. The list is cached under the provider's TTL.
func (s *RidershipStore) Stations(ctx context.Context) ([]models.StationInfo, error) {
	if data, err := s.cache.Get(ctx, stationListKey); err == nil {
		var cached []models.StationInfo
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		// A corrupt entry is dropped and rebuilt.
		_ = s.cache.Del(ctx, stationListKey)
	}

	stations := make([]models.StationInfo, 0, len(s.keys))
	for _, key := range s.keys {
		obs := s.series[key]
		values := observationValues(obs)
		stations = append(stations, models.StationInfo{
			Line:          key.Line,
			Station:       key.Station,
			TotalRecords:  len(obs),
			MeanRidership: stat.Mean(values, nil),
		})
	}

	if data, err := json.Marshal(stations); err == nil {
		if err := s.cache.Set(ctx, stationListKey, data); err != nil {
			s.logger.Warn("station list cache store failed", slog.Any("error", err))
		} else {
			s.logger.Debug("station list cache rebuilt", slog.Int("stations", len(stations)))
		}
	}
	return stations, nil
}

// Refresh drops the cached station list so the next call rebuilds it.
func (s *RidershipStore) Refresh(ctx context.Context) error {
	return s.cache.Del(ctx, stationListKey)
}

// StationObservations returns the full daily series for one station, for use
// by the forecasting pipeline. Falling below the minimum observation count
// logs a warning but is not an error.
func (s *RidershipStore) StationObservations(ctx context.Context, line, station string) ([]models.ObservationPoint, error) {
	obs, key, err := s.lookup(line, station)
	if err != nil {
		return nil, err
	}
	if len(obs) < s.minObservations {
		s.logger.Warn("insufficient data for a reliable forecast",
			slog.String("line", key.Line),
			slog.String("station", key.Station),
			slog.Int("records", len(obs)),
			slog.Int("minimum", s.minObservations))
	}
	return obs, nil
}

// TimeSeries returns the monthly view of one station plus descriptive stats.
func (s *RidershipStore) TimeSeries(ctx context.Context, line, station string) (*models.StationTimeSeries, error) {
	obs, key, err := s.lookup(line, station)
	if err != nil {
		return nil, err
	}

	months := make(map[string][]float64)
	for _, o := range obs {
		m := o.Date.Format("2006-01")
		months[m] = append(months[m], o.Value)
	}
	keys := make([]string, 0, len(months))
	for m := range months {
		keys = append(keys, m)
	}
	sort.Strings(keys)

	monthly := make([]models.MonthlySummary, 0, len(keys))
	for _, m := range keys {
		values := months[m]
		std := 0.0
		if len(values) > 1 {
			std = stat.StdDev(values, nil)
		}
		monthly = append(monthly, models.MonthlySummary{
			Month: m,
			Mean:  stat.Mean(values, nil),
			Std:   std,
			Min:   floats.Min(values),
			Max:   floats.Max(values),
		})
	}

	return &models.StationTimeSeries{
		Line:    key.Line,
		Station: key.Station,
		Data:    monthly,
		Stats:   describeSeries(obs),
	}, nil
}

func (s *RidershipStore) lookup(line, station string) ([]models.ObservationPoint, stationKey, error) {
	key := stationKey{
		Line:    utils.NormalizeText(line),
		Station: utils.NormalizeText(station),
	}
	obs, ok := s.series[key]
	if !ok || len(obs) == 0 {
		return nil, key, fmt.Errorf("line %q station %q: %w", key.Line, key.Station, ErrStationNotFound)
	}
	return obs, key, nil
}

func describeSeries(obs []models.ObservationPoint) models.SeriesStats {
	values := observationValues(obs)
	maxIdx, minIdx := 0, 0
	for i, v := range values {
		if v > values[maxIdx] {
			maxIdx = i
		}
		if v < values[minIdx] {
			minIdx = i
		}
	}
	return models.SeriesStats{
		TotalRecords: len(obs),
		FirstDate:    obs[0].Date.Format(models.DateLayout),
		LastDate:     obs[len(obs)-1].Date.Format(models.DateLayout),
		DailyMean:    stat.Mean(values, nil),
		HistoricMax: models.ValueAt{
			Value: values[maxIdx],
			Date:  obs[maxIdx].Date.Format(models.DateLayout),
		},
		HistoricMin: models.ValueAt{
			Value: values[minIdx],
			Date:  obs[minIdx].Date.Format(models.DateLayout),
		},
	}
}

func observationValues(obs []models.ObservationPoint) []float64 {
	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.Value
	}
	return values
}
