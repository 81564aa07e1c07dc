package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the forecast service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Data     DataConfig     `yaml:"data"`
	Forecast ForecastConfig `yaml:"forecast"`
	Logging  LoggingConfig  `yaml:"logging"`
	Cache    CacheConfig    `yaml:"cache"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address" validate:"required"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// DataConfig locates the ridership dataset.
type DataConfig struct {
	CSVPath         string `yaml:"csvPath" validate:"required"`
	MinObservations int    `yaml:"minObservations" validate:"gte=0"`
}

// ForecastConfig carries the pipeline constants. All are fixed per process,
// never per request.
type ForecastConfig struct {
	HorizonMonths    int               `yaml:"horizonMonths" validate:"gte=1"`
	HoldoutDays      int               `yaml:"holdoutDays" validate:"gte=1"`
	BaselineDays     int               `yaml:"baselineDays" validate:"gte=1"`
	AnomalyThreshold float64           `yaml:"anomalyThreshold" validate:"gt=0,lt=1"`
	TrendPrior       float64           `yaml:"trendPrior" validate:"gt=0"`
	SeasonalityPrior float64           `yaml:"seasonalityPrior" validate:"gt=0"`
	Candidates       []CandidateConfig `yaml:"candidates" validate:"dive"`
}

// CandidateConfig is one anomaly candidate window, dates as YYYY-MM-DD.
type CandidateConfig struct {
	Name  string `yaml:"name" validate:"required"`
	Start string `yaml:"start" validate:"required,datetime=2006-01-02"`
	End   string `yaml:"end" validate:"required,datetime=2006-01-02"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig controls the station-list cache.
type CacheConfig struct {
	StationsTTL time.Duration `yaml:"stationsTTL"`
	MaxEntries  int           `yaml:"maxEntries" validate:"gte=0"`
}

// Load initialises Config from a YAML file, environment overrides, and
// defaults, then validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("METRO_FORECAST_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8000",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Data: DataConfig{
			CSVPath:         "data/afluenciastc_simple_02_2024.csv",
			MinObservations: 90,
		},
		Forecast: ForecastConfig{
			HorizonMonths:    12,
			HoldoutDays:      180,
			BaselineDays:     365,
			AnomalyThreshold: 0.30,
			TrendPrior:       0.05,
			SeasonalityPrior: 10.0,
			Candidates: []CandidateConfig{
				{Name: "COVID-19", Start: "2020-03-01", End: "2020-08-31"},
			},
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Cache: CacheConfig{
			StationsTTL: 15 * time.Minute,
			MaxEntries:  64,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("METRO_FORECAST_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("METRO_FORECAST_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("METRO_FORECAST_CSV_PATH"); v != "" {
		cfg.Data.CSVPath = v
	}
	if v := os.Getenv("METRO_FORECAST_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("METRO_FORECAST_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("METRO_FORECAST_HORIZON_MONTHS"); v != "" {
		if months, err := strconv.Atoi(v); err == nil {
			cfg.Forecast.HorizonMonths = months
		}
	}
	if v := os.Getenv("METRO_FORECAST_HOLDOUT_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.Forecast.HoldoutDays = days
		}
	}
	if v := os.Getenv("METRO_FORECAST_ANOMALY_THRESHOLD"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Forecast.AnomalyThreshold = t
		}
	}
	if v := os.Getenv("METRO_FORECAST_STATIONS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.StationsTTL = d
		}
	}
	if v := os.Getenv("METRO_FORECAST_DISABLE_CANDIDATES"); strings.EqualFold(v, "true") || v == "1" {
		cfg.Forecast.Candidates = nil
	}
}
