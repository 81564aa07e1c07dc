package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/metroflow/metro-forecast/internal/anomaly"
	"github.com/metroflow/metro-forecast/internal/api"
	"github.com/metroflow/metro-forecast/internal/cache"
	"github.com/metroflow/metro-forecast/internal/config"
	"github.com/metroflow/metro-forecast/internal/engine"
	"github.com/metroflow/metro-forecast/internal/forecast"
	"github.com/metroflow/metro-forecast/internal/metrics"
	"github.com/metroflow/metro-forecast/internal/repo"
	"github.com/metroflow/metro-forecast/internal/services"
	"github.com/metroflow/metro-forecast/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting metro-forecast", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	cacheProvider := cache.NewMemoryProvider(cfg.Cache.MaxEntries, cfg.Cache.StationsTTL)
	defer cacheProvider.Close()

	store, err := repo.NewRidershipStore(logger, cfg.Data.CSVPath, cacheProvider, cfg.Data.MinObservations)
	if err != nil {
		logger.Error("failed to load ridership data", slog.String("path", cfg.Data.CSVPath), slog.Any("error", err))
		os.Exit(1)
	}

	candidates, err := candidateWindows(cfg.Forecast.Candidates)
	if err != nil {
		logger.Error("invalid anomaly candidate configuration", slog.Any("error", err))
		os.Exit(1)
	}

	pipeline := engine.NewPipeline(logger, engine.Config{
		HorizonMonths:    cfg.Forecast.HorizonMonths,
		HoldoutDays:      cfg.Forecast.HoldoutDays,
		BaselineDays:     cfg.Forecast.BaselineDays,
		AnomalyThreshold: cfg.Forecast.AnomalyThreshold,
		Candidates:       candidates,
		Model: forecast.Config{
			TrendPrior:       cfg.Forecast.TrendPrior,
			SeasonalityPrior: cfg.Forecast.SeasonalityPrior,
		},
	})

	service := services.NewForecastService(logger, store, pipeline)
	handler := api.NewHandler(logger, service)

	server, err := api.NewServer(cfg.Server, handler.Routes())
	if err != nil {
		logger.Error("failed to create HTTP server", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("HTTP server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	logger.Info("metro-forecast stopped")
}

// candidateWindows parses the configured anomaly candidates into domain form.
func candidateWindows(configs []config.CandidateConfig) ([]anomaly.Candidate, error) {
	candidates := make([]anomaly.Candidate, 0, len(configs))
	for _, c := range configs {
		start, err := utils.ParseDate(c.Start)
		if err != nil {
			return nil, err
		}
		end, err := utils.ParseDate(c.End)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, anomaly.Candidate{Name: c.Name, Start: start, End: end})
	}
	return candidates, nil
}
