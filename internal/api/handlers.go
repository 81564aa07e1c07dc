package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/metroflow/metro-forecast/internal/metrics"
	"github.com/metroflow/metro-forecast/internal/models"
	"github.com/metroflow/metro-forecast/internal/repo"
	"github.com/metroflow/metro-forecast/internal/utils"
)

// ForecastAPI defines the service operations the HTTP layer exposes.
type ForecastAPI interface {
	Stations(ctx context.Context) ([]models.StationInfo, error)
	TimeSeries(ctx context.Context, line, station string) (*models.StationTimeSeries, error)
	Forecast(ctx context.Context, line, station string) (*models.StationForecast, error)
	RefreshStations(ctx context.Context) error
}

// Handler serves the JSON API.
type Handler struct {
	logger  *slog.Logger
	service ForecastAPI
}

// NewHandler constructs the HTTP handler facade.
func NewHandler(logger *slog.Logger, service ForecastAPI) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// Routes wires the API endpoints onto a router.
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.logRequests)
	r.HandleFunc("/", h.root).Methods(http.MethodGet)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/api/stations", h.stations).Methods(http.MethodGet)
	r.HandleFunc("/api/stations/refresh", h.refreshStations).Methods(http.MethodPost)
	r.HandleFunc("/api/timeseries/{line}/{station}", h.timeSeries).Methods(http.MethodGet)
	r.HandleFunc("/api/forecast/{line}/{station}", h.forecast).Methods(http.MethodGet)
	return r
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Metro ridership forecast API"})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) stations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.service.Stations(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stations)
}

func (h *Handler) refreshStations(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RefreshStations(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (h *Handler) timeSeries(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ts, err := h.service.TimeSeries(r.Context(), vars["line"], vars["station"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ts)
}

func (h *Handler) forecast(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	result, err := h.service.Forecast(r.Context(), vars["line"], vars["station"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("response encoding failed", slog.Any("error", err))
	}
}

// writeError maps failures onto HTTP statuses: unknown stations are 404,
// malformed input 400, everything else (fit and internal failures) 500.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repo.ErrStationNotFound):
		status = http.StatusNotFound
	case utils.KindOf(err) == utils.KindData:
		status = http.StatusBadRequest
	}
	h.writeJSON(w, status, map[string]string{"detail": err.Error()})
}

// statusRecorder captures the response code for the request middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if template, err := current.GetPathTemplate(); err == nil {
				route = template
			}
		}
		metrics.ObserveHTTPRequest(r.Method, route, rec.status)
		h.logger.Debug("request served",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)))
	})
}
