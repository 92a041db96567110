// Package api exposes the sample window, service stats and Prometheus metrics over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/eegscope/internal/domain/model"
)

// WindowReader is the read-only view of the sample window used by handlers.
type WindowReader interface {
	Snapshot(ctx context.Context) []model.Sample
	Latest(ctx context.Context) (model.Sample, bool)
	Len(ctx context.Context) int
	Capacity() int
}

// Server wires HTTP routes.
type Server struct {
	healthHandler  *HealthHandler
	metricsHandler http.Handler
	statsHandler   *StatsHandler
	windowHandler  *WindowHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(window WindowReader, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(window),
		metricsHandler: NewMetricsHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		windowHandler:  NewWindowHandler(window),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/metrics", MetricsMiddleware(s.metricsHandler.ServeHTTP, "metrics"))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/window", MetricsMiddleware(s.windowHandler.HandleWindow, "window"))
	mux.HandleFunc("/latest", MetricsMiddleware(s.windowHandler.HandleLatest, "latest"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
