package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/eegscope/pkg/metrics"
)

// NewMetricsHandler serves the custom Prometheus registry.
func NewMetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	window WindowReader
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(window WindowReader) *HealthHandler {
	return &HealthHandler{window: window}
}

type healthResponse struct {
	Status    string `json:"status"`
	WindowLen int    `json:"window_len"`
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", WindowLen: h.window.Len(r.Context())})
}
