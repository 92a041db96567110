package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// WindowHandler serves the sample window.
type WindowHandler struct {
	window WindowReader
}

// NewWindowHandler creates a new window handler.
func NewWindowHandler(window WindowReader) *WindowHandler {
	return &WindowHandler{window: window}
}

// HandleWindow handles GET /window[?limit=N] requests. Samples are returned
// oldest first; limit keeps only the newest N.
func (h *WindowHandler) HandleWindow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	samples := h.window.Snapshot(r.Context())
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request",
				fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		if n < len(samples) {
			samples = samples[len(samples)-n:]
		}
	}
	writeJSON(w, http.StatusOK, samples)
}

// HandleLatest handles GET /latest requests.
func (h *WindowHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	latest, ok := h.window.Latest(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", ErrNoData)
		return
	}
	writeJSON(w, http.StatusOK, latest)
}
