package handler

import (
	"net/http"
)

// MetricsHandler exposes collected metrics.
type MetricsHandler struct {
	exporter http.Handler
}

// NewMetricsHandler wraps an exposition handler such as
// (*metrics.PrometheusRecorder).Handler(). A nil exporter yields 503.
func NewMetricsHandler(exporter http.Handler) *MetricsHandler {
	return &MetricsHandler{exporter: exporter}
}

// Metrics serves GET /metrics.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	h.exporter.ServeHTTP(w, r)
}
