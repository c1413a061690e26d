package handler

import (
	"net/http"

	"github.com/aquagrid/approval-engine/internal/service"
)

// MetricsHandler serves a human-readable JSON queue snapshot.
// Raw Prometheus metrics (counters, histograms) are available at /metrics
// via promhttp.Handler and are separate from this endpoint.
type MetricsHandler struct {
	queue *service.QueueService
}

func NewMetricsHandler(queue *service.QueueService) *MetricsHandler {
	return &MetricsHandler{queue: queue}
}

// GetMetrics handles GET /api/v1/metrics
//
// @Summary  Real-time queue depth snapshot
// @Tags     metrics
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/v1/metrics [get]
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	_, counts, err := h.queue.Aggregate(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"queue_depth": counts,
	})
}
