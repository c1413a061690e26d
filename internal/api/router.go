package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aquagrid/approval-engine/internal/api/handler"
	apimw "github.com/aquagrid/approval-engine/internal/api/middleware"
	"github.com/aquagrid/approval-engine/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	queue *service.QueueService,
	dispatch *service.DecisionService,
	reg prometheus.Gatherer,
	corsOrigins []string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1<<20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// The portal frontend runs on its own origin and sends the reviewer
	// identity as a custom header, so it must be allowed explicitly.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", apimw.CorrelationHeader, "X-Reviewer-ID"},
		ExposedHeaders:   []string{apimw.CorrelationHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- handler instances ---
	ah := handler.NewApprovalHandler(queue, dispatch, logger)
	hh := handler.NewHistoryHandler(dispatch, logger)
	mh := handler.NewMetricsHandler(queue)
	lh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", lh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/approvals", ah.List)
		r.Get("/approvals/{id}", ah.GetByID)
		r.Post("/approvals/{id}/decision", ah.Decide)

		r.Get("/history", hh.List)

		// JSON metrics snapshot
		r.Get("/metrics", mh.GetMetrics)
	})

	return r
}
