package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/shopsmoke/internal/order/service"
	"github.com/utafrali/shopsmoke/pkg/health"
	"github.com/utafrali/shopsmoke/pkg/middleware"
)

// NewRouter creates a chi router with all order service routes registered.
func NewRouter(
	orderService *service.OrderService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing("order"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("order"))

	r.Get("/health", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	handler := NewOrderHandler(orderService, logger)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", handler.Create)
		r.Get("/", handler.List)
		r.Get("/user/{user_id}", handler.ListByUser)
		r.Get("/{id}", handler.Get)
		r.Put("/{id}", handler.Update)
		r.Post("/{id}/confirm", handler.Confirm)
		r.Delete("/{id}", handler.Delete)
	})

	return r
}
