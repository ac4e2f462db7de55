package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"skydeck/flightdeck/internal/api"
	"skydeck/flightdeck/internal/config"
	"skydeck/flightdeck/internal/db"
	"skydeck/flightdeck/internal/jobs"
	"skydeck/flightdeck/internal/logging"
	"skydeck/flightdeck/internal/metrics"
	"skydeck/flightdeck/internal/middleware"
)

// RegisterRoutes builds the router, wires dependencies and starts the
// background jobs.
func RegisterRoutes(ctx context.Context, cfg *config.Config, upSince time.Time) (http.Handler, error) {
	r := chi.NewRouter()

	metricsReg := metrics.NewMetricsRegistry()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(metricsReg))
	r.Use(middleware.RateLimitMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	logging.Info("Router initialized with metrics and logging middleware")

	r.Get("/healthCheck", api.HealthCheckHandler(db.SQLX, upSince))
	r.Handle("/metrics", promhttp.Handler())

	deps, err := api.InitDependencies(cfg, metricsReg)
	if err != nil {
		return nil, err
	}

	refreshJob := jobs.InitializeJobs(
		ctx,
		cfg,
		deps.Services.Flights,
		deps.Services.Auto,
		deps.Services.Cadence,
		deps.Services.Directory,
		metricsReg,
	)

	handlers := api.NewHandlers(deps, refreshJob)
	RegisterAPIRoutes(r, cfg, handlers)

	return r, nil
}
