package routes

import (
	"github.com/go-chi/chi/v5"

	"skydeck/flightdeck/internal/api"
	"skydeck/flightdeck/internal/config"
	"skydeck/flightdeck/internal/middleware"
)

// RegisterAPIRoutes mounts the versioned API. Reads are always open;
// mutating endpoints require a bearer token when an auth secret is set.
func RegisterAPIRoutes(r chi.Router, cfg *config.Config, handlers *api.Handlers) {
	auth := middleware.AuthMiddleware(cfg.AuthSecret)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/flights", handlers.ListFlightsHandler)
		r.Get("/flights/{key}", handlers.GetFlightHandler)
		r.Get("/preview", handlers.CurrentPreviewHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Post("/flights", handlers.AddFlightHandler)
			r.Delete("/flights/{key}", handlers.RemoveFlightHandler)
			r.Delete("/flights", handlers.ClearFlightsHandler)
			r.Post("/flights/refresh", handlers.RefreshFlightsHandler)
			r.Post("/flights/prune", handlers.PruneFlightsHandler)

			r.Post("/preview", handlers.PreviewHandler)
			r.Post("/preview/confirm", handlers.ConfirmPreviewHandler)
			r.Delete("/preview", handlers.ClearPreviewHandler)
		})
	})
}
