package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/config"
	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/middleware"
)

// NewRouter wires the adapter endpoints behind the standard middleware
// chain. validator may be nil, in which case the API is unauthenticated.
// The caller owns the limiter's lifecycle.
func NewRouter(cfg *config.Config, h *Handler, validator middleware.TokenValidator, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(h.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(limiter.Middleware)

	r.Get("/health", h.Health)

	r.Route("/v1", func(r chi.Router) {
		if validator != nil {
			r.Use(middleware.Auth(validator))
		}
		r.Post("/provision", h.Provision)
		r.Post("/unprovision", h.Unprovision)
		r.Post("/updateacl", h.UpdateAcl)
		r.Post("/validate", h.Validate)
		r.Post("/reverse-provisioning", h.ReverseProvisioning)
	})

	return r
}
