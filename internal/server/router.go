package server

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/teamzeta/pockit-api/internal/config"
	"github.com/teamzeta/pockit-api/internal/handler"
	"github.com/teamzeta/pockit-api/internal/middleware"
)

// NewRouter assembles the HTTP route table. Everything under /api/auth sits
// behind the authentication middleware; the health endpoints stay open.
func NewRouter(
	cfg *config.Config,
	logger *zerolog.Logger,
	authn *middleware.Authenticator,
	authHandler *handler.AuthHandler,
	healthHandler *handler.HealthHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.Get("/", healthHandler.Root)
	r.Get("/api", healthHandler.API)

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(authn.RequireAuth)
		r.Get("/me", authHandler.Me)
		r.Put("/me", authHandler.UpdateMe)
	})

	r.NotFound(handler.NotFound)

	return r
}
