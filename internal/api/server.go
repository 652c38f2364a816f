// Package api provides the HTTP API server and handlers for the Quorum
// application.
package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quorumapp/quorum-server/internal/auth"
	"github.com/quorumapp/quorum-server/internal/config"
	"github.com/quorumapp/quorum-server/internal/logger"
	"github.com/quorumapp/quorum-server/internal/ratelimit"
	"github.com/quorumapp/quorum-server/internal/service"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	services    *service.Services
	tokens      *auth.TokenService
	voteLimiter *ratelimit.KeyedRateLimiter
	router      *chi.Mux
	api         huma.API
	logger      *logger.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *service.Services, tokens *auth.TokenService, voteLimiter *ratelimit.KeyedRateLimiter, cfg *config.Config, log *logger.Logger) *Server {
	router := chi.NewRouter()

	router.Use(requestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	humaConfig := huma.DefaultConfig(cfg.Server.Name, "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	s := &Server{
		services:    services,
		tokens:      tokens,
		voteLimiter: voteLimiter,
		router:      router,
		api:         humachi.New(router, humaConfig),
		logger:      log,
	}

	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerTagRoutes()
	s.registerQuestionRoutes()
	s.registerAnswerRoutes()
	s.registerVoteRoutes()
	s.registerAdminRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
