// Package api provides the HTTP API for MakeItFast.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/dearxcorex/MakeItFast/internal/api/handler"
	"github.com/dearxcorex/MakeItFast/internal/api/middleware"
	"github.com/dearxcorex/MakeItFast/internal/auth"
	"github.com/dearxcorex/MakeItFast/internal/featureflags"
	"github.com/dearxcorex/MakeItFast/internal/station"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version            string
	BuildTime          string
	Logger             zerolog.Logger
	ServiceName        string
	Metrics            *middleware.Metrics
	AuthService        *auth.Service
	StationService     *station.Service
	FeatureFlagService *featureflags.Service

	// DB is pinged by the readiness and status endpoints. Optional.
	DB handler.Pinger
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "makeitfast-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type
	r.Use(middleware.RequireJSON)          // Reject non-JSON request bodies

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB, cfg.FeatureFlagService)
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	stationHandler := handler.NewStationHandler(cfg.StationService, cfg.FeatureFlagService)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.AuthService)

	// Create rate limit middleware per endpoint class: reads loose, writes
	// tight, auth tightest.
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)             // 10 req/min
	readRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)         // 100 req/min
	writeRateLimit := middleware.RateLimitByOperator(middleware.ExpensiveRateLimit) // 30 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Auth endpoints (public) - strict rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit) // 10 requests per minute per IP
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)
			r.Post("/logout", authHandler.Logout)
			// logout-all requires authentication
			r.With(authMiddleware).Post("/logout-all", authHandler.LogoutAll)
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Station endpoints - reads public, writes authenticated
		r.Route("/stations", func(r chi.Router) {
			r.With(readRateLimit).Get("/", stationHandler.ListStations)
			r.With(readRateLimit).Get("/recent", stationHandler.RecentlyChanged)
			r.Route("/{stationId}", func(r chi.Router) {
				r.With(readRateLimit).Get("/", stationHandler.GetStation)
				r.With(authMiddleware, writeRateLimit).Patch("/", stationHandler.PatchStation)
			})
		})

		// Runtime flags - reads public, writes authenticated
		r.Route("/flags", func(r chi.Router) {
			r.With(readRateLimit).Get("/", featureFlagsHandler.ListFlags)
			r.Route("/{key}", func(r chi.Router) {
				r.With(readRateLimit).Get("/", featureFlagsHandler.GetFlag)
				r.With(authMiddleware, writeRateLimit).Put("/", featureFlagsHandler.SetFlag)
			})
		})
	})

	return r
}
