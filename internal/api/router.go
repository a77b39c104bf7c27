// Package api provides the HTTP API for CarbonCycle.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/carboncycle/carboncycle/internal/api/handler"
	"github.com/carboncycle/carboncycle/internal/api/middleware"
	"github.com/carboncycle/carboncycle/internal/api/response"
	"github.com/carboncycle/carboncycle/internal/estimator"
	"github.com/carboncycle/carboncycle/internal/routecache"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	Estimator   *estimator.Service
	Cache       *routecache.Service
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "carboncycle-api"
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
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Unknown routes get the same problem+json shape as handler errors
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.NotFound(w, req, "resource not found")
	})

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Cache)
	estimateHandler := handler.NewEstimateHandler(cfg.Estimator)
	metadataHandler := handler.NewMetadataHandler()
	cacheHandler := handler.NewCacheHandler(cfg.Cache)

	// Create rate limit middleware for different endpoint categories
	adminRateLimit := middleware.RateLimitByIP(middleware.AdminRateLimit)         // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Metadata endpoints (public) - standard rate limiting
		r.Route("/metadata", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/units", metadataHandler.GetUnits)
		})

		// Estimates endpoint - each pass may fan out to the routing
		// provider, so it gets the strict limit
		r.With(expensiveRateLimit, middleware.RequireJSON).Post("/estimates:compute", estimateHandler.Compute)

		// Admin endpoints - cache operations
		r.Route("/admin/cache", func(r chi.Router) {
			r.Use(adminRateLimit)
			r.Get("/", cacheHandler.Stats)
			r.Post("/invalidate", cacheHandler.Invalidate)
		})
	})

	return r
}
