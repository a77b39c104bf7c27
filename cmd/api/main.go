// Package main provides the entrypoint for the CarbonCycle API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/carboncycle/carboncycle/internal/api"
	"github.com/carboncycle/carboncycle/internal/api/middleware"
	"github.com/carboncycle/carboncycle/internal/database"
	"github.com/carboncycle/carboncycle/internal/estimator"
	"github.com/carboncycle/carboncycle/internal/routecache"
	"github.com/carboncycle/carboncycle/internal/routing/distancematrix"
	"github.com/carboncycle/carboncycle/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "carboncycle-api"

	// Load .env for local development; absence is fine
	_ = godotenv.Load()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting CarbonCycle API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)

	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Select the route cache backend
	repo, cleanup, err := newCacheRepository(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize route cache store")
	}
	defer cleanup()

	// Initialize the routing provider
	apiKey := os.Getenv("MAPS_API_KEY")
	if apiKey == "" {
		log.Warn().Msg("MAPS_API_KEY not set - routing lookups will fail")
	}
	provider := distancematrix.NewClient(distancematrix.ClientConfig{
		APIKey: apiKey,
		Logger: log,
	})

	providerMetrics, err := middleware.NewProviderMetrics(distancematrix.ProviderName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize provider metrics")
	}

	// Initialize services
	cacheService := routecache.NewService(routecache.ServiceConfig{
		Repo:     repo,
		Provider: provider,
		Logger:   log,
		Metrics:  providerMetrics,
	})
	log.Info().Msg("route cache service initialized")

	estimatorService := estimator.NewService(estimator.ServiceConfig{
		Cache:  cacheService,
		Logger: log,
	})
	log.Info().Msg("estimator service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		Estimator:   estimatorService,
		Cache:       cacheService,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

// newCacheRepository picks the route cache backend from CACHE_BACKEND:
// "postgres", "memory", or the default file-backed store.
func newCacheRepository(ctx context.Context, log zerolog.Logger) (routecache.Repository, func(), error) {
	switch os.Getenv("CACHE_BACKEND") {
	case "postgres":
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			return nil, nil, err
		}
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")
		return routecache.NewPostgresRepository(pool), pool.Close, nil

	case "memory":
		log.Warn().Msg("using in-memory route cache - samples will not survive restarts")
		return routecache.NewInMemoryRepository(), func() {}, nil

	default:
		path := os.Getenv("ROUTE_CACHE_PATH")
		if path == "" {
			path = "route_cache.json"
		}
		repo, err := routecache.NewFileRepository(path)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", path).Msg("file route cache opened")
		return repo, func() {}, nil
	}
}
