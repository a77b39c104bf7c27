// Package main provides the entrypoint for the CarbonCycle background worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/carboncycle/carboncycle/internal/database"
	"github.com/carboncycle/carboncycle/internal/routecache"
	"github.com/carboncycle/carboncycle/internal/routing/distancematrix"
	"github.com/carboncycle/carboncycle/internal/telemetry"
	"github.com/carboncycle/carboncycle/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "carboncycle-worker"

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
		Msg("starting CarbonCycle worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry
	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)

	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// Select the same route cache backend as the API so pre-warmed
	// samples are visible to estimate requests
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

	cacheService := routecache.NewService(routecache.ServiceConfig{
		Repo:     repo,
		Provider: provider,
		Logger:   log,
	})

	prewarmJob := worker.NewPrewarmJob(worker.PrewarmJobConfig{
		Logger: log,
		Cache:  cacheService,
	})

	// Start the Pub/Sub listener if configured; without it the worker
	// only serves health checks
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
	if subscription == "" {
		subscription = "carboncycle-jobs"
	}

	if projectID != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			PrewarmJob:       prewarmJob,
			Cache:            cacheService,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		log.Warn().Msg("PUBSUB_PROJECT_ID not set - running scheduled prewarm only")

		// Fall back to a periodic prewarm so the cache stays warm
		// even without a job queue
		go func() {
			interval := 6 * time.Hour
			if raw := os.Getenv("PREWARM_INTERVAL"); raw != "" {
				if parsed, parseErr := time.ParseDuration(raw); parseErr == nil {
					interval = parsed
				} else {
					log.Warn().Str("value", raw).Msg("invalid PREWARM_INTERVAL, using default")
				}
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			runPrewarm(ctx, log, prewarmJob)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					runPrewarm(ctx, log, prewarmJob)
				}
			}
		}()
	}

	// Create HTTP server for health checks
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

func runPrewarm(ctx context.Context, log zerolog.Logger, job *worker.PrewarmJob) {
	result := job.Run(ctx)
	log.Info().
		Dur("duration", result.Duration).
		Int("warmed", result.Warmed).
		Int("failed", result.Failed).
		Int("total_slots", result.TotalSlots).
		Msg("scheduled prewarm completed")
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
