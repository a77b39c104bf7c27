package routecache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/carboncycle/carboncycle/internal/routing"
	"github.com/carboncycle/carboncycle/internal/schedule"
)

// ServiceConfig holds configuration for the route cache service.
type ServiceConfig struct {
	// Repo is the backing sample store.
	Repo Repository

	// Provider is the external routing collaborator invoked on cache miss.
	Provider routing.Provider

	// FetchTimeout bounds each external lookup (default: 15 seconds).
	FetchTimeout time.Duration

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records cache hits and misses. Optional.
	Metrics Metrics
}

// Metrics records cache hit/miss counts and fetch outcomes per provider
// operation.
type Metrics interface {
	RecordCacheHit(provider, operation string)
	RecordCacheMiss(provider, operation string)
	RecordRequest(provider, operation string, duration time.Duration, err error)
}

// Service answers route sample lookups from the repository and fetches
// misses from the routing provider, with at most one fetch in flight per
// key. A failed fetch is never cached; the error propagates to every waiter.
type Service struct {
	repo         Repository
	provider     routing.Provider
	fetchTimeout time.Duration
	logger       zerolog.Logger
	metrics      Metrics

	mu       sync.Mutex
	inflight map[Key]*fetchCall
}

// fetchCall tracks one in-flight provider fetch that concurrent lookups for
// the same key wait on.
type fetchCall struct {
	done   chan struct{}
	sample *Sample
	err    error
}

// NewService creates a new route cache service.
func NewService(cfg ServiceConfig) *Service {
	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout == 0 {
		fetchTimeout = 15 * time.Second
	}

	return &Service{
		repo:         cfg.Repo,
		provider:     cfg.Provider,
		fetchTimeout: fetchTimeout,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		inflight:     make(map[Key]*fetchCall),
	}
}

// GetOrFetch returns the cached sample for the origin/destination pair at
// the slot derived from departAt, fetching and caching it on a miss.
func (s *Service) GetOrFetch(ctx context.Context, origin, destination string, departAt time.Time) (*Sample, error) {
	key := Key{
		Origin:      origin,
		Destination: destination,
		SlotLabel:   schedule.SlotLabel(departAt),
	}

	if sample, err := s.repo.Get(ctx, key); err == nil {
		s.logger.Debug().
			Str("slot", key.SlotLabel).
			Msg("route cache hit")
		if s.metrics != nil {
			s.metrics.RecordCacheHit(s.provider.Name(), "traffic")
		}
		return sample, nil
	} else if !errors.Is(err, ErrSampleNotFound) {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordCacheMiss(s.provider.Name(), "traffic")
	}

	return s.fetch(ctx, key, departAt)
}

// fetch runs the provider lookup for a key, deduplicating concurrent callers.
func (s *Service) fetch(ctx context.Context, key Key, departAt time.Time) (*Sample, error) {
	s.mu.Lock()
	if call, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.sample, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// Re-check the repository under the lock: a previous fetch may have
	// completed between the miss and here.
	sample, err := s.repo.Get(ctx, key)
	if err == nil {
		s.mu.Unlock()
		return sample, nil
	}
	if !errors.Is(err, ErrSampleNotFound) {
		s.mu.Unlock()
		return nil, err
	}

	call := &fetchCall{done: make(chan struct{})}
	s.inflight[key] = call
	s.mu.Unlock()

	call.sample, call.err = s.doFetch(ctx, key, departAt)
	close(call.done)

	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()

	return call.sample, call.err
}

// doFetch performs the bounded provider call and persists a success.
func (s *Service) doFetch(ctx context.Context, key Key, departAt time.Time) (*Sample, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	s.logger.Debug().
		Str("origin", key.Origin).
		Str("destination", key.Destination).
		Str("slot", key.SlotLabel).
		Str("provider", s.provider.Name()).
		Msg("fetching route sample from provider")

	start := time.Now()
	result, err := s.provider.Traffic(fetchCtx, routing.TrafficRequest{
		Origin:      key.Origin,
		Destination: key.Destination,
		DepartAt:    departAt,
	})
	if s.metrics != nil {
		s.metrics.RecordRequest(s.provider.Name(), "traffic", time.Since(start), err)
	}
	if err != nil {
		s.logger.Error().Err(err).
			Str("slot", key.SlotLabel).
			Msg("route sample fetch failed")
		return nil, err
	}

	sample := &Sample{
		DistanceMeters: result.DistanceMeters,
		IdleSeconds:    result.IdleSeconds,
		Provider:       result.Provider,
		FetchedAt:      result.FetchedAt,
	}

	if err := s.repo.Put(ctx, key, sample); err != nil {
		// The lookup itself succeeded; losing durability is worth a warning
		// but not a failed pass.
		s.logger.Warn().Err(err).
			Str("slot", key.SlotLabel).
			Msg("failed to persist route sample")
	}

	return sample, nil
}

// Invalidate clears every cached sample. Cached samples never expire on
// their own, so this is the only way to force fresh lookups.
func (s *Service) Invalidate(ctx context.Context) error {
	s.logger.Info().Msg("invalidating route cache")
	return s.repo.Clear(ctx)
}

// Size returns the number of cached samples.
func (s *Service) Size(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// ProviderName returns the name of the underlying routing provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
