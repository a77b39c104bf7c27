package estimator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/carboncycle/carboncycle/internal/emissions"
	"github.com/carboncycle/carboncycle/internal/routecache"
	"github.com/carboncycle/carboncycle/internal/schedule"
	"github.com/carboncycle/carboncycle/internal/units"
)

// ServiceConfig holds configuration for the estimator service.
type ServiceConfig struct {
	// Cache answers route sample lookups.
	Cache *routecache.Service

	// Resolver resolves schedule slots. Defaults to the real clock.
	Resolver *schedule.Resolver

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service runs estimation passes. Passes are serialized: a pass triggered
// while another is in flight waits for it rather than interleaving, so the
// cache and the result are never observed half-updated.
type Service struct {
	cache    *routecache.Service
	resolver *schedule.Resolver
	logger   zerolog.Logger

	mu sync.Mutex
}

// NewService creates a new estimator service.
func NewService(cfg ServiceConfig) *Service {
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = schedule.NewResolver()
	}

	return &Service{
		cache:    cfg.Cache,
		resolver: resolver,
		logger:   cfg.Logger,
	}
}

// Estimate runs one full pass for the request. Any resolution, unit, or
// routing failure aborts the pass with no partial result; the caller keeps
// whatever it had before.
func (s *Service) Estimate(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	if req.Origin == "" || req.Destination == "" {
		return nil, ErrMissingAddress
	}

	economy, err := units.ToFuelEconomy(req.FuelEconomy, req.FuelEconomyUnit)
	if err != nil {
		return nil, fmt.Errorf("fuel economy: %w", err)
	}
	idlingRate, err := units.ToIdlingRate(req.IdlingRate, req.IdlingRateUnit)
	if err != nil {
		return nil, fmt.Errorf("idling rate: %w", err)
	}

	week := make(schedule.Week, len(req.Week))
	for day, input := range req.Week {
		week[day] = schedule.Day{
			Commute:   input.Commute,
			LeaveHome: input.LeaveHome,
			LeaveWork: input.LeaveWork,
		}
	}

	slots, err := s.resolver.Slots(week)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Origin:      req.Origin,
		Destination: req.Destination,
		Slots:       make([]SlotResult, 0, len(slots)),
		ComputedAt:  start,
	}

	perSlot := make([]emissions.SlotEmission, 0, len(slots))
	for _, slot := range slots {
		sample, err := s.cache.GetOrFetch(ctx, req.Origin, req.Destination, slot.DepartAt)
		if err != nil {
			// Abort the whole pass: a partial week would skew every
			// aggregate, and the cached slots stay cached for the retry.
			return nil, fmt.Errorf("slot %s: %w", slot.Label, err)
		}

		distance := units.Meters(float64(sample.DistanceMeters))
		idle := time.Duration(sample.IdleSeconds) * time.Second
		mass := emissions.Compute(distance, idle, economy, idlingRate)

		result.Slots = append(result.Slots, SlotResult{
			Label:       slot.Label,
			Day:         slot.Day,
			DepartAt:    slot.DepartAt,
			Distance:    distance,
			IdleTime:    idle,
			Emissions:   mass,
			FromCacheAt: sample.FetchedAt,
		})
		perSlot = append(perSlot, emissions.SlotEmission{
			Label:     slot.Label,
			Day:       slot.Day,
			Emissions: mass,
		})
	}

	if len(result.Slots) > 0 {
		result.Distance = result.Slots[0].Distance
	}

	summary, err := emissions.Summarize(perSlot)
	if err != nil {
		return nil, err
	}
	result.Summary = summary

	s.logger.Info().
		Int("slots", len(result.Slots)).
		Int("days", summary.Days).
		Float64("week_lb", summary.Week.Pounds()).
		Dur("duration", time.Since(start)).
		Msg("estimation pass completed")

	return result, nil
}
