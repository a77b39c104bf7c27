package routecache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/carboncycle/carboncycle/internal/routing"
)

// mockProvider is a mock routing provider for testing.
type mockProvider struct {
	name      string
	sample    *routing.TrafficSample
	err       error
	callCount atomic.Int32
	delay     time.Duration
}

func (m *mockProvider) Traffic(_ context.Context, _ routing.TrafficRequest) (*routing.TrafficSample, error) {
	m.callCount.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.sample, nil
}

func (m *mockProvider) Name() string {
	return m.name
}

var mondayMorning = time.Date(2024, time.March, 18, 8, 0, 0, 0, time.UTC)

func newTestService(provider routing.Provider) *Service {
	return NewService(ServiceConfig{
		Repo:     NewInMemoryRepository(),
		Provider: provider,
		Logger:   zerolog.Nop(),
	})
}

func TestService_GetOrFetch_CacheMiss(t *testing.T) {
	provider := &mockProvider{
		name: "test-provider",
		sample: &routing.TrafficSample{
			DistanceMeters: 16093,
			IdleSeconds:    420,
			Provider:       "test-provider",
			FetchedAt:      time.Now(),
		},
	}
	service := newTestService(provider)

	sample, err := service.GetOrFetch(context.Background(), "home", "work", mondayMorning)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if provider.callCount.Load() != 1 {
		t.Errorf("expected 1 provider call, got %d", provider.callCount.Load())
	}
	if sample.DistanceMeters != 16093 {
		t.Errorf("expected distance 16093, got %d", sample.DistanceMeters)
	}
	if sample.IdleSeconds != 420 {
		t.Errorf("expected idle 420, got %d", sample.IdleSeconds)
	}
}

func TestService_GetOrFetch_SecondCallHitsCache(t *testing.T) {
	provider := &mockProvider{
		name:   "test-provider",
		sample: &routing.TrafficSample{DistanceMeters: 16093, IdleSeconds: 420, FetchedAt: time.Now()},
	}
	service := newTestService(provider)

	if _, err := service.GetOrFetch(context.Background(), "home", "work", mondayMorning); err != nil {
		t.Fatalf("unexpected error on first call: %v", err)
	}
	if _, err := service.GetOrFetch(context.Background(), "home", "work", mondayMorning); err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}

	if provider.callCount.Load() != 1 {
		t.Errorf("expected exactly 1 provider call, got %d", provider.callCount.Load())
	}
}

func TestService_GetOrFetch_SameSlotDifferentWeekHitsCache(t *testing.T) {
	provider := &mockProvider{
		name:   "test-provider",
		sample: &routing.TrafficSample{DistanceMeters: 16093, FetchedAt: time.Now()},
	}
	service := newTestService(provider)

	// The slot label depends on weekday and clock time, not the calendar
	// date, so the same slot two weeks later reuses the cached sample.
	if _, err := service.GetOrFetch(context.Background(), "home", "work", mondayMorning); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.GetOrFetch(context.Background(), "home", "work", mondayMorning.AddDate(0, 0, 14)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if provider.callCount.Load() != 1 {
		t.Errorf("expected exactly 1 provider call, got %d", provider.callCount.Load())
	}
}

func TestService_GetOrFetch_DistinctKeysFetchSeparately(t *testing.T) {
	provider := &mockProvider{
		name:   "test-provider",
		sample: &routing.TrafficSample{DistanceMeters: 16093, FetchedAt: time.Now()},
	}
	service := newTestService(provider)
	ctx := context.Background()

	calls := []struct {
		origin, destination string
		departAt            time.Time
	}{
		{"home", "work", mondayMorning},
		{"work", "home", mondayMorning},                          // reversed pair
		{"home", "work", mondayMorning.Add(9*time.Hour + 30*time.Minute)}, // different slot
	}
	for _, c := range calls {
		if _, err := service.GetOrFetch(ctx, c.origin, c.destination, c.departAt); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if provider.callCount.Load() != 3 {
		t.Errorf("expected 3 provider calls for 3 distinct keys, got %d", provider.callCount.Load())
	}
}

func TestService_GetOrFetch_FailureNotCached(t *testing.T) {
	provider := &mockProvider{
		name: "test-provider",
		err:  routing.ErrProviderUnavailable,
	}
	service := newTestService(provider)
	ctx := context.Background()

	if _, err := service.GetOrFetch(ctx, "home", "work", mondayMorning); !errors.Is(err, routing.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}

	// The failure must not be cached: a retry invokes the provider again.
	provider.err = nil
	provider.sample = &routing.TrafficSample{DistanceMeters: 16093, FetchedAt: time.Now()}
	if _, err := service.GetOrFetch(ctx, "home", "work", mondayMorning); err != nil {
		t.Fatalf("unexpected error after provider recovery: %v", err)
	}

	if provider.callCount.Load() != 2 {
		t.Errorf("expected 2 provider calls, got %d", provider.callCount.Load())
	}

	size, err := service.Size(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size != 1 {
		t.Errorf("expected 1 cached sample, got %d", size)
	}
}

func TestService_GetOrFetch_ConcurrentLookupsSingleFetch(t *testing.T) {
	provider := &mockProvider{
		name:   "test-provider",
		sample: &routing.TrafficSample{DistanceMeters: 16093, FetchedAt: time.Now()},
		delay:  20 * time.Millisecond,
	}
	service := newTestService(provider)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.GetOrFetch(context.Background(), "home", "work", mondayMorning); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if provider.callCount.Load() != 1 {
		t.Errorf("expected 1 provider call across concurrent lookups, got %d", provider.callCount.Load())
	}
}

// failingSecondGetRepo reports a miss on the first Get and a backend failure
// on every Get after it, exercising the repository re-check inside fetch.
type failingSecondGetRepo struct {
	gets atomic.Int32
	err  error
}

func (r *failingSecondGetRepo) Get(_ context.Context, _ Key) (*Sample, error) {
	if r.gets.Add(1) == 1 {
		return nil, ErrSampleNotFound
	}
	return nil, r.err
}

func (r *failingSecondGetRepo) Put(_ context.Context, _ Key, _ *Sample) error { return nil }
func (r *failingSecondGetRepo) Count(_ context.Context) (int, error)          { return 0, nil }
func (r *failingSecondGetRepo) Clear(_ context.Context) error                 { return nil }

func TestService_GetOrFetch_RecheckRepoErrorPropagates(t *testing.T) {
	repoErr := errors.New("cache backend down")
	repo := &failingSecondGetRepo{err: repoErr}
	provider := &mockProvider{
		name:   "test-provider",
		sample: &routing.TrafficSample{DistanceMeters: 16093, FetchedAt: time.Now()},
	}
	service := NewService(ServiceConfig{
		Repo:     repo,
		Provider: provider,
		Logger:   zerolog.Nop(),
	})

	_, err := service.GetOrFetch(context.Background(), "home", "work", mondayMorning)
	if !errors.Is(err, repoErr) {
		t.Fatalf("expected repository error to propagate, got %v", err)
	}
	if provider.callCount.Load() != 0 {
		t.Errorf("expected no provider call when the repository fails, got %d", provider.callCount.Load())
	}
}

type recordingMetrics struct {
	hits     atomic.Int32
	misses   atomic.Int32
	requests atomic.Int32
}

func (m *recordingMetrics) RecordCacheHit(_, _ string)  { m.hits.Add(1) }
func (m *recordingMetrics) RecordCacheMiss(_, _ string) { m.misses.Add(1) }
func (m *recordingMetrics) RecordRequest(_, _ string, _ time.Duration, _ error) {
	m.requests.Add(1)
}

func TestService_GetOrFetch_RecordsMetrics(t *testing.T) {
	provider := &mockProvider{
		name:   "test-provider",
		sample: &routing.TrafficSample{DistanceMeters: 16093, FetchedAt: time.Now()},
	}
	metrics := &recordingMetrics{}
	service := NewService(ServiceConfig{
		Repo:     NewInMemoryRepository(),
		Provider: provider,
		Logger:   zerolog.Nop(),
		Metrics:  metrics,
	})
	ctx := context.Background()

	if _, err := service.GetOrFetch(ctx, "home", "work", mondayMorning); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.GetOrFetch(ctx, "home", "work", mondayMorning); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := metrics.misses.Load(); got != 1 {
		t.Errorf("expected 1 recorded miss, got %d", got)
	}
	if got := metrics.hits.Load(); got != 1 {
		t.Errorf("expected 1 recorded hit, got %d", got)
	}
	if got := metrics.requests.Load(); got != 1 {
		t.Errorf("expected 1 recorded provider request, got %d", got)
	}
}

func TestService_Invalidate(t *testing.T) {
	provider := &mockProvider{
		name:   "test-provider",
		sample: &routing.TrafficSample{DistanceMeters: 16093, FetchedAt: time.Now()},
	}
	service := newTestService(provider)
	ctx := context.Background()

	if _, err := service.GetOrFetch(ctx, "home", "work", mondayMorning); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := service.Invalidate(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := service.GetOrFetch(ctx, "home", "work", mondayMorning); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.callCount.Load() != 2 {
		t.Errorf("expected a refetch after invalidation, got %d calls", provider.callCount.Load())
	}
}
