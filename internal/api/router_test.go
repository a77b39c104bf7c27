package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carboncycle/carboncycle/internal/api"
	"github.com/carboncycle/carboncycle/internal/api/models"
	"github.com/carboncycle/carboncycle/internal/estimator"
	"github.com/carboncycle/carboncycle/internal/routecache"
	"github.com/carboncycle/carboncycle/internal/routing"
	"github.com/carboncycle/carboncycle/internal/schedule"
)

// stubProvider returns a fixed ten mile sample for every request.
type stubProvider struct {
	callCount atomic.Int32
	err       error
}

func (p *stubProvider) Traffic(_ context.Context, _ routing.TrafficRequest) (*routing.TrafficSample, error) {
	p.callCount.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return &routing.TrafficSample{
		DistanceMeters: 16093,
		IdleSeconds:    0,
		Provider:       "stub",
		FetchedAt:      time.Now(),
	}, nil
}

func (p *stubProvider) Name() string { return "stub" }

func newTestRouter(t *testing.T, provider routing.Provider) http.Handler {
	t.Helper()

	cache := routecache.NewService(routecache.ServiceConfig{
		Repo:     routecache.NewInMemoryRepository(),
		Provider: provider,
		Logger:   zerolog.Nop(),
	})

	est := estimator.NewService(estimator.ServiceConfig{
		Cache:  cache,
		Logger: zerolog.Nop(),
		Resolver: schedule.NewResolverAt(func() time.Time {
			return time.Date(2024, 3, 13, 14, 0, 0, 0, time.UTC) // Wednesday
		}),
	})

	return api.NewRouter(api.RouterConfig{
		Version:   "test",
		BuildTime: "now",
		Logger:    zerolog.Nop(),
		Estimator: est,
		Cache:     cache,
	})
}

func estimateBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(models.EstimateRequest{
		Origin:      "600 Congress Ave, Austin, TX",
		Destination: "11501 Domain Dr, Austin, TX",
		Week: map[string]models.DayScheduleInput{
			"monday": {Commute: true, LeaveHome: "08:00 AM", LeaveWork: "05:30 PM"},
		},
		FuelEconomy:     25,
		FuelEconomyUnit: "mpg_us",
		IdlingRate:      0,
		IdlingRateUnit:  "gal_per_hr_us",
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t, &stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Details["version"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRouter_Ready(t *testing.T) {
	router := newTestRouter(t, &stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var ready models.Readiness
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ready))
	assert.Equal(t, models.HealthStatusOK, ready.Status)
	require.Len(t, ready.Subsystems, 1)
	assert.Equal(t, "route-cache", ready.Subsystems[0].Name)
}

func TestRouter_MetadataUnits(t *testing.T) {
	router := newTestRouter(t, &stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/v1/metadata/units", http.NoBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var meta models.UnitsMetadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Len(t, meta.FuelEconomyUnits, 4)
	assert.Len(t, meta.IdlingRateUnits, 3)
	assert.InDelta(t, 19.60, meta.Constants.CO2PoundsPerGallon, 1e-9)
	assert.InDelta(t, 22.0, meta.Constants.TreeAbsorptionKgPerYear, 1e-9)
}

func TestRouter_ComputeEstimate(t *testing.T) {
	provider := &stubProvider{}
	router := newTestRouter(t, provider)

	req := httptest.NewRequest(http.MethodPost, "/v1/estimates:compute", estimateBody(t))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.EstimateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// One commute day resolves to two slots, each ten miles at 25 mpg.
	require.Len(t, resp.Slots, 2)
	assert.Equal(t, "Mon 08:00 AM", resp.Slots[0].Label)
	assert.Equal(t, 16093, resp.Slots[0].DistanceMeters)
	assert.InDelta(t, 7.84, resp.Slots[0].Emissions.Pounds, 0.01)

	assert.Equal(t, 1, resp.Summary.CommuteDays)
	assert.InDelta(t, 15.68, resp.Summary.Week.Pounds, 0.01)
	assert.InDelta(t, 7.84, resp.Summary.OneWay.Pounds, 0.01)
	assert.InDelta(t, 62.72, resp.Summary.Month.Pounds, 0.01)
	assert.InDelta(t, 815.36, resp.Summary.Year.Pounds, 0.05)
	assert.Greater(t, resp.Summary.TreesToOffset, 0.0)

	assert.Equal(t, int32(2), provider.callCount.Load())
}

func TestRouter_ComputeEstimate_SecondPassServedFromCache(t *testing.T) {
	provider := &stubProvider{}
	router := newTestRouter(t, provider)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/estimates:compute", estimateBody(t))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, int32(2), provider.callCount.Load())
}

func TestRouter_ComputeEstimate_ValidationErrors(t *testing.T) {
	router := newTestRouter(t, &stubProvider{})

	body, err := json.Marshal(models.EstimateRequest{
		Destination:     "11501 Domain Dr, Austin, TX",
		FuelEconomy:     0,
		FuelEconomyUnit: "mpg_us",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/estimates:compute", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.Equal(t, "/v1/estimates:compute", problem.Instance)

	fields := make(map[string]bool, len(problem.Errors))
	for _, fe := range problem.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["origin"])
	assert.True(t, fields["fuelEconomy"])
}

func TestRouter_ComputeEstimate_AddressNotFound(t *testing.T) {
	provider := &stubProvider{err: routing.ErrAddressNotFound}
	router := newTestRouter(t, provider)

	req := httptest.NewRequest(http.MethodPost, "/v1/estimates:compute", estimateBody(t))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var problem models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeUnprocessable, problem.Type)
}

func TestRouter_ComputeEstimate_ProviderUnavailable(t *testing.T) {
	provider := &stubProvider{err: routing.ErrProviderUnavailable}
	router := newTestRouter(t, provider)

	req := httptest.NewRequest(http.MethodPost, "/v1/estimates:compute", estimateBody(t))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_CacheAdmin(t *testing.T) {
	provider := &stubProvider{}
	router := newTestRouter(t, provider)

	// Fill the cache with one estimate pass
	req := httptest.NewRequest(http.MethodPost, "/v1/estimates:compute", estimateBody(t))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Stats should show the two cached slots
	req = httptest.NewRequest(http.MethodGet, "/v1/admin/cache", http.NoBody)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.CacheStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, "stub", stats.Provider)
	assert.Equal(t, 2, stats.Entries)

	// Invalidate clears it
	req = httptest.NewRequest(http.MethodPost, "/v1/admin/cache/invalidate", http.NoBody)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var invalidated models.CacheInvalidateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invalidated))
	assert.True(t, invalidated.Cleared)

	req = httptest.NewRequest(http.MethodGet, "/v1/admin/cache", http.NoBody)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 0, stats.Entries)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter(t, &stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/v1/nope", http.NoBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
