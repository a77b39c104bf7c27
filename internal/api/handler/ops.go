// Package handler provides HTTP handlers for the CarbonCycle API.
package handler

import (
	"net/http"
	"time"

	"github.com/carboncycle/carboncycle/internal/api/models"
	"github.com/carboncycle/carboncycle/internal/api/response"
	"github.com/carboncycle/carboncycle/internal/routecache"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	cache     *routecache.Service
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, cache *routecache.Service) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		cache:     cache,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// The service is ready when the route cache store answers.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ready := models.Readiness{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	cacheStatus := models.SubsystemStatus{Name: "route-cache", Status: models.HealthStatusOK}
	if h.cache != nil {
		if _, err := h.cache.Size(r.Context()); err != nil {
			detail := err.Error()
			cacheStatus.Status = models.HealthStatusFail
			cacheStatus.Detail = &detail
			ready.Status = models.HealthStatusFail
		}
	}
	ready.Subsystems = append(ready.Subsystems, cacheStatus)

	status := http.StatusOK
	if ready.Status != models.HealthStatusOK {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, r, status, ready)
}
