package handler

import (
	"net/http"
	"time"

	"github.com/carboncycle/carboncycle/internal/api/models"
	"github.com/carboncycle/carboncycle/internal/api/response"
	"github.com/carboncycle/carboncycle/internal/routecache"
)

// CacheHandler handles route cache administration endpoints.
type CacheHandler struct {
	cache *routecache.Service
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(cache *routecache.Service) *CacheHandler {
	return &CacheHandler{cache: cache}
}

// Stats handles GET /v1/admin/cache - report cache size and provider.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	entries, err := h.cache.Size(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to read cache stats")
		return
	}

	response.JSON(w, r, http.StatusOK, models.CacheStats{
		Provider: h.cache.ProviderName(),
		Entries:  entries,
	})
}

// Invalidate handles POST /v1/admin/cache/invalidate - drop every cached
// route sample so the next pass refetches.
func (h *CacheHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Invalidate(r.Context()); err != nil {
		response.InternalError(w, r, "failed to invalidate cache")
		return
	}

	response.JSON(w, r, http.StatusOK, models.CacheInvalidateResponse{
		Cleared:   true,
		ClearedAt: models.Timestamp(time.Now()),
	})
}
