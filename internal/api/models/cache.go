package models

// CacheStats is the response for GET /v1/admin/cache.
type CacheStats struct {
	Provider string `json:"provider"`
	Entries  int    `json:"entries"`
}

// CacheInvalidateResponse is the response for POST /v1/admin/cache/invalidate.
type CacheInvalidateResponse struct {
	Cleared   bool      `json:"cleared"`
	ClearedAt Timestamp `json:"clearedAt"`
}
