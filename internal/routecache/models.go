// Package routecache persists route samples so each unique
// (origin, destination, slot) combination costs at most one external routing
// call, within a process and across restarts.
package routecache

import (
	"errors"
	"time"
)

// Repository errors.
var (
	// ErrSampleNotFound indicates no sample is cached for the key.
	ErrSampleNotFound = errors.New("route sample not found")
)

// Key identifies a cached route sample. Two keys are equal iff their string
// values are equal; addresses are not normalized or geocoded.
type Key struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	SlotLabel   string `json:"slotLabel"`
}

// Sample is one cached routing result, stored in base units (meters,
// seconds) independent of display units. Immutable once cached.
type Sample struct {
	DistanceMeters int       `json:"distanceMeters"`
	IdleSeconds    int       `json:"idleSeconds"`
	Provider       string    `json:"provider,omitempty"`
	FetchedAt      time.Time `json:"fetchedAt"`
}
