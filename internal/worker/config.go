// Package worker provides background job processing for CarbonCycle.
package worker

import (
	"time"

	"github.com/carboncycle/carboncycle/internal/schedule"
)

// PrewarmRoute is one commute corridor whose weekly departure slots get
// fetched ahead of the first estimate request.
type PrewarmRoute struct {
	// Name is the human-readable name of the corridor.
	Name string

	// Origin and Destination are the addresses passed to the routing
	// provider.
	Origin      string
	Destination string

	// Week is the commute schedule to resolve slots from. Nil means the
	// default Monday through Friday schedule.
	Week schedule.Week

	// Priority determines warm order (lower = higher priority).
	Priority int
}

// PrewarmConfig holds configuration for the cache pre-warm job.
type PrewarmConfig struct {
	// Routes are the corridors to warm. If empty, uses
	// DefaultPrewarmRoutes.
	Routes []PrewarmRoute

	// Concurrency is the number of concurrent fetch operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each slot fetch.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultPrewarmConfig returns the default pre-warm configuration.
func DefaultPrewarmConfig() PrewarmConfig {
	return PrewarmConfig{
		Routes:      DefaultPrewarmRoutes(),
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

// DefaultPrewarmRoutes returns the default corridors to warm. These cover
// the major Austin commuter runs where most estimate traffic comes from.
func DefaultPrewarmRoutes() []PrewarmRoute {
	return []PrewarmRoute{
		{
			Name:        "downtown-domain",
			Origin:      "600 Congress Ave, Austin, TX",
			Destination: "11501 Domain Dr, Austin, TX",
			Priority:    1,
		},
		{
			Name:        "round-rock-downtown",
			Origin:      "201 E Main St, Round Rock, TX",
			Destination: "600 Congress Ave, Austin, TX",
			Priority:    1,
		},
		{
			Name:        "cedar-park-domain",
			Origin:      "600 Discovery Blvd, Cedar Park, TX",
			Destination: "11501 Domain Dr, Austin, TX",
			Priority:    2,
		},
		{
			Name:        "south-congress-mueller",
			Origin:      "1600 S Congress Ave, Austin, TX",
			Destination: "1825 McBee St, Austin, TX",
			Priority:    2,
		},
		{
			Name:        "pflugerville-downtown",
			Origin:      "100 E Main St, Pflugerville, TX",
			Destination: "600 Congress Ave, Austin, TX",
			Priority:    3,
		},
	}
}

// TotalRoutes returns the number of configured corridors.
func (c PrewarmConfig) TotalRoutes() int {
	return len(c.Routes)
}
