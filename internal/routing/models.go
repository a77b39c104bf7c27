// Package routing defines the traffic lookup contract the estimator consumes.
package routing

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for traffic lookups.
var (
	// ErrProviderUnavailable indicates the routing provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrAddressNotFound indicates an origin or destination address could not be resolved.
	ErrAddressNotFound = errors.New("address could not be resolved")
	// ErrNoRouteFound indicates no drivable route exists between the addresses.
	ErrNoRouteFound = errors.New("no route found between the given addresses")
	// ErrQuotaExceeded indicates the API quota has been exceeded.
	ErrQuotaExceeded = errors.New("routing quota exceeded")
)

// Provider is the external routing collaborator: given an origin address, a
// destination address, and a future departure time, it returns the travel
// distance and the in-traffic idle duration.
type Provider interface {
	// Traffic retrieves the distance and idle duration for one departure.
	Traffic(ctx context.Context, req TrafficRequest) (*TrafficSample, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// TrafficRequest describes one traffic lookup.
type TrafficRequest struct {
	Origin      string
	Destination string
	DepartAt    time.Time
}

// TrafficSample is one lookup result in base units.
type TrafficSample struct {
	DistanceMeters int
	IdleSeconds    int
	Provider       string
	FetchedAt      time.Time
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the lookup can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrQuotaExceeded)
}
