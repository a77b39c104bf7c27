// Package estimator orchestrates one full recomputation pass: schedule
// resolution, cached route lookups, emissions computation, and aggregation.
package estimator

import (
	"errors"
	"time"

	"github.com/carboncycle/carboncycle/internal/emissions"
	"github.com/carboncycle/carboncycle/internal/units"
)

// ErrMissingAddress indicates an empty origin or destination address.
var ErrMissingAddress = errors.New("origin and destination addresses are required")

// Request carries everything one pass consumes: the address pair, the weekly
// schedule, and the unit-flexible efficiency settings.
type Request struct {
	Origin      string
	Destination string

	Week map[time.Weekday]DayInput

	FuelEconomy     float64
	FuelEconomyUnit units.FuelEconomyUnit
	IdlingRate      float64
	IdlingRateUnit  units.IdlingRateUnit
}

// DayInput is one weekday's schedule input.
type DayInput struct {
	Commute   bool
	LeaveHome string
	LeaveWork string
}

// SlotResult is one resolved commute leg with its route sample and computed
// emissions.
type SlotResult struct {
	Label       string
	Day         time.Weekday
	DepartAt    time.Time
	Distance    units.Distance
	IdleTime    time.Duration
	Emissions   units.Mass
	FromCacheAt time.Time
}

// Result is the complete outcome of one pass, threaded through the pipeline
// as a value rather than accumulated in shared fields.
type Result struct {
	Origin      string
	Destination string

	// Distance is the one-way driving distance, taken from the first
	// resolved slot.
	Distance units.Distance

	Slots   []SlotResult
	Summary *emissions.Summary

	ComputedAt time.Time
}
