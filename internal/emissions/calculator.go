// Package emissions computes CO2 estimates for commute legs and aggregates
// them into weekly, monthly, and yearly projections.
package emissions

import (
	"time"

	"github.com/carboncycle/carboncycle/internal/units"
)

// CO2PoundsPerGallon is the CO2 mass produced per US gallon of gasoline.
// Fixed, not configurable.
const CO2PoundsPerGallon = 19.60

// TreeAbsorptionKgPerYear is the CO2 mass a mature tree absorbs in a year,
// used to express yearly totals as an equivalent number of trees.
const TreeAbsorptionKgPerYear = 22.0

// Compute returns the CO2 mass for one commute leg: fuel burned covering the
// distance at the given economy, plus fuel burned idling in traffic at the
// given rate, times the per-gallon emission factor.
func Compute(distance units.Distance, idle time.Duration, economy units.FuelEconomy, idlingRate units.IdlingRate) units.Mass {
	travelGallons := 0.0
	if economy.MilesPerGallon() > 0 {
		travelGallons = distance.Miles() / economy.MilesPerGallon()
	}
	idleGallons := idle.Hours() * idlingRate.GallonsPerHour()

	return units.Pounds((travelGallons + idleGallons) * CO2PoundsPerGallon)
}
