package emissions

import (
	"errors"
	"time"

	"github.com/carboncycle/carboncycle/internal/units"
)

// ErrNoCommuteDays indicates a schedule with zero active commute days: there
// is nothing to average. Surfaced to the user as "configure at least one
// commute day".
var ErrNoCommuteDays = errors.New("schedule has no commute days")

// Projection multipliers.
const (
	WeeksPerMonth = 4
	WeeksPerYear  = 52
)

// SlotEmission is one slot's computed emissions, tagged with the weekday it
// belongs to so distinct commute days can be counted.
type SlotEmission struct {
	Label     string
	Day       time.Weekday
	Emissions units.Mass
}

// Summary holds the aggregate figures for a weekly schedule.
type Summary struct {
	// Days is the number of distinct commute days contributing slots.
	Days      int
	OneWay    units.Mass
	RoundTrip units.Mass
	Week      units.Mass
	Month     units.Mass
	Year      units.Mass
}

// Summarize aggregates per-slot emissions into one-way, round-trip, weekly,
// monthly, and yearly figures. The week total is the plain sum; the one-way
// average divides by distinct commute days and by the two legs per day.
// Returns ErrNoCommuteDays when no slots are present.
func Summarize(slots []SlotEmission) (*Summary, error) {
	days := make(map[time.Weekday]struct{}, 7)
	week := 0.0
	for _, slot := range slots {
		days[slot.Day] = struct{}{}
		week += slot.Emissions.Pounds()
	}

	numDays := len(days)
	if numDays == 0 {
		return nil, ErrNoCommuteDays
	}

	oneWay := week / float64(numDays) / 2

	return &Summary{
		Days:      numDays,
		OneWay:    units.Pounds(oneWay),
		RoundTrip: units.Pounds(oneWay * 2),
		Week:      units.Pounds(week),
		Month:     units.Pounds(week * WeeksPerMonth),
		Year:      units.Pounds(week * WeeksPerYear),
	}, nil
}
