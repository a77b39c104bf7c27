// Package units converts user-entered fuel figures into the canonical basis
// used by the emissions formula: miles, US gallons, hours, pounds.
//
// Conversions are explicit factor tables over a small fixed set of unit
// families. Passing an unknown family is a programming error and is reported
// as a *UnitError.
package units

import "fmt"

// Conversion factors between the supported unit systems.
const (
	LitersPerUSGallon  = 3.785411784
	LitersPerImpGallon = 4.54609
	KilometersPerMile  = 1.609344
	MetersPerMile      = 1609.344
	KilogramsPerPound  = 0.45359237
)

// FuelEconomyUnit identifies a fuel-economy unit family.
type FuelEconomyUnit string

// Supported fuel-economy families.
const (
	MPGUS        FuelEconomyUnit = "mpg_us"
	MPGImperial  FuelEconomyUnit = "mpg_imp"
	KmPerLiter   FuelEconomyUnit = "km_per_l"
	LitersPer100 FuelEconomyUnit = "l_per_100km"
)

// IdlingRateUnit identifies an idling fuel-consumption unit family.
type IdlingRateUnit string

// Supported idling-rate families.
const (
	GalPerHourUS       IdlingRateUnit = "gal_per_hr_us"
	GalPerHourImperial IdlingRateUnit = "gal_per_hr_imp"
	LitersPerHour      IdlingRateUnit = "l_per_hr"
)

// FuelEconomyUnits lists the supported fuel-economy families with their
// user-facing labels.
func FuelEconomyUnits() map[FuelEconomyUnit]string {
	return map[FuelEconomyUnit]string{
		MPGUS:        "mpg (US)",
		MPGImperial:  "mpg (imp)",
		KmPerLiter:   "km/L",
		LitersPer100: "L/100 km",
	}
}

// IdlingRateUnits lists the supported idling-rate families with their
// user-facing labels.
func IdlingRateUnits() map[IdlingRateUnit]string {
	return map[IdlingRateUnit]string{
		GalPerHourUS:       "gal/hr (US)",
		GalPerHourImperial: "gal/hr (imp)",
		LitersPerHour:      "L/hr",
	}
}

// UnitError reports an unsupported or dimensionally invalid unit family.
// It indicates a caller bug, not a recoverable condition.
type UnitError struct {
	Family string
	Value  float64
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("unsupported unit family %q (value %g)", e.Family, e.Value)
}

// Distance is a length stored in meters.
type Distance float64

// Meters constructs a Distance from a magnitude in meters.
func Meters(m float64) Distance { return Distance(m) }

func (d Distance) Meters() float64     { return float64(d) }
func (d Distance) Miles() float64      { return float64(d) / MetersPerMile }
func (d Distance) Kilometers() float64 { return float64(d) / 1000 }

// Mass is a mass stored in pounds. CO2 quantities are pounds canonically and
// displayable in kilograms.
type Mass float64

// Pounds constructs a Mass from a magnitude in pounds.
func Pounds(lb float64) Mass { return Mass(lb) }

func (m Mass) Pounds() float64    { return float64(m) }
func (m Mass) Kilograms() float64 { return float64(m) * KilogramsPerPound }

// FuelEconomy is a fuel economy in the canonical miles per US gallon.
type FuelEconomy float64

// MilesPerGallon returns the canonical magnitude.
func (f FuelEconomy) MilesPerGallon() float64 { return float64(f) }

// IdlingRate is an idling fuel consumption in the canonical US gallons
// per hour.
type IdlingRate float64

// GallonsPerHour returns the canonical magnitude.
func (r IdlingRate) GallonsPerHour() float64 { return float64(r) }

// lPer100Reference is the canonical equivalent of "100 km on one liter":
// the fixed reference quantity the L/100 km inversion is defined against.
const lPer100Reference = 100 / KilometersPerMile * LitersPerUSGallon

// fuelEconomyFactors converts one unit of each efficiency family (higher is
// better) into miles per US gallon. L/100 km is absent: it expresses
// consumption, not efficiency, and is inverted in ToFuelEconomy.
var fuelEconomyFactors = map[FuelEconomyUnit]float64{
	MPGUS:       1,
	MPGImperial: LitersPerUSGallon / LitersPerImpGallon,
	KmPerLiter:  LitersPerUSGallon / KilometersPerMile,
}

// idlingRateFactors converts one unit of each idling family into US gallons
// per hour.
var idlingRateFactors = map[IdlingRateUnit]float64{
	GalPerHourUS:       1,
	GalPerHourImperial: LitersPerImpGallon / LitersPerUSGallon,
	LitersPerHour:      1 / LitersPerUSGallon,
}

// ToFuelEconomy converts a magnitude in the given family to the canonical
// miles per US gallon.
//
// L/100 km is the single inverted family: the magnitude is a consumption, so
// the canonical value is reference / magnitude rather than magnitude * factor.
func ToFuelEconomy(magnitude float64, unit FuelEconomyUnit) (FuelEconomy, error) {
	if unit == LitersPer100 {
		if magnitude == 0 {
			return 0, &UnitError{Family: string(unit), Value: magnitude}
		}
		return FuelEconomy(lPer100Reference / magnitude), nil
	}
	factor, ok := fuelEconomyFactors[unit]
	if !ok {
		return 0, &UnitError{Family: string(unit), Value: magnitude}
	}
	return FuelEconomy(magnitude * factor), nil
}

// FromFuelEconomy converts a canonical fuel economy back to the given family.
// For L/100 km the inverse is consumption = reference / canonical.
func FromFuelEconomy(economy FuelEconomy, unit FuelEconomyUnit) (float64, error) {
	if unit == LitersPer100 {
		if economy == 0 {
			return 0, &UnitError{Family: string(unit), Value: float64(economy)}
		}
		return lPer100Reference / float64(economy), nil
	}
	factor, ok := fuelEconomyFactors[unit]
	if !ok {
		return 0, &UnitError{Family: string(unit), Value: float64(economy)}
	}
	return float64(economy) / factor, nil
}

// ToIdlingRate converts a magnitude in the given family to the canonical
// US gallons per hour.
func ToIdlingRate(magnitude float64, unit IdlingRateUnit) (IdlingRate, error) {
	factor, ok := idlingRateFactors[unit]
	if !ok {
		return 0, &UnitError{Family: string(unit), Value: magnitude}
	}
	return IdlingRate(magnitude * factor), nil
}

// FromIdlingRate converts a canonical idling rate back to the given family.
func FromIdlingRate(rate IdlingRate, unit IdlingRateUnit) (float64, error) {
	factor, ok := idlingRateFactors[unit]
	if !ok {
		return 0, &UnitError{Family: string(unit), Value: float64(rate)}
	}
	return float64(rate) / factor, nil
}

// LitersPer100Reference returns the fixed reference quantity the L/100 km
// inversion is defined against, in canonical miles per US gallon. Converting
// a consumption c satisfies canonical * c == LitersPer100Reference().
func LitersPer100Reference() float64 { return lPer100Reference }
