package models

// UnitOption describes one selectable unit.
type UnitOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// EmissionConstants lists the fixed factors used by the calculator, so
// clients can display matching numbers without re-deriving them.
type EmissionConstants struct {
	CO2PoundsPerGallon      float64 `json:"co2PoundsPerGallon"`
	KilogramsPerPound       float64 `json:"kilogramsPerPound"`
	TreeAbsorptionKgPerYear float64 `json:"treeAbsorptionKgPerYear"`
}

// UnitsMetadata is the response for GET /v1/metadata/units.
type UnitsMetadata struct {
	FuelEconomyUnits []UnitOption      `json:"fuelEconomyUnits"`
	IdlingRateUnits  []UnitOption      `json:"idlingRateUnits"`
	Constants        EmissionConstants `json:"constants"`
}
