package models

// DayScheduleInput is one weekday's schedule in an estimate request.
type DayScheduleInput struct {
	Commute   bool   `json:"commute"`
	LeaveHome string `json:"leaveHome,omitempty"`
	LeaveWork string `json:"leaveWork,omitempty"`
}

// EstimateRequest is the request body for POST /v1/estimates:compute.
// Week keys are lowercase day names ("monday" through "sunday"); omitted
// days default to no commute.
type EstimateRequest struct {
	Origin      string                      `json:"origin"`
	Destination string                      `json:"destination"`
	Week        map[string]DayScheduleInput `json:"week"`

	FuelEconomy     float64 `json:"fuelEconomy"`
	FuelEconomyUnit string  `json:"fuelEconomyUnit"`
	IdlingRate      float64 `json:"idlingRate"`
	IdlingRateUnit  string  `json:"idlingRateUnit"`
}

// MassValue reports one CO2 mass in both display units.
type MassValue struct {
	Pounds    float64 `json:"lb"`
	Kilograms float64 `json:"kg"`
}

// SlotEstimate is the computed result for one departure slot.
type SlotEstimate struct {
	Label          string    `json:"label"`
	Day            string    `json:"day"`
	DepartAt       Timestamp `json:"departAt"`
	DistanceMeters int       `json:"distanceMeters"`
	IdleSeconds    int       `json:"idleSeconds"`
	Emissions      MassValue `json:"emissions"`
	FetchedAt      Timestamp `json:"fetchedAt"`
}

// EstimateSummary aggregates slot emissions into the standard projections.
type EstimateSummary struct {
	CommuteDays   int       `json:"commuteDays"`
	OneWay        MassValue `json:"oneWay"`
	RoundTrip     MassValue `json:"roundTrip"`
	Week          MassValue `json:"week"`
	Month         MassValue `json:"month"`
	Year          MassValue `json:"year"`
	TreesToOffset float64   `json:"treesToOffset"`
}

// EstimateResponse is the response body for POST /v1/estimates:compute.
type EstimateResponse struct {
	Origin         string          `json:"origin"`
	Destination    string          `json:"destination"`
	DistanceMeters int             `json:"distanceMeters"`
	DistanceMiles  float64         `json:"distanceMiles"`
	DistanceKm     float64         `json:"distanceKm"`
	Slots          []SlotEstimate  `json:"slots"`
	Summary        EstimateSummary `json:"summary"`
	ComputedAt     Timestamp       `json:"computedAt"`
}
