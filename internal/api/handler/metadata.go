package handler

import (
	"net/http"

	"github.com/carboncycle/carboncycle/internal/api/models"
	"github.com/carboncycle/carboncycle/internal/api/response"
	"github.com/carboncycle/carboncycle/internal/emissions"
	"github.com/carboncycle/carboncycle/internal/units"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct{}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler() *MetadataHandler {
	return &MetadataHandler{}
}

// GetUnits handles GET /v1/metadata/units - list accepted units and the
// fixed emission factors.
func (h *MetadataHandler) GetUnits(w http.ResponseWriter, r *http.Request) {
	meta := models.UnitsMetadata{
		FuelEconomyUnits: []models.UnitOption{
			{ID: string(units.MPGUS), Label: "Miles per US gallon"},
			{ID: string(units.MPGImperial), Label: "Miles per imperial gallon"},
			{ID: string(units.KmPerLiter), Label: "Kilometers per liter"},
			{ID: string(units.LitersPer100), Label: "Liters per 100 kilometers"},
		},
		IdlingRateUnits: []models.UnitOption{
			{ID: string(units.GalPerHourUS), Label: "US gallons per hour"},
			{ID: string(units.GalPerHourImperial), Label: "Imperial gallons per hour"},
			{ID: string(units.LitersPerHour), Label: "Liters per hour"},
		},
		Constants: models.EmissionConstants{
			CO2PoundsPerGallon:      emissions.CO2PoundsPerGallon,
			KilogramsPerPound:       units.KilogramsPerPound,
			TreeAbsorptionKgPerYear: emissions.TreeAbsorptionKgPerYear,
		},
	}
	response.JSON(w, r, http.StatusOK, meta)
}
