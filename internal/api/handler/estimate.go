package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/carboncycle/carboncycle/internal/api/models"
	"github.com/carboncycle/carboncycle/internal/api/response"
	"github.com/carboncycle/carboncycle/internal/emissions"
	"github.com/carboncycle/carboncycle/internal/estimator"
	"github.com/carboncycle/carboncycle/internal/routing"
	"github.com/carboncycle/carboncycle/internal/schedule"
	"github.com/carboncycle/carboncycle/internal/units"
)

// weekdayNames maps request day names to weekdays.
var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// EstimateHandler handles commute emission estimation endpoints.
type EstimateHandler struct {
	svc *estimator.Service
}

// NewEstimateHandler creates a new EstimateHandler.
func NewEstimateHandler(svc *estimator.Service) *EstimateHandler {
	return &EstimateHandler{svc: svc}
}

// Compute handles POST /v1/estimates:compute - run one full estimation pass.
func (h *EstimateHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var input models.EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	req, fieldErrors := buildRequest(input)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid estimate request", fieldErrors)
		return
	}

	result, err := h.svc.Estimate(r.Context(), req)
	if err != nil {
		writeEstimateError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, buildResponse(result))
}

// buildRequest validates the wire model and maps it onto the estimator input.
func buildRequest(input models.EstimateRequest) (estimator.Request, []models.FieldError) {
	var fieldErrors []models.FieldError

	if strings.TrimSpace(input.Origin) == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "origin", Message: "required", Code: "REQUIRED"})
	}
	if strings.TrimSpace(input.Destination) == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "destination", Message: "required", Code: "REQUIRED"})
	}
	if input.FuelEconomy <= 0 {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "fuelEconomy", Message: "must be greater than zero", Code: "OUT_OF_RANGE"})
	}
	if input.IdlingRate < 0 {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "idlingRate", Message: "must not be negative", Code: "OUT_OF_RANGE"})
	}

	week := make(map[time.Weekday]estimator.DayInput, len(input.Week))
	for name, day := range input.Week {
		weekday, ok := weekdayNames[strings.ToLower(name)]
		if !ok {
			fieldErrors = append(fieldErrors, models.FieldError{
				Field:   "week." + name,
				Message: "unknown day name",
				Code:    "INVALID",
			})
			continue
		}
		week[weekday] = estimator.DayInput{
			Commute:   day.Commute,
			LeaveHome: day.LeaveHome,
			LeaveWork: day.LeaveWork,
		}
	}

	return estimator.Request{
		Origin:          input.Origin,
		Destination:     input.Destination,
		Week:            week,
		FuelEconomy:     input.FuelEconomy,
		FuelEconomyUnit: units.FuelEconomyUnit(input.FuelEconomyUnit),
		IdlingRate:      input.IdlingRate,
		IdlingRateUnit:  units.IdlingRateUnit(input.IdlingRateUnit),
	}, fieldErrors
}

// writeEstimateError maps pipeline errors onto problem responses.
func writeEstimateError(w http.ResponseWriter, r *http.Request, err error) {
	var unitErr *units.UnitError
	switch {
	case errors.Is(err, estimator.ErrMissingAddress):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, emissions.ErrNoCommuteDays):
		response.BadRequest(w, r, "schedule has no commute days", nil)
	case errors.Is(err, schedule.ErrMalformedClockTime):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.As(err, &unitErr):
		response.BadRequest(w, r, unitErr.Error(), nil)
	case errors.Is(err, routing.ErrAddressNotFound):
		response.Unprocessable(w, r, "one of the addresses could not be resolved")
	case errors.Is(err, routing.ErrNoRouteFound):
		response.Unprocessable(w, r, "no driving route between the addresses")
	case errors.Is(err, routing.ErrQuotaExceeded):
		response.TooManyRequests(w, r, "routing provider quota exceeded")
	case errors.Is(err, routing.ErrProviderUnavailable):
		response.ServiceUnavailable(w, r, "routing provider unavailable")
	default:
		response.InternalError(w, r, "estimation pass failed")
	}
}

// buildResponse maps an estimator result onto the wire model.
func buildResponse(result *estimator.Result) models.EstimateResponse {
	slots := make([]models.SlotEstimate, 0, len(result.Slots))
	for _, s := range result.Slots {
		slots = append(slots, models.SlotEstimate{
			Label:          s.Label,
			Day:            s.Day.String(),
			DepartAt:       models.Timestamp(s.DepartAt),
			DistanceMeters: int(s.Distance.Meters()),
			IdleSeconds:    int(s.IdleTime.Seconds()),
			Emissions:      massValue(s.Emissions),
			FetchedAt:      models.Timestamp(s.FromCacheAt),
		})
	}

	summary := models.EstimateSummary{
		CommuteDays:   result.Summary.Days,
		OneWay:        massValue(result.Summary.OneWay),
		RoundTrip:     massValue(result.Summary.RoundTrip),
		Week:          massValue(result.Summary.Week),
		Month:         massValue(result.Summary.Month),
		Year:          massValue(result.Summary.Year),
		TreesToOffset: result.Summary.Year.Kilograms() / emissions.TreeAbsorptionKgPerYear,
	}

	return models.EstimateResponse{
		Origin:         result.Origin,
		Destination:    result.Destination,
		DistanceMeters: int(result.Distance.Meters()),
		DistanceMiles:  result.Distance.Miles(),
		DistanceKm:     result.Distance.Kilometers(),
		Slots:          slots,
		Summary:        summary,
		ComputedAt:     models.Timestamp(result.ComputedAt),
	}
}

func massValue(m units.Mass) models.MassValue {
	return models.MassValue{
		Pounds:    m.Pounds(),
		Kilograms: m.Kilograms(),
	}
}
