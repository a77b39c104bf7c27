package distancematrix

// Top-level and per-element status codes returned by the distance matrix API.
const (
	statusOK               = "OK"
	statusNotFound         = "NOT_FOUND"
	statusZeroResults      = "ZERO_RESULTS"
	statusOverQueryLimit   = "OVER_QUERY_LIMIT"
	statusOverDailyLimit   = "OVER_DAILY_LIMIT"
	statusRequestDenied    = "REQUEST_DENIED"
	statusInvalidRequest   = "INVALID_REQUEST"
	statusUnknownError     = "UNKNOWN_ERROR"
	statusMaxElemsExceeded = "MAX_ELEMENTS_EXCEEDED"
)

// matrixResponse represents the distance matrix API response body.
type matrixResponse struct {
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
	Rows         []matrixRow `json:"rows"`
}

// matrixRow is one origin's results.
type matrixRow struct {
	Elements []matrixElement `json:"elements"`
}

// matrixElement is one origin/destination pairing.
type matrixElement struct {
	Status            string       `json:"status"`
	Distance          *valueField  `json:"distance,omitempty"`
	Duration          *valueField  `json:"duration,omitempty"`
	DurationInTraffic *valueField  `json:"duration_in_traffic,omitempty"`
	Fare              *matrixExtra `json:"fare,omitempty"`
}

// valueField carries a magnitude plus its display text.
type valueField struct {
	Value int    `json:"value"`
	Text  string `json:"text,omitempty"`
}

// matrixExtra is present for transit responses; unused for driving.
type matrixExtra struct {
	Currency string  `json:"currency,omitempty"`
	Value    float64 `json:"value,omitempty"`
}
