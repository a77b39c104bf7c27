// Package distancematrix provides a client for a Google-style distance
// matrix API, used to look up driving distance and in-traffic delay for a
// future departure time.
package distancematrix

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/carboncycle/carboncycle/internal/provider/resilience"
	"github.com/carboncycle/carboncycle/internal/routing"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "distancematrix"

	// DefaultBaseURL is the distance matrix API base URL.
	DefaultBaseURL = "https://maps.googleapis.com"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	matrixPath = "/maps/api/distancematrix/json"
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the distance matrix client.
type ClientConfig struct {
	// APIKey is the API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to the Google API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a distance matrix API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new distance matrix client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Traffic looks up the driving distance and in-traffic delay for one
// origin/destination pair at the given departure time.
func (c *Client) Traffic(ctx context.Context, req routing.TrafficRequest) (*routing.TrafficSample, error) {
	if req.Origin == "" || req.Destination == "" {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "EMPTY_ADDRESS",
			Message:  "origin and destination addresses are required",
			Err:      routing.ErrAddressNotFound,
		}
	}

	query := url.Values{}
	query.Set("origins", req.Origin)
	query.Set("destinations", req.Destination)
	query.Set("mode", "driving")
	query.Set("language", "en")
	query.Set("departure_time", strconv.FormatInt(req.DepartAt.Unix(), 10))
	query.Set("key", c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+matrixPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("origin", req.Origin).
		Str("destination", req.Destination).
		Time("depart_at", req.DepartAt).
		Msg("requesting distance matrix")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach routing provider",
			Err:      routing.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleHTTPError(resp.StatusCode)
	}

	var matrix matrixResponse
	if err := json.Unmarshal(respBody, &matrix); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	sample, err := c.toTrafficSample(&matrix)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("distance_meters", sample.DistanceMeters).
		Int("idle_seconds", sample.IdleSeconds).
		Msg("received distance matrix element")

	return sample, nil
}

// handleHTTPError maps transport-level failures to domain errors.
func (c *Client) handleHTTPError(statusCode int) error {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "API rate limit exceeded, please try again later",
			Err:      routing.ErrQuotaExceeded,
		}
	case statusCode >= 500:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "routing provider is temporarily unavailable",
			Err:      routing.ErrProviderUnavailable,
		}
	default:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  fmt.Sprintf("routing provider returned status %d", statusCode),
			Err:      routing.ErrProviderUnavailable,
		}
	}
}

// toTrafficSample extracts the single origin/destination element and maps API
// status codes to domain errors.
func (c *Client) toTrafficSample(matrix *matrixResponse) (*routing.TrafficSample, error) {
	switch matrix.Status {
	case statusOK:
	case statusOverQueryLimit, statusOverDailyLimit:
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     matrix.Status,
			Message:  "routing quota exceeded",
			Err:      routing.ErrQuotaExceeded,
		}
	case statusRequestDenied:
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     matrix.Status,
			Message:  "API access denied - check API key configuration",
			Err:      routing.ErrProviderUnavailable,
		}
	default:
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     matrix.Status,
			Message:  nonEmpty(matrix.ErrorMessage, "routing request rejected"),
			Err:      routing.ErrProviderUnavailable,
		}
	}

	if len(matrix.Rows) == 0 || len(matrix.Rows[0].Elements) == 0 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "EMPTY_RESPONSE",
			Message:  "distance matrix response contained no elements",
			Err:      routing.ErrNoRouteFound,
		}
	}

	element := matrix.Rows[0].Elements[0]
	switch element.Status {
	case statusOK:
	case statusNotFound:
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     element.Status,
			Message:  "an address could not be resolved",
			Err:      routing.ErrAddressNotFound,
		}
	case statusZeroResults:
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     element.Status,
			Message:  "no drivable route between the given addresses",
			Err:      routing.ErrNoRouteFound,
		}
	default:
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     element.Status,
			Message:  "distance matrix element unavailable",
			Err:      routing.ErrProviderUnavailable,
		}
	}

	if element.Distance == nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "MISSING_DISTANCE",
			Message:  "distance matrix element is missing a distance",
			Err:      routing.ErrNoRouteFound,
		}
	}

	// duration_in_traffic is only present when the provider has live traffic
	// data for the departure; absence means no idle delay.
	idleSeconds := 0
	if element.DurationInTraffic != nil {
		idleSeconds = element.DurationInTraffic.Value
	}

	return &routing.TrafficSample{
		DistanceMeters: element.Distance.Value,
		IdleSeconds:    idleSeconds,
		Provider:       ProviderName,
		FetchedAt:      time.Now(),
	}, nil
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
