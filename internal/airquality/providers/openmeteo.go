package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/angeli-sliit/AirSense/internal/airquality"
)

const defaultBaseURL = "https://air-quality-api.open-meteo.com/v1/air-quality"

// ErrUpstreamTimeout signals that the provider call exceeded its
// deadline. No retry is attempted at this layer.
var ErrUpstreamTimeout = errors.New("upstream timed out")

// UpstreamHTTPError is any non-success transport or status outcome,
// carrying the underlying status or cause unmodified.
type UpstreamHTTPError struct {
	StatusCode int // 0 when the failure happened before a response
	Err        error
}

func (e *UpstreamHTTPError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream request failed: %v", e.Err)
}

func (e *UpstreamHTTPError) Unwrap() error { return e.Err }

// OpenMeteoClient fetches date-bounded hourly PM2.5/PM10 series from
// the Open-Meteo air-quality API. Each call is a single attempt under
// a fixed deadline; a circuit breaker fails fast when the upstream is
// unhealthy.
type OpenMeteoClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoClient creates a client using the shared HTTP client.
// baseURL is optional and falls back to the Open-Meteo endpoint.
func NewOpenMeteoClient(client *http.Client, baseURL string) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo-airquality",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenMeteoClient{
		baseURL: baseURL,
		client:  client,
		timeout: 30 * time.Second,
		circuit: cb,
	}
}

// FetchSeries performs one bounded GET for the inclusive date range
// and decodes the hourly payload. Failures are typed: deadline
// overruns map to ErrUpstreamTimeout, everything else to
// *UpstreamHTTPError.
func (c *OpenMeteoClient) FetchSeries(ctx context.Context, lat, lon float64, startDate, endDate string) (*airquality.RawSeries, error) {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return nil, fmt.Errorf("invalid coordinates (%v, %v)", lat, lon)
	}

	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", lat))
	values.Set("longitude", fmt.Sprintf("%f", lon))
	values.Set("hourly", "pm2_5,pm10")
	values.Set("start_date", startDate)
	values.Set("end_date", endDate)
	values.Set("timezone", "auto")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, &UpstreamHTTPError{StatusCode: resp.StatusCode}
		}
		return resp, nil
	})
	if err != nil {
		return nil, typeUpstreamError(err)
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, &UpstreamHTTPError{Err: fmt.Errorf("unexpected result type from circuit breaker")}
	}
	defer resp.Body.Close()

	var payload airquality.RawSeries
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &UpstreamHTTPError{Err: fmt.Errorf("decode response: %w", err)}
	}

	return &payload, nil
}

// Probe issues a minimal bounded request so health checks can tell a
// reachable upstream from a dead one. Server errors count as failure,
// client errors do not.
func (c *OpenMeteoClient) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	values := url.Values{}
	values.Set("latitude", "0")
	values.Set("longitude", "0")
	values.Set("hourly", "pm2_5")
	values.Set("start_date", "2025-01-01")
	values.Set("end_date", "2025-01-02")

	u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return typeUpstreamError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &UpstreamHTTPError{StatusCode: resp.StatusCode}
	}
	return nil
}

// typeUpstreamError folds transport failures into the error taxonomy.
func typeUpstreamError(err error) error {
	var httpErr *UpstreamHTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}

	return &UpstreamHTTPError{Err: err}
}
