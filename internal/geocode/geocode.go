package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kelvins/geocoder"
)

// Errors surfaced by geocoding backends. Both are terminal for the
// current ingestion; no retry happens inside this package.
var (
	// ErrCityNotFound means the external lookup yielded no result.
	ErrCityNotFound = errors.New("city not found")
	// ErrUnavailable means the geocoding capability could not be
	// reached.
	ErrUnavailable = errors.New("geocoding unavailable")
)

// Geocoder abstracts an external city-to-coordinates capability.
type Geocoder interface {
	Geocode(ctx context.Context, city string) (lat, lon float64, err error)
}

const defaultSearchURL = "https://geocoding-api.open-meteo.com/v1/search"

// OpenMeteoGeocoder resolves city names through the keyless
// Open-Meteo geocoding search API.
type OpenMeteoGeocoder struct {
	baseURL string
	client  *http.Client
}

// NewOpenMeteoGeocoder creates a geocoder using the shared HTTP
// client. baseURL is optional.
func NewOpenMeteoGeocoder(client *http.Client, baseURL string) *OpenMeteoGeocoder {
	if baseURL == "" {
		baseURL = defaultSearchURL
	}
	return &OpenMeteoGeocoder{baseURL: baseURL, client: client}
}

func (g *OpenMeteoGeocoder) Geocode(ctx context.Context, city string) (float64, float64, error) {
	values := url.Values{}
	values.Set("name", city)
	values.Set("count", "1")

	u := fmt.Sprintf("%s?%s", g.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, 0, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, 0, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload struct {
		Results []struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, 0, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	if len(payload.Results) == 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrCityNotFound, city)
	}
	return payload.Results[0].Latitude, payload.Results[0].Longitude, nil
}

// GoogleGeocoder resolves city names through the Google Geocoding API.
// Selected when an API key is configured.
type GoogleGeocoder struct{}

// NewGoogleGeocoder sets the package-level key the geocoder library
// requires and returns the backend.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{}
}

func (g *GoogleGeocoder) Geocode(_ context.Context, city string) (float64, float64, error) {
	loc, err := geocoder.Geocoding(geocoder.Address{City: city})
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return loc.Latitude, loc.Longitude, nil
}
