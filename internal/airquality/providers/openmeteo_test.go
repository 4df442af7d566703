package providers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSeriesBuildsDocumentedQuery(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{
			"hourly":     q.Get("hourly"),
			"start_date": q.Get("start_date"),
			"end_date":   q.Get("end_date"),
			"timezone":   q.Get("timezone"),
		}
		w.Write([]byte(`{"hourly":{"time":["2025-06-01T00:00"],"pm2_5":[3.1],"pm10":[7.2]}}`))
	}))
	defer srv.Close()

	c := NewOpenMeteoClient(srv.Client(), srv.URL)
	raw, err := c.FetchSeries(context.Background(), 48.85, 2.35, "2025-06-01", "2025-06-02")
	require.NoError(t, err)

	assert.Equal(t, "pm2_5,pm10", got["hourly"])
	assert.Equal(t, "2025-06-01", got["start_date"])
	assert.Equal(t, "2025-06-02", got["end_date"])
	assert.Equal(t, "auto", got["timezone"])

	require.Len(t, raw.Hourly.Time, 1)
	require.Len(t, raw.Hourly.PM25, 1)
	require.NotNil(t, raw.Hourly.PM25[0])
	assert.Equal(t, 3.1, *raw.Hourly.PM25[0])
}

func TestFetchSeriesMissingMetricDecodesNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly":{"time":["2025-06-01T00:00"],"pm2_5":[3.1]}}`))
	}))
	defer srv.Close()

	c := NewOpenMeteoClient(srv.Client(), srv.URL)
	raw, err := c.FetchSeries(context.Background(), 48.85, 2.35, "2025-06-01", "2025-06-01")
	require.NoError(t, err)

	assert.NotNil(t, raw.Hourly.PM25)
	assert.Nil(t, raw.Hourly.PM10)
}

func TestFetchSeriesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewOpenMeteoClient(srv.Client(), srv.URL)
	_, err := c.FetchSeries(context.Background(), 48.85, 2.35, "1900-01-01", "1900-01-02")

	var httpErr *UpstreamHTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
}

func TestFetchSeriesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewOpenMeteoClient(srv.Client(), srv.URL)
	c.timeout = 50 * time.Millisecond

	_, err := c.FetchSeries(context.Background(), 48.85, 2.35, "2025-06-01", "2025-06-02")
	assert.ErrorIs(t, err, ErrUpstreamTimeout)
}

func TestFetchSeriesRejectsNonFiniteCoordinates(t *testing.T) {
	c := NewOpenMeteoClient(http.DefaultClient, "http://unused.invalid")

	_, err := c.FetchSeries(context.Background(), math.NaN(), 2.35, "2025-06-01", "2025-06-02")
	assert.Error(t, err)
}

func TestProbeToleratesClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewOpenMeteoClient(srv.Client(), srv.URL)
	assert.NoError(t, c.Probe(context.Background()))
}

func TestProbeFailsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewOpenMeteoClient(srv.Client(), srv.URL)
	assert.Error(t, c.Probe(context.Background()))
}
