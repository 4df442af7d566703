package airquality

import (
	"context"
)

// SeriesFetcher abstracts the upstream air-quality provider.
// Implementations perform exactly one bounded attempt per call.
type SeriesFetcher interface {
	FetchSeries(ctx context.Context, lat, lon float64, startDate, endDate string) (*RawSeries, error)
}

// CoordinateResolver maps a city name to coordinates, typically via a
// storage-backed cache over an external geocoding capability.
type CoordinateResolver interface {
	Resolve(ctx context.Context, city string) (lat, lon float64, err error)
}

// Store is the contract the persistent store must satisfy.
type Store interface {
	// UpsertMeasurements merges rows atomically, keyed on (ts, city).
	// An empty batch is a no-op returning 0 without opening a
	// transaction.
	UpsertMeasurements(ctx context.Context, rows []Measurement) (int, error)

	// MeasurementsInWindow returns a city's rows whose timestamp falls
	// inside the window, ordered by timestamp ascending.
	MeasurementsInWindow(ctx context.Context, city string, w Window) ([]Measurement, error)
}
