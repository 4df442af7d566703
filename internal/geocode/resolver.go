package geocode

import (
	"context"
	"errors"
	"fmt"

	"github.com/angeli-sliit/AirSense/internal/airquality"
	"github.com/angeli-sliit/AirSense/internal/store"
)

// CoordinateCache is the storage side of the resolver: one row per
// resolved city name, read on every ingestion, written on first
// resolution.
type CoordinateCache interface {
	CityCoordinate(ctx context.Context, city string) (airquality.CityCoordinate, error)
	SaveCityCoordinate(ctx context.Context, coord airquality.CityCoordinate) error
}

// Resolver maps a city name to coordinates, consulting the cache
// before the external backend. City strings are exact keys; callers
// own any case or whitespace normalization.
type Resolver struct {
	cache   CoordinateCache
	backend Geocoder
}

// NewResolver creates a Resolver.
func NewResolver(cache CoordinateCache, backend Geocoder) *Resolver {
	return &Resolver{cache: cache, backend: backend}
}

// Resolve returns the coordinates for a city, performing and
// persisting an external lookup on cache miss. The cache write is not
// transactionally coupled to ingestion; a concurrent duplicate lookup
// is absorbed by the city-keyed write.
func (r *Resolver) Resolve(ctx context.Context, city string) (float64, float64, error) {
	if city == "" {
		return 0, 0, fmt.Errorf("city must not be empty")
	}

	coord, err := r.cache.CityCoordinate(ctx, city)
	if err == nil {
		return coord.Latitude, coord.Longitude, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return 0, 0, err
	}

	lat, lon, err := r.backend.Geocode(ctx, city)
	if err != nil {
		return 0, 0, err
	}

	if err := r.cache.SaveCityCoordinate(ctx, airquality.CityCoordinate{
		City:      city,
		Latitude:  lat,
		Longitude: lon,
	}); err != nil {
		return 0, 0, err
	}

	return lat, lon, nil
}
