package airquality

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Service orchestrates per-city ingestion and multi-city comparison.
// It holds no state across requests; everything crossing request
// boundaries lives in the store.
type Service struct {
	store    Store
	resolver CoordinateResolver
	upstream SeriesFetcher

	// now is swappable for tests; defaults to time.Now.
	now func() time.Time
}

// NewService creates a new Service.
func NewService(store Store, resolver CoordinateResolver, upstream SeriesFetcher) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		upstream: upstream,
		now:      time.Now,
	}
}

// IngestResult reports a completed single-city ingestion.
type IngestResult struct {
	City      string  `json:"city"`
	Inserted  int     `json:"inserted"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// IngestWindow resolves the city, fetches the sliding window
// [today - days, today] from the upstream provider, normalizes the
// payload and merges it into storage. A failure in resolve or fetch
// aborts the whole operation; normalize and merge are not reached.
// Re-running on the same day converges storage to the latest upstream
// values without duplicating rows.
func (s *Service) IngestWindow(ctx context.Context, city string, days int) (IngestResult, error) {
	lat, lon, err := s.resolver.Resolve(ctx, city)
	if err != nil {
		return IngestResult{}, err
	}

	w := SlidingWindow(days, s.now())

	raw, err := s.upstream.FetchSeries(ctx, lat, lon, w.StartDate(), w.EndDate())
	if err != nil {
		return IngestResult{}, err
	}

	rows, err := FlattenSeries(city, lat, lon, raw)
	if err != nil {
		return IngestResult{}, fmt.Errorf("normalize series for %q: %w", city, err)
	}

	n, err := s.store.UpsertMeasurements(ctx, rows)
	if err != nil {
		return IngestResult{}, err
	}

	return IngestResult{City: city, Inserted: n, Latitude: lat, Longitude: lon}, nil
}

// Compare ingests the window for every requested city and builds the
// cross-city comparison from the merged rows. Per-city ingestion runs
// concurrently; any single city's failure fails the whole request, no
// partial comparison is returned.
func (s *Service) Compare(ctx context.Context, cities []string, days int) (*ComparisonResult, error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for _, city := range cities {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()

			if _, err := s.IngestWindow(ctx, city, days); err != nil {
				log.Printf("compare: ingest failed for %q: %v", city, err)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	w := SlidingWindow(days, s.now())
	rowsByCity := make(map[string][]Measurement, len(cities))
	for _, city := range cities {
		rows, err := s.store.MeasurementsInWindow(ctx, city, w)
		if err != nil {
			return nil, err
		}
		rowsByCity[city] = rows
	}

	summaries, comparison := BuildComparison(cities, rowsByCity)
	return &ComparisonResult{
		Window:     WindowDates{Start: w.StartDate(), End: w.EndDate()},
		Summaries:  summaries,
		Comparison: comparison,
	}, nil
}
