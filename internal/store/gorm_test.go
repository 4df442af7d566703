package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/angeli-sliit/AirSense/internal/airquality"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()

	db, err := Open("sqlite", ":memory:")
	require.NoError(t, err)

	s := NewGormStore(db)
	require.NoError(t, s.AutoMigrate())
	return s
}

func f(v float64) *float64 { return &v }

func hourlyRows(city string, start time.Time, n int, pm25 float64) []airquality.Measurement {
	rows := make([]airquality.Measurement, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, airquality.Measurement{
			TS:        start.Add(time.Duration(i) * time.Hour),
			City:      city,
			Latitude:  48.85,
			Longitude: 2.35,
			PM25:      f(pm25),
			PM10:      f(pm25 * 2),
			Source:    airquality.SourceOpenMeteo,
		})
	}
	return rows
}

func TestUpsertMeasurementsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	n, err := s.UpsertMeasurements(ctx, hourlyRows("Paris", start, 168, 10))
	require.NoError(t, err)
	assert.Equal(t, 168, n)

	// Re-ingesting the same window must not grow the table.
	n, err = s.UpsertMeasurements(ctx, hourlyRows("Paris", start, 168, 12))
	require.NoError(t, err)
	assert.Equal(t, 168, n)

	w := airquality.Window{Start: start, End: start.AddDate(0, 0, 7)}
	rows, err := s.MeasurementsInWindow(ctx, "Paris", w)
	require.NoError(t, err)
	assert.Len(t, rows, 168)
}

func TestUpsertMeasurementsOverwritesVolatileFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)

	_, err := s.UpsertMeasurements(ctx, []airquality.Measurement{{
		TS: ts, City: "Paris", Latitude: 48.0, Longitude: 2.0,
		PM25: f(10), PM10: f(20), Source: airquality.SourceOpenMeteo,
	}})
	require.NoError(t, err)

	_, err = s.UpsertMeasurements(ctx, []airquality.Measurement{{
		TS: ts, City: "Paris", Latitude: 48.85, Longitude: 2.35,
		PM25: f(33), PM10: nil, Source: airquality.SourceOpenMeteo,
	}})
	require.NoError(t, err)

	w := airquality.Window{Start: ts.Truncate(24 * time.Hour), End: ts.Truncate(24 * time.Hour)}
	rows, err := s.MeasurementsInWindow(ctx, "Paris", w)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, ts, got.TS.UTC())
	assert.Equal(t, "Paris", got.City)
	assert.Equal(t, airquality.SourceOpenMeteo, got.Source)
	assert.Equal(t, 48.85, got.Latitude)
	assert.Equal(t, 2.35, got.Longitude)
	require.NotNil(t, got.PM25)
	assert.Equal(t, 33.0, *got.PM25)
	assert.Nil(t, got.PM10, "absent metric overwrites the stored value")
}

func TestUpsertMeasurementsDistinctCitiesDoNotCollide(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.UpsertMeasurements(ctx, []airquality.Measurement{
		{TS: ts, City: "Paris", PM25: f(1), Source: airquality.SourceOpenMeteo},
		{TS: ts, City: "Berlin", PM25: f(2), Source: airquality.SourceOpenMeteo},
	})
	require.NoError(t, err)

	w := airquality.Window{Start: ts, End: ts}
	paris, err := s.MeasurementsInWindow(ctx, "Paris", w)
	require.NoError(t, err)
	berlin, err := s.MeasurementsInWindow(ctx, "Berlin", w)
	require.NoError(t, err)
	assert.Len(t, paris, 1)
	assert.Len(t, berlin, 1)
}

func TestMeasurementsInWindowExcludesOutside(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inside := time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)
	before := time.Date(2025, 6, 2, 23, 0, 0, 0, time.UTC)
	after := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)

	_, err := s.UpsertMeasurements(ctx, []airquality.Measurement{
		{TS: inside, City: "Paris", Source: airquality.SourceOpenMeteo},
		{TS: before, City: "Paris", Source: airquality.SourceOpenMeteo},
		{TS: after, City: "Paris", Source: airquality.SourceOpenMeteo},
	})
	require.NoError(t, err)

	w := airquality.Window{
		Start: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
	}
	rows, err := s.MeasurementsInWindow(ctx, "Paris", w)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, inside, rows[0].TS.UTC())
}

func TestCityCoordinateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CityCoordinate(ctx, "Paris")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveCityCoordinate(ctx, airquality.CityCoordinate{
		City: "Paris", Latitude: 48.85, Longitude: 2.35,
	}))

	coord, err := s.CityCoordinate(ctx, "Paris")
	require.NoError(t, err)
	assert.Equal(t, 48.85, coord.Latitude)

	// A duplicate save (lost resolution race) is absorbed.
	require.NoError(t, s.SaveCityCoordinate(ctx, airquality.CityCoordinate{
		City: "Paris", Latitude: 0, Longitude: 0,
	}))
	coord, err = s.CityCoordinate(ctx, "Paris")
	require.NoError(t, err)
	assert.Equal(t, 48.85, coord.Latitude)
}

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return NewGormStore(db), mock
}

func TestUpsertMeasurementsEmptyBatchOpensNoTransaction(t *testing.T) {
	s, mock := newMockStore(t)

	n, err := s.UpsertMeasurements(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	// No Begin/Exec/Commit may have been issued.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertMeasurementsFailureRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `measurements`").
		WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	n, err := s.UpsertMeasurements(context.Background(), []airquality.Measurement{{
		TS:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		City:   "Paris",
		Source: airquality.SourceOpenMeteo,
	}})
	require.Error(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
