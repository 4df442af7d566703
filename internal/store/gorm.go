package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/angeli-sliit/AirSense/internal/airquality"
)

var (
	// ErrNotFound is returned when no row exists for a given key.
	ErrNotFound = errors.New("not found")
)

// measurementUpdateColumns are the volatile fields overwritten on a
// (ts, city) conflict; ts, city and source stay untouched.
var measurementUpdateColumns = []string{"pm25", "pm10", "latitude", "longitude"}

// GormStore is the relational implementation of the measurement store
// and the coordinate cache.
type GormStore struct {
	db *gorm.DB
}

// Open connects using the configured driver ("sqlite" or "mysql") and
// DSN.
func Open(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	switch driver {
	case "sqlite", "":
		return gorm.Open(sqlite.Open(dsn), cfg)
	case "mysql":
		return gorm.Open(mysql.Open(dsn), cfg)
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// NewGormStore creates a store over an open connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates or updates the measurement and coordinate
// tables.
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&airquality.Measurement{}, &airquality.CityCoordinate{})
}

// UpsertMeasurements merges rows in one transaction. On a (ts, city)
// conflict the metric and coordinate columns are overwritten with the
// incoming values. An empty batch returns 0 without opening a
// transaction. A failure aborts the whole batch.
func (s *GormStore) UpsertMeasurements(ctx context.Context, rows []airquality.Measurement) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ts"}, {Name: "city"}},
			DoUpdates: clause.AssignmentColumns(measurementUpdateColumns),
		}).Create(&rows).Error
	})
	if err != nil {
		return 0, fmt.Errorf("upsert measurements: %w", err)
	}

	return len(rows), nil
}

// MeasurementsInWindow returns a city's rows inside the inclusive
// calendar window, ordered by timestamp.
func (s *GormStore) MeasurementsInWindow(ctx context.Context, city string, w airquality.Window) ([]airquality.Measurement, error) {
	var rows []airquality.Measurement
	err := s.db.WithContext(ctx).
		Where("city = ? AND ts >= ? AND ts < ?", city, w.Start, w.End.AddDate(0, 0, 1)).
		Order("ts").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query measurements for %q: %w", city, err)
	}
	return rows, nil
}

// CityCoordinate looks up the cached coordinates for an exact city
// string.
func (s *GormStore) CityCoordinate(ctx context.Context, city string) (airquality.CityCoordinate, error) {
	var coord airquality.CityCoordinate
	err := s.db.WithContext(ctx).Where("city = ?", city).First(&coord).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return airquality.CityCoordinate{}, ErrNotFound
	}
	if err != nil {
		return airquality.CityCoordinate{}, fmt.Errorf("query coordinates for %q: %w", city, err)
	}
	return coord, nil
}

// SaveCityCoordinate persists a resolution. Writes are idempotent by
// city key, so a lost race between two concurrent resolutions is
// harmless.
func (s *GormStore) SaveCityCoordinate(ctx context.Context, coord airquality.CityCoordinate) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "city"}},
		DoNothing: true,
	}).Create(&coord).Error
	if err != nil {
		return fmt.Errorf("save coordinates for %q: %w", coord.City, err)
	}
	return nil
}

// Ping verifies database connectivity for health checks.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
