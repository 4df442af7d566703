package airquality

import (
	"time"
)

// SourceOpenMeteo is the provenance tag stamped on every row this
// pipeline writes.
const SourceOpenMeteo = "open-meteo"

// Measurement is one hourly air-quality reading for a city.
// The pair (ts, city) is unique; re-ingesting an overlapping window
// updates the metric and coordinate columns in place.
type Measurement struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	TS        time.Time `gorm:"column:ts;uniqueIndex:uq_measurements_ts_city;not null" json:"ts"`
	City      string    `gorm:"column:city;uniqueIndex:uq_measurements_ts_city;size:128;not null" json:"city"`
	Latitude  float64   `gorm:"column:latitude" json:"latitude"`
	Longitude float64   `gorm:"column:longitude" json:"longitude"`

	// PM25/PM10 are nil when the upstream did not report the metric
	// for that hour. Nil is "absent", never zero.
	PM25 *float64 `gorm:"column:pm25" json:"pm25"`
	PM10 *float64 `gorm:"column:pm10" json:"pm10"`

	Source string `gorm:"column:source;size:32" json:"source"`
}

// TableName specifies the table name for Measurement.
func (Measurement) TableName() string {
	return "measurements"
}

// CityCoordinate caches a resolved city name so repeated ingestions
// skip the external geocoding lookup. City strings are exact keys;
// no case or whitespace normalization is applied.
type CityCoordinate struct {
	City      string  `gorm:"column:city;primaryKey;size:128" json:"city"`
	Latitude  float64 `gorm:"column:latitude" json:"latitude"`
	Longitude float64 `gorm:"column:longitude" json:"longitude"`
}

// TableName specifies the table name for CityCoordinate.
func (CityCoordinate) TableName() string {
	return "city_coordinates"
}

// RawSeries is the upstream provider's hourly payload: a time array
// plus optional metric arrays aligned by index. A missing metric key
// decodes to a nil slice; a null element decodes to a nil pointer.
type RawSeries struct {
	Hourly HourlySeries `json:"hourly"`
}

// HourlySeries holds the index-aligned hourly arrays.
type HourlySeries struct {
	Time []string   `json:"time"`
	PM25 []*float64 `json:"pm2_5"`
	PM10 []*float64 `json:"pm10"`
}
