package airquality

import (
	"fmt"
	"time"
)

// upstreamTimeLayout is the wall-clock format the provider returns,
// local to the queried location. Seconds are not present upstream and
// end up forced to :00 by the parse.
const upstreamTimeLayout = "2006-01-02T15:04"

// FlattenSeries converts the provider's column-oriented payload into
// one Measurement per timestamp. A metric array that is entirely
// absent yields a nil value on every row rather than a zero. Partial
// payloads are an expected case, not an error. An empty time array
// produces an empty slice and no error.
func FlattenSeries(city string, lat, lon float64, raw *RawSeries) ([]Measurement, error) {
	times := raw.Hourly.Time
	rows := make([]Measurement, 0, len(times))

	for i, s := range times {
		ts, err := time.ParseInLocation(upstreamTimeLayout, s, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse hourly timestamp %q: %w", s, err)
		}

		m := Measurement{
			TS:        ts,
			City:      city,
			Latitude:  lat,
			Longitude: lon,
			Source:    SourceOpenMeteo,
		}
		if raw.Hourly.PM25 != nil && i < len(raw.Hourly.PM25) {
			m.PM25 = raw.Hourly.PM25[i]
		}
		if raw.Hourly.PM10 != nil && i < len(raw.Hourly.PM10) {
			m.PM10 = raw.Hourly.PM10[i]
		}
		rows = append(rows, m)
	}

	return rows, nil
}
