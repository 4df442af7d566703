package airquality

import "sort"

// CitySummary holds per-city statistics over a comparison window.
// Averages are nil when the city has no rows in the window; a city
// with no data still appears in the result.
type CitySummary struct {
	City      string   `json:"city"`
	Count     int      `json:"count"`
	AvgPM25   *float64 `json:"avgPm25"`
	AvgPM10   *float64 `json:"avgPm10"`
	MaxPM25   *float64 `json:"maxPm25"`
	MaxPM10   *float64 `json:"maxPm10"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
}

// Comparison is the cross-city view derived from the summaries.
type Comparison struct {
	// Ranking lists cities from cleanest to most polluted by average
	// PM2.5. Cities without data rank last, in input order.
	Ranking      []string `json:"ranking"`
	Cleanest     string   `json:"cleanest,omitempty"`
	MostPolluted string   `json:"mostPolluted,omitempty"`
	// PM25Spread is the PM2.5 average gap between the most polluted
	// and the cleanest city; nil when fewer than two cities have data.
	PM25Spread *float64 `json:"pm25Spread,omitempty"`
}

// ComparisonResult is the payload of a multi-city comparison.
type ComparisonResult struct {
	Window     WindowDates   `json:"window"`
	Summaries  []CitySummary `json:"summaries"`
	Comparison Comparison    `json:"comparison"`
}

// WindowDates is the serialized form of the sliding window.
type WindowDates struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BuildComparison computes one summary per requested city from its
// rows and derives the cross-city comparison. Every requested city
// appears exactly once, in input order, even with zero rows.
func BuildComparison(cities []string, rowsByCity map[string][]Measurement) ([]CitySummary, Comparison) {
	summaries := make([]CitySummary, 0, len(cities))
	for _, city := range cities {
		summaries = append(summaries, summarizeCity(city, rowsByCity[city]))
	}

	// Rank cities that have a PM2.5 average; the rest keep input order.
	ranked := make([]CitySummary, 0, len(summaries))
	unranked := make([]string, 0)
	for _, s := range summaries {
		if s.AvgPM25 != nil {
			ranked = append(ranked, s)
		} else {
			unranked = append(unranked, s.City)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].AvgPM25 < *ranked[j].AvgPM25
	})

	cmp := Comparison{Ranking: make([]string, 0, len(summaries))}
	for _, s := range ranked {
		cmp.Ranking = append(cmp.Ranking, s.City)
	}
	cmp.Ranking = append(cmp.Ranking, unranked...)

	if len(ranked) > 0 {
		cmp.Cleanest = ranked[0].City
		cmp.MostPolluted = ranked[len(ranked)-1].City
	}
	if len(ranked) > 1 {
		spread := *ranked[len(ranked)-1].AvgPM25 - *ranked[0].AvgPM25
		cmp.PM25Spread = &spread
	}

	return summaries, cmp
}

func summarizeCity(city string, rows []Measurement) CitySummary {
	s := CitySummary{City: city, Count: len(rows)}

	var sum25, sum10, max25, max10 float64
	var n25, n10 int
	for _, r := range rows {
		if r.PM25 != nil {
			sum25 += *r.PM25
			if n25 == 0 || *r.PM25 > max25 {
				max25 = *r.PM25
			}
			n25++
		}
		if r.PM10 != nil {
			sum10 += *r.PM10
			if n10 == 0 || *r.PM10 > max10 {
				max10 = *r.PM10
			}
			n10++
		}
	}

	if n25 > 0 {
		avg := sum25 / float64(n25)
		s.AvgPM25, s.MaxPM25 = &avg, &max25
	}
	if n10 > 0 {
		avg := sum10 / float64(n10)
		s.AvgPM10, s.MaxPM10 = &avg, &max10
	}
	if len(rows) > 0 {
		s.Latitude = rows[len(rows)-1].Latitude
		s.Longitude = rows[len(rows)-1].Longitude
	}
	return s
}
