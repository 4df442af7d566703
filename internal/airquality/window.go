package airquality

import "time"

// Window is an inclusive calendar date range [Start, End] computed
// relative to "now" at call time. It is never persisted; two requests
// on different days for the same day-count produce different windows.
type Window struct {
	Start time.Time
	End   time.Time
}

// SlidingWindow returns the window [today - days, today] using the
// UTC calendar date of now.
func SlidingWindow(days int, now time.Time) Window {
	end := now.UTC().Truncate(24 * time.Hour)
	return Window{
		Start: end.AddDate(0, 0, -days),
		End:   end,
	}
}

// StartDate returns the ISO calendar date of the window start.
func (w Window) StartDate() string {
	return w.Start.Format("2006-01-02")
}

// EndDate returns the ISO calendar date of the window end.
func (w Window) EndDate() string {
	return w.End.Format("2006-01-02")
}

// Contains reports whether ts falls inside the window. The end date
// is inclusive, so any hour of the end day matches.
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && ts.Before(w.End.AddDate(0, 0, 1))
}
