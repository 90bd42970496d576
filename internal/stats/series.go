package stats

import "time"

// Midnight truncates a timestamp to the start of its day in UTC.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// LatestDay returns the newest date among the selected rows, truncated to
// midnight UTC. rows selects indices into dates; nil selects all. Returns the
// zero time when no row has a usable date.
func LatestDay(dates []time.Time, rows []int) time.Time {
	var max time.Time
	if rows == nil {
		for _, d := range dates {
			if d.After(max) {
				max = d
			}
		}
	} else {
		for _, i := range rows {
			if dates[i].After(max) {
				max = dates[i]
			}
		}
	}
	if max.IsZero() {
		return time.Time{}
	}
	return Midnight(max)
}

// DailyCounts buckets the selected rows into per-day counts over a window of
// days ending at anchor, inclusive. rows selects indices into dates; nil
// selects all. Days without rows stay zero so quiet days weigh into any
// statistics taken over the series. Zero and out-of-window dates are skipped.
func DailyCounts(dates []time.Time, rows []int, anchor time.Time, days int) []float64 {
	if days < 1 {
		return nil
	}
	series := make([]float64, days)
	windowStart := Midnight(anchor).AddDate(0, 0, -(days - 1))
	count := func(d time.Time) {
		if d.IsZero() {
			return
		}
		offset := int(Midnight(d).Sub(windowStart).Hours() / 24)
		if offset < 0 || offset >= days {
			return
		}
		series[offset]++
	}
	if rows == nil {
		for _, d := range dates {
			count(d)
		}
	} else {
		for _, i := range rows {
			count(dates[i])
		}
	}
	return series
}
