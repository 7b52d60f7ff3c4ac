package domain

import "slices"

// Correlate returns the readings belonging to id, sorted ascending by
// timestamp. Readings with equal timestamps keep their relative input order.
// The result is never nil; an empty id or no match yields an empty series.
func Correlate(readings []Reading, id StationID) []Reading {
	series := make([]Reading, 0)
	if id == "" {
		return series
	}
	for _, r := range readings {
		if r.StationID == id {
			series = append(series, r)
		}
	}
	slices.SortStableFunc(series, func(a, b Reading) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return series
}
