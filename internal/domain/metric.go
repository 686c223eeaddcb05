package domain

import (
	"errors"
	"slices"
	"time"
)

// ErrNoData is returned by Summarize when there are no pairs to aggregate.
var ErrNoData = errors.New("no correlated events")

// Summary aggregates TimeDiff over a set of correlated pairs.
type Summary struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean_hours"`
	Median   float64 `json:"median_hours"`
	Negative int     `json:"negative"` // pairs where the GST starts before its CME
}

// HoursBetween returns the signed number of hours from `from` to `to`.
func HoursBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours()
}

// Summarize computes the mean and median TimeDiff. All pairs count equally;
// negative delays are neither clamped nor dropped.
func Summarize(pairs []CorrelatedPair) (Summary, error) {
	if len(pairs) == 0 {
		return Summary{}, ErrNoData
	}

	diffs := make([]float64, len(pairs))
	var sum float64
	var negative int
	for i, p := range pairs {
		diffs[i] = p.TimeDiff
		sum += p.TimeDiff
		if p.TimeDiff < 0 {
			negative++
		}
	}
	slices.Sort(diffs)

	return Summary{
		Count:    len(pairs),
		Mean:     sum / float64(len(pairs)),
		Median:   median(diffs),
		Negative: negative,
	}, nil
}

// median expects sorted, non-empty input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
