package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDateRange is returned for unparseable or inverted date ranges.
var ErrInvalidDateRange = errors.New("invalid date range")

const dateLayout = "2006-01-02"

// DateRange is a closed range of whole UTC days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange parses two YYYY-MM-DD dates. Both ends are inclusive.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: start date %q", ErrInvalidDateRange, start)
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: end date %q", ErrInvalidDateRange, end)
	}
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("%w: %s is after %s", ErrInvalidDateRange, start, end)
	}
	return DateRange{Start: s, End: e}, nil
}

func (r DateRange) StartDate() string { return r.Start.Format(dateLayout) }
func (r DateRange) EndDate() string   { return r.End.Format(dateLayout) }

func (r DateRange) String() string {
	return r.StartDate() + ".." + r.EndDate()
}

// Report is the outcome of one correlation run. Summary is nil when the join
// produced no pairs.
type Report struct {
	RunID       string           `json:"run_id"`
	Range       DateRange        `json:"-"`
	GeneratedAt time.Time        `json:"generated_at"`
	Pairs       []CorrelatedPair `json:"pairs"`
	Summary     *Summary         `json:"summary,omitempty"`
}

// NewReport summarizes pairs and stamps the report with the current time.
func NewReport(runID string, rng DateRange, pairs []CorrelatedPair) Report {
	r := Report{
		RunID:       runID,
		Range:       rng,
		GeneratedAt: clock.Now().UTC(),
		Pairs:       pairs,
	}
	if s, err := Summarize(pairs); err == nil {
		r.Summary = &s
	}
	return r
}

// Empty reports whether the run found no correlated pairs.
func (r Report) Empty() bool {
	return r.Summary == nil
}

// SummaryLines renders the human-readable result with two decimals.
func (r Report) SummaryLines() []string {
	if r.Empty() {
		return []string{fmt.Sprintf("No correlated CME/GST events between %s and %s.", r.Range.StartDate(), r.Range.EndDate())}
	}
	return []string{
		fmt.Sprintf("The average time from CME to GST is %.2f hours.", r.Summary.Mean),
		fmt.Sprintf("The median time from CME to GST is %.2f hours.", r.Summary.Median),
	}
}
