package domain

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"
)

// ErrMalformedTimestamp is returned when a record's start time cannot be parsed.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// timestampLayouts are tried in order. DONKI itself emits the first one.
var timestampLayouts = []string{
	"2006-01-02T15:04Z07:00",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Normalize turns a raw catalog of the given kind into the links that point
// at the opposite catalog.
//
// Records without a link field, identifier or start time are skipped.
// Links without an activityID, or whose activityID lacks the opposite
// catalog's marker, are dropped. A start time that is present but cannot be
// parsed fails the whole call; no partial result is returned.
func Normalize(events []RawEvent, kind Kind) ([]NormalizedLink, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("normalize: unknown catalog kind %q", kind)
	}
	fields := kind.Fields()
	marker := string(kind.Opposite())

	var links []NormalizedLink
	for row := range ExtractLinks(linkedRecords(events, kind), fields) {
		if row.ReferencedID == nil || !strings.Contains(*row.ReferencedID, marker) {
			continue
		}
		start, err := ParseTimestamp(row.SourceTime)
		if err != nil {
			return nil, fmt.Errorf("normalize %s %s: %w", kind, row.SourceID, err)
		}
		links = append(links, NormalizedLink{
			Kind:         kind,
			SourceID:     row.SourceID,
			SourceTime:   start,
			ReferencedID: *row.ReferencedID,
		})
	}
	return links, nil
}

// linkedRecords yields the records that can contribute links. GST records
// may hold a single linked-event object, which is read as a one-element list.
func linkedRecords(events []RawEvent, kind Kind) iter.Seq[RawEvent] {
	fields := kind.Fields()
	return func(yield func(RawEvent) bool) {
		for _, ev := range events {
			if !ev.present(fields.Links) {
				continue
			}
			if _, ok := ev.String(fields.ID); !ok {
				continue
			}
			if _, ok := ev.String(fields.Time); !ok {
				continue
			}
			if kind == KindGST {
				ev = ev.withObjectAsList(fields.Links)
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// ParseTimestamp parses a DONKI start time into a UTC instant. Values without
// a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
}
