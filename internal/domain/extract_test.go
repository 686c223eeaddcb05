package domain

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCMEID = "2024-01-01T00:00:00-CME-001"
	testGSTID = "2024-01-02T06:00:00-GST-001"
)

func decodeCatalog(t *testing.T, data string) []RawEvent {
	t.Helper()
	var events []RawEvent
	require.NoError(t, json.Unmarshal([]byte(data), &events))
	return events
}

func collectRows(events []RawEvent, fields FieldSet) []LinkRow {
	return slices.Collect(ExtractLinks(slices.Values(events), fields))
}

func TestExtractLinks_NoListYieldsNothing(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"absent", `[{"activityID":"a","startTime":"2024-01-01T00:00Z"}]`},
		{"null", `[{"activityID":"a","startTime":"2024-01-01T00:00Z","linkedEvents":null}]`},
		{"object", `[{"activityID":"a","startTime":"2024-01-01T00:00Z","linkedEvents":{"activityID":"x-GST-001"}}]`},
		{"string", `[{"activityID":"a","startTime":"2024-01-01T00:00Z","linkedEvents":"x-GST-001"}]`},
		{"number", `[{"activityID":"a","startTime":"2024-01-01T00:00Z","linkedEvents":3}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := collectRows(decodeCatalog(t, tt.data), CMEFields)
			assert.Empty(t, rows)
		})
	}
}

func TestExtractLinks_OneRowPerEntryInOrder(t *testing.T) {
	events := decodeCatalog(t, `[{
		"activityID": "`+testCMEID+`",
		"startTime": "2024-01-01T00:00Z",
		"linkedEvents": [
			{"activityID": "2024-01-01T01:00:00-FLR-001"},
			{"activityID": "`+testGSTID+`"},
			{"other": "field"},
			"not-an-object",
			null
		]
	}]`)

	rows := collectRows(events, CMEFields)
	require.Len(t, rows, 5)

	for _, r := range rows {
		assert.Equal(t, testCMEID, r.SourceID)
		assert.Equal(t, "2024-01-01T00:00Z", r.SourceTime)
	}
	require.NotNil(t, rows[0].ReferencedID)
	assert.Equal(t, "2024-01-01T01:00:00-FLR-001", *rows[0].ReferencedID)
	require.NotNil(t, rows[1].ReferencedID)
	assert.Equal(t, testGSTID, *rows[1].ReferencedID)
	assert.Nil(t, rows[2].ReferencedID)
	assert.Nil(t, rows[3].ReferencedID)
	assert.Nil(t, rows[4].ReferencedID)
}

func TestExtractLinks_MultipleRecords(t *testing.T) {
	events := decodeCatalog(t, `[
		{"gstID":"g1","startTime":"2024-01-02T06:00Z","linkedEvents":[{"activityID":"c1-CME"},{"activityID":"c2-CME"}]},
		{"gstID":"g2","startTime":"2024-01-03T06:00Z","linkedEvents":null},
		{"gstID":"g3","startTime":"2024-01-04T06:00Z","linkedEvents":[{"activityID":"c3-CME"}]}
	]`)

	rows := collectRows(events, GSTFields)
	require.Len(t, rows, 3)
	assert.Equal(t, "g1", rows[0].SourceID)
	assert.Equal(t, "g1", rows[1].SourceID)
	assert.Equal(t, "g3", rows[2].SourceID)
	assert.Equal(t, "2024-01-04T06:00Z", rows[2].SourceTime)
}

func TestExtractLinks_StopsWhenConsumerStops(t *testing.T) {
	events := decodeCatalog(t, `[
		{"activityID":"a","startTime":"2024-01-01T00:00Z","linkedEvents":[{"activityID":"1"},{"activityID":"2"},{"activityID":"3"}]}
	]`)

	var seen int
	for range ExtractLinks(slices.Values(events), CMEFields) {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestExtractLinks_DoesNotMutateInput(t *testing.T) {
	events := decodeCatalog(t, `[{"gstID":"g1","startTime":"2024-01-02T06:00Z","linkedEvents":{"activityID":"c1-CME"}}]`)
	before := string(events[0]["linkedEvents"])

	_, err := Normalize(events, KindGST)
	require.NoError(t, err)

	assert.Equal(t, before, string(events[0]["linkedEvents"]))
}
