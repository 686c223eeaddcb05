package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cmeCatalog = `[
	{
		"activityID": "2024-01-01T00:00:00-CME-001",
		"startTime": "2024-01-01T00:00Z",
		"linkedEvents": [
			{"activityID": "2023-12-31T22:10:00-FLR-001"},
			{"activityID": "2024-01-02T06:00:00-GST-001"},
			{"activityID": "2024-01-03T00:00:00-GST-002"}
		]
	},
	{
		"activityID": "2024-01-05T12:00:00-CME-001",
		"startTime": "2024-01-05T12:00Z",
		"linkedEvents": [{"activityID": "2024-01-04T00:00:00-CME-001"}]
	},
	{
		"activityID": "2024-01-06T12:00:00-CME-001",
		"startTime": "2024-01-06T12:00Z",
		"linkedEvents": null
	},
	{
		"startTime": "2024-01-07T12:00Z",
		"linkedEvents": [{"activityID": "2024-01-08T00:00:00-GST-001"}]
	},
	{
		"activityID": "2024-01-09T12:00:00-CME-001",
		"startTime": "2024-01-09T12:00Z",
		"linkedEvents": [{"note": "no id"}]
	}
]`

func TestNormalize_CMEKeepsOnlyGSTLinks(t *testing.T) {
	links, err := Normalize(decodeCatalog(t, cmeCatalog), KindCME)
	require.NoError(t, err)
	require.Len(t, links, 2)

	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, l := range links {
		assert.Equal(t, KindCME, l.Kind)
		assert.Equal(t, "2024-01-01T00:00:00-CME-001", l.SourceID)
		assert.Equal(t, want, l.SourceTime)
		assert.Contains(t, l.ReferencedID, "GST")
	}
	assert.Equal(t, "2024-01-02T06:00:00-GST-001", links[0].ReferencedID)
	assert.Equal(t, "2024-01-03T00:00:00-GST-002", links[1].ReferencedID)
}

func TestNormalize_GSTSingleObjectAndList(t *testing.T) {
	events := decodeCatalog(t, `[
		{"gstID":"2024-01-02T06:00:00-GST-001","startTime":"2024-01-02T06:00Z","linkedEvents":{"activityID":"2024-01-01T00:00:00-CME-001"}},
		{"gstID":"2024-01-10T03:00:00-GST-001","startTime":"2024-01-10T03:00Z","linkedEvents":[
			{"activityID":"2024-01-08T00:00:00-CME-001"},
			{"activityID":"2024-01-09T00:00:00-IPS-001"},
			{"activityID":"2024-01-08T09:00:00-CME-001"}
		]},
		{"gstID":"2024-01-12T03:00:00-GST-001","startTime":"2024-01-12T03:00Z"}
	]`)

	links, err := Normalize(events, KindGST)
	require.NoError(t, err)
	require.Len(t, links, 3)

	assert.Equal(t, "2024-01-02T06:00:00-GST-001", links[0].SourceID)
	assert.Equal(t, "2024-01-01T00:00:00-CME-001", links[0].ReferencedID)
	assert.Equal(t, "2024-01-10T03:00:00-GST-001", links[1].SourceID)
	assert.Equal(t, "2024-01-08T00:00:00-CME-001", links[1].ReferencedID)
	assert.Equal(t, "2024-01-08T09:00:00-CME-001", links[2].ReferencedID)
}

func TestNormalize_CMESingleObjectIsNotAList(t *testing.T) {
	events := decodeCatalog(t, `[
		{"activityID":"2024-01-01T00:00:00-CME-001","startTime":"2024-01-01T00:00Z","linkedEvents":{"activityID":"2024-01-02T06:00:00-GST-001"}}
	]`)

	links, err := Normalize(events, KindCME)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestNormalize_ReferencedIDAlwaysHasOppositeMarker(t *testing.T) {
	for _, kind := range []Kind{KindCME, KindGST} {
		links, err := Normalize(decodeCatalog(t, mixedCatalog(kind)), kind)
		require.NoError(t, err)
		require.NotEmpty(t, links)
		for _, l := range links {
			assert.True(t, strings.Contains(l.ReferencedID, string(kind.Opposite())), "%s link %s", kind, l.ReferencedID)
		}
	}
}

func TestNormalize_MalformedTimestampIsFatal(t *testing.T) {
	events := decodeCatalog(t, `[
		{"activityID":"ok-CME","startTime":"2024-01-01T00:00Z","linkedEvents":[{"activityID":"g-GST-1"}]},
		{"activityID":"bad-CME","startTime":"yesterday","linkedEvents":[{"activityID":"g-GST-2"}]}
	]`)

	links, err := Normalize(events, KindCME)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedTimestamp)
	assert.Contains(t, err.Error(), "bad-CME")
	assert.Nil(t, links)
}

func TestNormalize_MalformedTimestampOnDroppedRowIsIgnored(t *testing.T) {
	events := decodeCatalog(t, `[
		{"activityID":"bad-CME","startTime":"yesterday","linkedEvents":[{"activityID":"f-FLR-1"}]}
	]`)

	links, err := Normalize(events, KindCME)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestNormalize_UnknownKind(t *testing.T) {
	_, err := Normalize(nil, Kind("FLR"))
	require.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"donki minutes", "2024-01-01T00:12Z", time.Date(2024, 1, 1, 0, 12, 0, 0, time.UTC)},
		{"rfc3339", "2024-01-01T00:12:30Z", time.Date(2024, 1, 1, 0, 12, 30, 0, time.UTC)},
		{"rfc3339 offset", "2024-01-01T02:12:30+02:00", time.Date(2024, 1, 1, 0, 12, 30, 0, time.UTC)},
		{"fractional", "2024-01-01T00:12:30.5Z", time.Date(2024, 1, 1, 0, 12, 30, 500_000_000, time.UTC)},
		{"naive seconds", "2024-01-01T00:12:30", time.Date(2024, 1, 1, 0, 12, 30, 0, time.UTC)},
		{"naive minutes", "2024-01-01T00:12", time.Date(2024, 1, 1, 0, 12, 0, 0, time.UTC)},
		{"padded", "  2024-01-01T00:12Z ", time.Date(2024, 1, 1, 0, 12, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	for _, bad := range []string{"", "2024-13-01T00:00Z", "01/02/2024", "2024-01-01"} {
		_, err := ParseTimestamp(bad)
		assert.ErrorIs(t, err, ErrMalformedTimestamp, bad)
	}
}

func mixedCatalog(kind Kind) string {
	if kind == KindGST {
		return `[
			{"gstID":"g1-GST","startTime":"2024-01-02T06:00Z","linkedEvents":[{"activityID":"c1-CME"},{"activityID":"x-IPS"},{"activityID":"g0-GST"}]},
			{"gstID":"g2-GST","startTime":"2024-01-03T06:00Z","linkedEvents":{"activityID":"c2-CME"}}
		]`
	}
	return `[
		{"activityID":"c1-CME","startTime":"2024-01-01T00:00Z","linkedEvents":[{"activityID":"g1-GST"},{"activityID":"c0-CME"},{"activityID":"f-FLR"}]},
		{"activityID":"c2-CME","startTime":"2024-01-01T06:00Z","linkedEvents":[{"activityID":"g2-GST"}]}
	]`
}
