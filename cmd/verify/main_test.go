package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/space-weather-etl/internal/adapter/csvexport"
	"github.com/couchcryptid/space-weather-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pair(cme, gst string, cmeTime, gstTime time.Time) domain.CorrelatedPair {
	return domain.CorrelatedPair{
		CMEID: cme, CMETime: cmeTime, GSTActivityID: gst,
		GSTID: gst, GSTTime: gstTime, CMEActivityID: cme,
		TimeDiff: domain.HoursBetween(cmeTime, gstTime),
	}
}

func goodPairs() []domain.CorrelatedPair {
	base := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	return []domain.CorrelatedPair{
		pair("CME-001", "GST-001", base, base.Add(30*time.Hour)),
		pair("CME-002", "GST-001", base.Add(6*time.Hour), base.Add(30*time.Hour)),
		pair("CME-003", "GST-002", base.Add(48*time.Hour), base.Add(98*time.Hour)),
	}
}

func TestVerifyLinks(t *testing.T) {
	assert.True(t, verifyLinks(goodPairs()).passed())

	broken := goodPairs()
	broken[1].CMEActivityID = "2024-05-08T04:37:00-FLR-001"
	p := verifyLinks(broken)
	require.Len(t, p.errors, 1)
	assert.Contains(t, p.errors[0], "line 3")

	broken = goodPairs()
	broken[2].GSTActivityID = "GST-009"
	assert.False(t, verifyLinks(broken).passed())
}

// fixturePairs correlates the pipeline fixtures, in which one GST links two
// CMEs and every pair on that GST fans out.
func fixturePairs(t *testing.T) []domain.CorrelatedPair {
	t.Helper()
	links := map[domain.Kind][]domain.NormalizedLink{}
	for kind, name := range map[domain.Kind]string{domain.KindCME: "cme.json", domain.KindGST: "gst.json"} {
		data, err := os.ReadFile(filepath.Join("..", "..", "internal", "pipeline", "testdata", name))
		require.NoError(t, err)
		var events []domain.RawEvent
		require.NoError(t, json.Unmarshal(data, &events))
		links[kind], err = domain.Normalize(events, kind)
		require.NoError(t, err)
	}
	return domain.Correlate(links[domain.KindCME], links[domain.KindGST])
}

func TestVerifyLinks_FanOut(t *testing.T) {
	pairs := fixturePairs(t)
	require.Len(t, pairs, 5)

	var crossed int
	for _, p := range pairs {
		if p.CMEActivityID != p.CMEID {
			crossed++
		}
	}
	require.Equal(t, 2, crossed, "fixture should contain fan-out rows")

	assert.True(t, verifyLinks(pairs).passed())
}

func TestRun_PipelineExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.csv")
	require.NoError(t, csvexport.NewExporter(path).Export(context.Background(), domain.Report{Pairs: fixturePairs(t)}))

	assert.Equal(t, 0, run(path, expectation{mean: 42.6, hasMean: true, median: 50.6, hasMedian: true}))
}

func TestVerifyTimeDiffs_SubSecondTimes(t *testing.T) {
	base := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	pairs := []domain.CorrelatedPair{
		pair("CME-001", "GST-001", base.Add(250*time.Millisecond), base.Add(30*time.Hour+900*time.Millisecond)),
	}

	var buf bytes.Buffer
	require.NoError(t, csvexport.WritePairs(&buf, pairs))
	read, err := csvexport.ReadPairs(&buf)
	require.NoError(t, err)

	assert.True(t, verifyTimeDiffs(read).passed())
}

func TestVerifyTimeDiffs(t *testing.T) {
	assert.True(t, verifyTimeDiffs(goodPairs()).passed())

	broken := goodPairs()
	broken[0].TimeDiff = 31
	assert.False(t, verifyTimeDiffs(broken).passed())
}

func TestVerifySummary(t *testing.T) {
	// diffs 30, 24, 50: mean 34.67, median 30
	assert.True(t, verifySummary(goodPairs(), expectation{mean: 34.67, hasMean: true, median: 30, hasMedian: true}).passed())
	assert.False(t, verifySummary(goodPairs(), expectation{mean: 35, hasMean: true}).passed())

	assert.True(t, verifySummary(nil, expectation{}).passed())
	assert.False(t, verifySummary(nil, expectation{mean: 1, hasMean: true}).passed())
}

func TestRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, csvexport.WritePairs(f, goodPairs()))
	require.NoError(t, f.Close())

	assert.Equal(t, 0, run(path, expectation{}))
	assert.Equal(t, 1, run(path, expectation{median: 1, hasMedian: true}))
	assert.Equal(t, 1, run(filepath.Join(t.TempDir(), "missing.csv"), expectation{}))
}
