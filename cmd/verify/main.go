// Command verify checks a correlation export for internal consistency: link
// ids, recomputed delays and the summary statistics. Optional expected
// mean and median are compared at the two decimals the summary prints.
//
// Usage:
//
//	go run ./cmd/verify -csv merged_cme_gst_data.csv -mean 42.60 -median 50.60
package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/couchcryptid/space-weather-etl/internal/adapter/csvexport"
	"github.com/couchcryptid/space-weather-etl/internal/domain"
)

// timeDiffTolerance absorbs float formatting in the CSV. Start times are
// exported at full precision.
const (
	timeDiffTolerance = 1e-6
	summaryTolerance  = 0.005
)

// phase tracks pass/fail for a verification phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// expectation holds optional summary values given on the command line.
type expectation struct {
	mean, median float64
	hasMean      bool
	hasMedian    bool
}

func main() {
	csvPath := flag.String("csv", "merged_cme_gst_data.csv", "path to the correlation CSV export")
	mean := flag.Float64("mean", math.NaN(), "expected mean delay in hours (optional)")
	median := flag.Float64("median", math.NaN(), "expected median delay in hours (optional)")
	flag.Parse()

	want := expectation{
		mean: *mean, median: *median,
		hasMean: !math.IsNaN(*mean), hasMedian: !math.IsNaN(*median),
	}
	os.Exit(run(*csvPath, want))
}

func run(csvPath string, want expectation) int {
	fmt.Println("=== CME/GST Export Verification ===")
	fmt.Println()

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open export: %v\n", err)
		return 1
	}
	pairs, err := csvexport.ReadPairs(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read export: %v\n", err)
		return 1
	}

	phases := []*phase{
		verifyLinks(pairs),
		verifyTimeDiffs(pairs),
		verifySummary(pairs, want),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Pairs: %d\n", len(pairs))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll checks passed.")
		return 0
	}
	fmt.Println("\nVerification FAILED.")
	return 1
}

// ── Phase 1: Links ──
// A pair joins a CME whose linked GST id equals the GST's own id. The GST side
// keeps whichever CME its own link names, so with fan-out CME_ActivityID may
// differ from cmeID; it only has to point at a CME.

func verifyLinks(pairs []domain.CorrelatedPair) *phase {
	p := &phase{name: "Phase 1: Link consistency"}
	linkedBack := map[string]bool{}
	for i, pair := range pairs {
		line := i + 2
		if pair.CMEID == "" || pair.GSTID == "" {
			p.errorf("line %d: missing cmeID or gstID", line)
			continue
		}
		if pair.GSTActivityID != pair.GSTID {
			p.errorf("line %d: CME %s references %q but joined GST is %q", line, pair.CMEID, pair.GSTActivityID, pair.GSTID)
		}
		if !strings.Contains(pair.GSTActivityID, string(domain.KindGST)) {
			p.errorf("line %d: GST_ActivityID %q is not a GST id", line, pair.GSTActivityID)
		}
		if !strings.Contains(pair.CMEActivityID, string(domain.KindCME)) {
			p.errorf("line %d: CME_ActivityID %q is not a CME id", line, pair.CMEActivityID)
		}
		key := pair.CMEID + "|" + pair.GSTID
		linkedBack[key] = linkedBack[key] || pair.CMEActivityID == pair.CMEID
	}

	var oneWay int
	for _, ok := range linkedBack {
		if !ok {
			oneWay++
		}
	}
	if oneWay > 0 {
		fmt.Printf("  Note: %d CME/GST pair(s) linked from the CME side only\n", oneWay)
	}
	return p
}

// ── Phase 2: Delays ──

func verifyTimeDiffs(pairs []domain.CorrelatedPair) *phase {
	p := &phase{name: "Phase 2: Recomputed timeDiff"}
	for i, pair := range pairs {
		want := domain.HoursBetween(pair.CMETime, pair.GSTTime)
		if math.Abs(want-pair.TimeDiff) > timeDiffTolerance {
			p.errorf("line %d (%s -> %s): timeDiff=%v, recomputed %v", i+2, pair.CMEID, pair.GSTID, pair.TimeDiff, want)
		}
	}
	return p
}

// ── Phase 3: Summary ──

func verifySummary(pairs []domain.CorrelatedPair, want expectation) *phase {
	p := &phase{name: "Phase 3: Summary statistics"}

	s, err := domain.Summarize(pairs)
	if errors.Is(err, domain.ErrNoData) {
		fmt.Println("  Note: export has no pairs; mean and median are undefined")
		if want.hasMean || want.hasMedian {
			p.errorf("expected a summary but the export is empty")
		}
		return p
	}

	fmt.Printf("  Mean %.2f h, median %.2f h, %d negative\n", s.Mean, s.Median, s.Negative)
	if want.hasMean && math.Abs(s.Mean-want.mean) > summaryTolerance {
		p.errorf("mean: expected %.2f, got %.2f", want.mean, s.Mean)
	}
	if want.hasMedian && math.Abs(s.Median-want.median) > summaryTolerance {
		p.errorf("median: expected %.2f, got %.2f", want.median, s.Median)
	}
	return p
}
