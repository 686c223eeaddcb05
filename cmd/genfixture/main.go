// Command genfixture captures DONKI CME and GST catalogs for a date range as
// JSON test fixtures and prints the summary the correlation core computes for
// them, so assertions can be written against real pipeline behavior.
//
// Usage:
//
//	DONKI_API_KEY=... go run ./cmd/genfixture \
//	  -start 2024-05-01 -end 2024-05-31 \
//	  -out-dir internal/pipeline/testdata
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/space-weather-etl/internal/adapter/donki"
	"github.com/couchcryptid/space-weather-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	start := flag.String("start", "", "first day to fetch (YYYY-MM-DD)")
	end := flag.String("end", "", "last day to fetch (YYYY-MM-DD)")
	outDir := flag.String("out-dir", "", "directory for cme.json and gst.json")
	flag.Parse()

	if *start == "" || *end == "" || *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -start, -end, -out-dir")
	}

	rng, err := domain.ParseDateRange(*start, *end)
	if err != nil {
		return err
	}

	client := donki.NewClient(donki.Options{
		BaseURL:   sharedcfg.EnvOrDefault("DONKI_BASE_URL", "https://api.nasa.gov/DONKI"),
		APIKey:    sharedcfg.EnvOrDefault("DONKI_API_KEY", "DEMO_KEY"),
		Timeout:   60 * time.Second,
		Retries:   3,
		RetryWait: 2 * time.Second,
	}, slog.Default())

	ctx := context.Background()
	links := map[domain.Kind][]domain.NormalizedLink{}
	for _, kind := range []domain.Kind{domain.KindCME, domain.KindGST} {
		events, err := client.FetchCatalog(ctx, kind, rng)
		if err != nil {
			return err
		}
		path := filepath.Join(*outDir, strings.ToLower(string(kind))+".json")
		if err := writeJSON(path, events); err != nil {
			return err
		}
		fmt.Printf("Wrote %d %s records to %s\n", len(events), kind, path)

		links[kind], err = domain.Normalize(events, kind)
		if err != nil {
			return err
		}
	}

	pairs := domain.Correlate(links[domain.KindCME], links[domain.KindGST])
	report := domain.NewReport("fixture", rng, pairs)
	fmt.Printf("Pairs: %d\n", len(pairs))
	if report.Summary != nil {
		fmt.Printf("Negative delays: %d\n", report.Summary.Negative)
	}
	for _, line := range report.SummaryLines() {
		fmt.Println(line)
	}
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644) //nolint:gosec // fixture files are meant to be readable
}
