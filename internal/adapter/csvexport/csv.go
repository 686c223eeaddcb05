// Package csvexport writes correlated pairs to a CSV file and reads them back.
package csvexport

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/space-weather-etl/internal/domain"
)

// Header lists the output columns in file order.
var Header = []string{
	"cmeID",
	"startTime_CME",
	"GST_ActivityID",
	"gstID",
	"startTime_GST",
	"CME_ActivityID",
	"timeDiff",
}

// Exporter writes each report to a single CSV file, replacing the previous one.
// It implements pipeline.Exporter.
type Exporter struct {
	path string
}

// NewExporter creates an exporter that writes to path.
func NewExporter(path string) *Exporter {
	return &Exporter{path: path}
}

func (e *Exporter) Name() string { return "csv" }

// Export writes the header and one row per pair. An empty report still
// produces a header-only file.
func (e *Exporter) Export(_ context.Context, report domain.Report) error {
	dir := filepath.Dir(e.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(e.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp export: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if err := WritePairs(tmp, report.Pairs); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	return os.Rename(tmp.Name(), e.path)
}

// WritePairs encodes pairs as CSV with a header row.
func WritePairs(w io.Writer, pairs []domain.CorrelatedPair) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range pairs {
		if err := cw.Write(encodeRow(pairs[i])); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func encodeRow(p domain.CorrelatedPair) []string {
	return []string{
		p.CMEID,
		p.CMETime.UTC().Format(time.RFC3339Nano),
		p.GSTActivityID,
		p.GSTID,
		p.GSTTime.UTC().Format(time.RFC3339Nano),
		p.CMEActivityID,
		strconv.FormatFloat(p.TimeDiff, 'f', -1, 64),
	}
}

// ReadPairs decodes a file written by WritePairs. The header must match
// exactly.
func ReadPairs(r io.Reader) ([]domain.CorrelatedPair, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range Header {
		if header[i] != col {
			return nil, fmt.Errorf("column %d: expected %q, got %q", i+1, col, header[i])
		}
	}

	var pairs []domain.CorrelatedPair
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		p, err := decodeRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

func decodeRow(rec []string) (domain.CorrelatedPair, error) {
	cmeTime, err := time.Parse(time.RFC3339, rec[1])
	if err != nil {
		return domain.CorrelatedPair{}, fmt.Errorf("startTime_CME: %w", err)
	}
	gstTime, err := time.Parse(time.RFC3339, rec[4])
	if err != nil {
		return domain.CorrelatedPair{}, fmt.Errorf("startTime_GST: %w", err)
	}
	diff, err := strconv.ParseFloat(rec[6], 64)
	if err != nil {
		return domain.CorrelatedPair{}, fmt.Errorf("timeDiff: %w", err)
	}
	return domain.CorrelatedPair{
		CMEID:         rec[0],
		CMETime:       cmeTime.UTC(),
		GSTActivityID: rec[2],
		GSTID:         rec[3],
		GSTTime:       gstTime.UTC(),
		CMEActivityID: rec[5],
		TimeDiff:      diff,
	}, nil
}
