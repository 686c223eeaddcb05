package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/space-weather-etl/internal/domain"
	"github.com/couchcryptid/space-weather-etl/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Source returns the raw records of one catalog for a closed date range.
type Source interface {
	FetchCatalog(ctx context.Context, kind domain.Kind, rng domain.DateRange) ([]domain.RawEvent, error)
}

// Exporter delivers a finished report somewhere (file, topic, table).
type Exporter interface {
	Name() string
	Export(ctx context.Context, report domain.Report) error
}

// Settings controls what a Pipeline fetches and how often.
type Settings struct {
	Range domain.DateRange
	// Interval between runs. Zero means Run performs a single run and returns.
	Interval time.Duration
	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline orchestrates the fetch-normalize-correlate-export run.
type Pipeline struct {
	source    Source
	exporters []Exporter
	settings  Settings
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	last      atomic.Pointer[domain.Report]
}

// New creates a Pipeline with the given source, exporters and observability.
func New(src Source, exporters []Exporter, logger *slog.Logger, metrics *observability.Metrics, settings Settings) *Pipeline {
	if settings.Clock == nil {
		settings.Clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		source:    src,
		exporters: exporters,
		settings:  settings,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastReport returns the report of the most recent successful run.
func (p *Pipeline) LastReport() (domain.Report, bool) {
	r := p.last.Load()
	if r == nil {
		return domain.Report{}, false
	}
	return *r, true
}

// Run executes one run, or with a configured interval keeps running until the
// context is cancelled. Failed scheduled runs are retried with exponential
// backoff: start at 200ms, double each retry, cap at 5s.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "range", p.settings.Range.String(), "interval", p.settings.Interval)
	p.metrics.PipelineActive.Set(1)
	defer p.metrics.PipelineActive.Set(0)

	if p.settings.Interval <= 0 {
		_, err := p.RunOnce(ctx)
		return err
	}

	backoff := initialBackoff
	for {
		if _, err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("run failed", "error", err, "retry_in", backoff)
			if !sleepWithContext(ctx, p.settings.Clock, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}

		backoff = initialBackoff
		if !sleepWithContext(ctx, p.settings.Clock, p.settings.Interval) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// RunOnce fetches both catalogs, correlates them and hands the report to
// every exporter in order. Any fetch, normalization or export failure fails
// the run. An empty join is not a failure.
func (p *Pipeline) RunOnce(ctx context.Context) (domain.Report, error) {
	start := p.settings.Clock.Now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	p.metrics.RunsTotal.Inc()

	report, err := p.run(ctx, runID, logger)
	if err != nil {
		p.metrics.RunFailures.Inc()
		return domain.Report{}, err
	}

	p.last.Store(&report)
	p.ready.Store(true)
	p.metrics.RunDuration.Observe(p.settings.Clock.Since(start).Seconds())
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, runID string, logger *slog.Logger) (domain.Report, error) {
	cme, gst, err := p.loadLinks(ctx, logger)
	if err != nil {
		return domain.Report{}, err
	}

	pairs := domain.Correlate(cme, gst)
	report := domain.NewReport(runID, p.settings.Range, pairs)
	p.observe(report, logger)

	for _, e := range p.exporters {
		if err := e.Export(ctx, report); err != nil {
			p.metrics.SinkErrors.WithLabelValues(e.Name()).Inc()
			return domain.Report{}, fmt.Errorf("export %s: %w", e.Name(), err)
		}
		logger.Debug("report exported", "exporter", e.Name())
	}
	return report, nil
}

func (p *Pipeline) observe(report domain.Report, logger *slog.Logger) {
	p.metrics.PairsCorrelated.Add(float64(len(report.Pairs)))

	if report.Empty() {
		logger.Info("no correlated events", "range", report.Range.String())
		return
	}

	for _, pair := range report.Pairs {
		if pair.TimeDiff < 0 {
			p.metrics.NegativeDelays.Inc()
			logger.Warn("geomagnetic storm precedes linked CME",
				"cme_id", pair.CMEID,
				"gst_id", pair.GSTID,
				"time_diff_hours", pair.TimeDiff,
			)
		}
	}

	p.metrics.DelayMeanHours.Set(report.Summary.Mean)
	p.metrics.DelayMedianHours.Set(report.Summary.Median)
	logger.Info("run complete",
		"pairs", report.Summary.Count,
		"mean_hours", report.Summary.Mean,
		"median_hours", report.Summary.Median,
		"negative", report.Summary.Negative,
	)
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
