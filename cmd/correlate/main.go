// Command correlate fetches DONKI CME and GST catalogs, joins the events that
// reference each other and reports the mean and median CME-to-GST delay.
//
// With RUN_INTERVAL unset it runs once, prints the summary and exits. With an
// interval it keeps running and serves /healthz, /readyz, /metrics and /summary.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/space-weather-etl/internal/adapter/cache"
	"github.com/couchcryptid/space-weather-etl/internal/adapter/csvexport"
	"github.com/couchcryptid/space-weather-etl/internal/adapter/donki"
	"github.com/couchcryptid/space-weather-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/space-weather-etl/internal/adapter/kafka"
	"github.com/couchcryptid/space-weather-etl/internal/adapter/postgres"
	"github.com/couchcryptid/space-weather-etl/internal/config"
	"github.com/couchcryptid/space-weather-etl/internal/observability"
	"github.com/couchcryptid/space-weather-etl/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var source pipeline.Source = donki.NewClient(donki.Options{
		BaseURL:   cfg.DonkiBaseURL,
		APIKey:    cfg.DonkiAPIKey,
		Timeout:   cfg.DonkiTimeout,
		Retries:   cfg.DonkiRetries,
		RetryWait: cfg.DonkiRetryWait,
	}, logger)

	// Catalog cache (feature-flagged via CACHE_ENABLED).
	if cfg.CacheEnabled {
		disk, err := cache.NewFileStore(cfg.CacheDir)
		if err != nil {
			logger.Error("failed to open catalog cache", "error", err)
			return 1
		}
		store := cache.Tiered{cache.NewMemoryStore(cfg.CacheMemoryEntries), disk}
		source = cache.NewCachedSource(source, store, logger, metrics)
		logger.Info("catalog cache enabled", "dir", cfg.CacheDir, "memory_entries", cfg.CacheMemoryEntries)
	} else {
		logger.Info("catalog cache disabled")
	}

	exporters := []pipeline.Exporter{csvexport.NewExporter(cfg.ExportPath)}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
		exporters = append(exporters, writer)
		logger.Info("kafka export enabled", "topic", cfg.KafkaSinkTopic)
	}

	var store *postgres.Store
	if cfg.DatabaseURL != "" {
		store, err = postgres.Connect(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			return 1
		}
		exporters = append(exporters, store)
		logger.Info("postgres export enabled")
	}

	p := pipeline.New(source, exporters, logger, metrics, pipeline.Settings{
		Range:    cfg.Range,
		Interval: cfg.RunInterval,
	})

	code := 0
	if cfg.RunInterval > 0 {
		var status httpadapter.Status = p
		if store != nil {
			status = httpadapter.WithDependencies(p, store)
		}
		serve(ctx, cfg, p, status, logger)
	} else {
		code = runOnce(ctx, p, logger)
	}

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if store != nil {
		store.Close()
	}
	return code
}

func runOnce(ctx context.Context, p *pipeline.Pipeline, logger *slog.Logger) int {
	report, err := p.RunOnce(ctx)
	if err != nil {
		logger.Error("run failed", "error", err)
		return 1
	}
	for _, line := range report.SummaryLines() {
		fmt.Println(line)
	}
	return 0
}

func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, status httpadapter.Status, logger *slog.Logger) {
	srv := httpadapter.NewServer(cfg.HTTPAddr, status, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start scheduled pipeline.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}

	logger.Info("shutdown complete")
}
