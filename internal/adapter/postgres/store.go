// Package postgres persists correlated pairs to PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/space-weather-etl/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS cme_gst_pairs (
    run_id           UUID             NOT NULL,
    generated_at     TIMESTAMPTZ      NOT NULL,
    cme_id           TEXT             NOT NULL,
    cme_start_time   TIMESTAMPTZ      NOT NULL,
    gst_activity_id  TEXT             NOT NULL,
    gst_id           TEXT             NOT NULL,
    gst_start_time   TIMESTAMPTZ      NOT NULL,
    cme_activity_id  TEXT             NOT NULL,
    time_diff_hours  DOUBLE PRECISION NOT NULL
)`

const insertPair = `
INSERT INTO cme_gst_pairs (
    run_id, generated_at, cme_id, cme_start_time, gst_activity_id,
    gst_id, gst_start_time, cme_activity_id, time_diff_hours
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Store writes each report's pairs in one transaction.
// It implements pipeline.Exporter.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Connect opens a pool and makes sure the pairs table exists.
func Connect(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	s := &Store{pool: pool, logger: logger}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the pairs table if it is missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create cme_gst_pairs: %w", err)
	}
	return nil
}

func (s *Store) Name() string { return "postgres" }

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	return nil
}

// Export inserts every pair of the report. Either all rows land or none do.
func (s *Store) Export(ctx context.Context, report domain.Report) error {
	if len(report.Pairs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	batch := buildBatch(report)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert pairs: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("pairs stored", "run_id", report.RunID, "count", batch.Len())
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func buildBatch(report domain.Report) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, p := range report.Pairs {
		batch.Queue(insertPair,
			report.RunID,
			report.GeneratedAt,
			p.CMEID,
			p.CMETime,
			p.GSTActivityID,
			p.GSTID,
			p.GSTTime,
			p.CMEActivityID,
			p.TimeDiff,
		)
	}
	return batch
}
