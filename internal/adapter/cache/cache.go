// Package cache memoizes raw DONKI catalogs outside the correlation core.
package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/space-weather-etl/internal/domain"
	"github.com/couchcryptid/space-weather-etl/internal/observability"
	"github.com/couchcryptid/space-weather-etl/internal/pipeline"
)

// Key identifies one cached catalog.
type Key struct {
	Kind  domain.Kind
	Range domain.DateRange
}

func (k Key) String() string {
	return fmt.Sprintf("%s_%s_%s", k.Kind, k.Range.StartDate(), k.Range.EndDate())
}

// Store persists raw catalogs by key. Get reports ok=false on a miss.
type Store interface {
	Get(ctx context.Context, key Key) ([]domain.RawEvent, bool, error)
	Put(ctx context.Context, key Key, events []domain.RawEvent) error
}

// CachedSource wraps a pipeline.Source with a read-through Store.
// Store failures degrade to a plain fetch; they never fail the run.
type CachedSource struct {
	inner   pipeline.Source
	store   Store
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a source.
func NewCachedSource(inner pipeline.Source, store Store, logger *slog.Logger, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{inner: inner, store: store, logger: logger, metrics: metrics}
}

func (c *CachedSource) FetchCatalog(ctx context.Context, kind domain.Kind, rng domain.DateRange) ([]domain.RawEvent, error) {
	key := Key{Kind: kind, Range: rng}

	events, ok, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		c.metrics.CatalogCache.WithLabelValues(string(kind), "error").Inc()
		c.logger.Warn("catalog cache read failed", "key", key.String(), "error", err)
	case ok:
		c.metrics.CatalogCache.WithLabelValues(string(kind), "hit").Inc()
		c.logger.Debug("catalog cache hit", "key", key.String(), "records", len(events))
		return events, nil
	default:
		c.metrics.CatalogCache.WithLabelValues(string(kind), "miss").Inc()
	}

	events, err = c.inner.FetchCatalog(ctx, kind, rng)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(ctx, key, events); err != nil {
		c.logger.Warn("catalog cache write failed", "key", key.String(), "error", err)
	}
	return events, nil
}

// Tiered checks each store in order and back-fills the faster tiers on a hit
// in a slower one. Put writes every tier.
type Tiered []Store

func (t Tiered) Get(ctx context.Context, key Key) ([]domain.RawEvent, bool, error) {
	for i, s := range t {
		events, ok, err := s.Get(ctx, key)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		for _, faster := range t[:i] {
			_ = faster.Put(ctx, key, events) // backfill is best effort
		}
		return events, true, nil
	}
	return nil, false, nil
}

func (t Tiered) Put(ctx context.Context, key Key, events []domain.RawEvent) error {
	for _, s := range t {
		if err := s.Put(ctx, key, events); err != nil {
			return err
		}
	}
	return nil
}
