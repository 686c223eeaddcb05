package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/space-weather-etl/internal/domain"
	"golang.org/x/sync/errgroup"
)

// loadLinks fetches and normalizes the CME and GST catalogs concurrently.
// The two halves share no state, so the only synchronization is the join
// at g.Wait.
func (p *Pipeline) loadLinks(ctx context.Context, logger *slog.Logger) (cme, gst []domain.NormalizedLink, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		cme, err = p.loadCatalog(gctx, domain.KindCME, logger)
		return err
	})
	g.Go(func() error {
		var err error
		gst, err = p.loadCatalog(gctx, domain.KindGST, logger)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return cme, gst, nil
}

func (p *Pipeline) loadCatalog(ctx context.Context, kind domain.Kind, logger *slog.Logger) ([]domain.NormalizedLink, error) {
	raw, err := p.source.FetchCatalog(ctx, kind, p.settings.Range)
	if err != nil {
		return nil, fmt.Errorf("fetch %s catalog: %w", kind, err)
	}
	p.metrics.RecordsFetched.WithLabelValues(string(kind)).Add(float64(len(raw)))

	links, err := domain.Normalize(raw, kind)
	if err != nil {
		return nil, err
	}
	p.metrics.LinksNormalized.WithLabelValues(string(kind)).Add(float64(len(links)))

	logger.Debug("catalog normalized", "kind", kind, "records", len(raw), "links", len(links))
	return links, nil
}
