package donki

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/space-weather-etl/internal/domain"
	"github.com/go-resty/resty/v2"
)

// Client implements pipeline.Source against the NASA DONKI web service.
type Client struct {
	http   *resty.Client
	apiKey string
	logger *slog.Logger
}

// Options configures a Client. The API key is supplied here rather than read
// from a package-level constant.
type Options struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
}

// NewClient creates a DONKI client. 5xx and 429 responses are retried.
func NewClient(opts Options, logger *slog.Logger) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(4 * opts.RetryWait).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, _ error) bool {
			if r == nil {
				return false
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{http: rc, apiKey: opts.APIKey, logger: logger}
}

// FetchCatalog downloads one catalog for an inclusive date range.
func (c *Client) FetchCatalog(ctx context.Context, kind domain.Kind, rng domain.DateRange) ([]domain.RawEvent, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unsupported catalog %q", kind)
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"startDate": rng.StartDate(),
			"endDate":   rng.EndDate(),
			"api_key":   c.apiKey,
		}).
		Get("/" + string(kind))
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", kind, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("donki API error: %s: status %d: %s", kind, resp.StatusCode(), truncate(resp.String(), 200))
	}

	events, err := decodeCatalog(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("decode %s catalog: %w", kind, err)
	}

	c.logger.Info("catalog fetched",
		"kind", kind,
		"range", rng.String(),
		"records", len(events),
		"duration", time.Since(start),
	)
	return events, nil
}

// decodeCatalog accepts DONKI's empty-body and empty-array answers for
// ranges without events.
func decodeCatalog(body []byte) ([]domain.RawEvent, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}
	var events []domain.RawEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
