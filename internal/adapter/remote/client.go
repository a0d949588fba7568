// Package remote fetches risk tables over HTTP.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/world-risk-etl/internal/domain"
	"github.com/couchcryptid/world-risk-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// maxBodyBytes bounds the size of a downloaded table.
const maxBodyBytes = 16 << 20

// ErrBodyTooLarge reports a table larger than the download limit. Oversized
// tables are rejected whole, never truncated.
var ErrBodyTooLarge = errors.New("response body too large")

// Client downloads a delimited risk table, retrying transient failures.
type Client struct {
	url        string
	httpClient *http.Client
	retries    int
	retryDelay time.Duration
	maxBody    int64
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a client for url. Each attempt is bounded by timeout and
// attempt n waits n seconds before running.
func NewClient(url string, timeout time.Duration, retries int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retries:    max(retries, 1),
		retryDelay: time.Second,
		maxBody:    maxBodyBytes,
		clock:      clockwork.NewRealClock(),
		metrics:    metrics,
		logger:     logger,
	}
}

// statusError is a non-200 response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("source responded with status %d: %s", e.code, e.body)
}

// Extract downloads the table. 4xx responses other than 429 are not retried.
func (c *Client) Extract(ctx context.Context) (domain.Source, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if attempt > 1 {
			c.metrics.SourceFetches.WithLabelValues("retry").Inc()
			c.logger.Warn("source fetch failed, retrying", "url", c.url, "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return domain.Source{}, ctx.Err()
			case <-c.clock.After(time.Duration(attempt-1) * c.retryDelay):
			}
		}

		body, err := c.doRequest(ctx)
		if err == nil {
			c.metrics.SourceFetches.WithLabelValues("success").Inc()
			return domain.Source{Name: c.url, Body: body, FetchedAt: c.clock.Now().UTC()}, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}

	c.metrics.SourceFetches.WithLabelValues("error").Inc()
	return domain.Source{}, fmt.Errorf("fetch %s: %w", c.url, lastErr)
}

func (c *Client) doRequest(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("source request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &statusError{code: resp.StatusCode, body: string(body)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return "", fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.maxBody)
	}
	return string(body), nil
}

func retryable(err error) bool {
	if errors.Is(err, ErrBodyTooLarge) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return true
}
