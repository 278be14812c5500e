// Package edgar talks to the SEC EDGAR archive: it lists the daily company
// index files of a quarter and downloads them under the fair-access limits.
package edgar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/ajitpratap0/edgar-entities/internal/metrics"
)

var (
	// ErrNotFound is returned by Fetch when the archive answers 404.
	ErrNotFound = errors.New("edgar: not found")

	// ErrBodyTooLarge is returned by Fetch when a response exceeds the
	// configured size limit.
	ErrBodyTooLarge = errors.New("edgar: response body too large")
)

const (
	// DefaultBaseURL is the root of the daily index tree.
	DefaultBaseURL = "https://www.sec.gov/Archives/edgar/daily-index/"

	// DefaultRequestsPerSecond stays under the SEC limit of 10 req/s.
	DefaultRequestsPerSecond = 8

	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
	defaultMaxBody    = 64 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL           string
	UserAgent         string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	MaxRetries        int // retries after the first attempt; negative means the default
	Backoff           time.Duration
	MaxBodyBytes      int64 // 0 means 64 MiB
	HTTPClient        *http.Client
}

// Client is a rate-limited EDGAR HTTP client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	userAgent  string
	maxRetries int
	backoff    time.Duration
	maxBody    int64
	limiter    *rate.Limiter
	client     *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewClient creates a client. SEC rejects requests without a descriptive
// User-Agent, so callers should always set one.
func NewClient(opts Options, m *metrics.Metrics, logger *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBody
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		maxBody:    opts.MaxBodyBytes,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		client:     opts.HTTPClient,
		metrics:    m,
		logger:     logger,
	}
}

// Fetch downloads url, retrying rate-limit and server errors with
// exponential backoff.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	body, err := c.fetch(ctx, url)
	switch {
	case err == nil:
		c.metrics.ObserveFetch("ok", time.Since(start))
	case errors.Is(err, ErrNotFound):
		c.metrics.ObserveFetch("not_found", time.Since(start))
	default:
		c.metrics.ObserveFetch("error", time.Since(start))
	}
	return body, err
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff << (attempt - 1)
			var ra *retryAfterError
			if errors.As(lastErr, &ra) && ra.wait > wait {
				wait = ra.wait
			}
			c.logger.Debug("retrying fetch", "url", url, "attempt", attempt, "wait", wait, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		body, retry, err := c.do(ctx, url)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("fetching %s after %d attempts: %w", url, c.maxRetries+1, lastErr)
}

type retryAfterError struct {
	status int
	wait   time.Duration
}

func (e *retryAfterError) Error() string {
	return fmt.Sprintf("edgar returned %d", e.status)
}

// do performs one request and reports whether a failure is worth retrying.
func (c *Client) do(ctx context.Context, url string) ([]byte, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("requesting %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
		if err != nil {
			return nil, true, fmt.Errorf("reading %s: %w", url, err)
		}
		if int64(len(body)) > c.maxBody {
			return nil, false, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, url, c.maxBody)
		}
		return body, false, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, &retryAfterError{status: resp.StatusCode, wait: retryAfter(resp.Header.Get("Retry-After"))}
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, false, fmt.Errorf("edgar returned %d for %s: %s", resp.StatusCode, url, string(snippet))
	}
}

func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
