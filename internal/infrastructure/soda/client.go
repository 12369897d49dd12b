package soda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gradecard/backend/internal/domain"
	"github.com/gradecard/backend/internal/logger"
	"golang.org/x/time/rate"
)

// Options configures a Client
type Options struct {
	BaseURL           string
	Dataset           string
	AppToken          string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
}

// Client queries a Socrata (SODA) dataset of restaurant inspections
type Client struct {
	httpClient  *http.Client
	baseURL     string
	dataset     string
	appToken    string
	maxRetries  int
	rateLimiter *rate.Limiter
	debug       bool
	log         *logger.Logger
}

// NewClient creates a new SODA client
func NewClient(opts Options, log *logger.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retries := opts.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	// Unauthenticated SODA callers are throttled per IP; stay well under it.
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	if log == nil {
		log = logger.Discard()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		dataset:     opts.Dataset,
		appToken:    opts.AppToken,
		maxRetries:  retries,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 4),
		log:         log.With("component", "soda"),
	}
}

// SetDebug toggles logging of every request URL and response size
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "GradeCard/1.0")
	req.Header.Set("Accept", "application/json")
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}

	return resp, nil
}

// FindMostRecent runs query and returns the first row, or nil when there are no rows
func (c *Client) FindMostRecent(ctx context.Context, query domain.InspectionQuery) (*domain.InspectionRecord, error) {
	reqURL := c.requestURL(query)
	if c.debug {
		c.log.Debug("query", "url", reqURL)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			// The limiter refuses up front when the wait would outlast the deadline.
			if ctx.Err() == nil {
				return nil, fmt.Errorf("%w: rate limiter: %w: %w", domain.ErrNetwork, context.DeadlineExceeded, err)
			}
			return nil, fmt.Errorf("%w: rate limiter: %w", domain.ErrNetwork, err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			c.log.Warn("request failed", "attempt", attempt, "error", err)
			lastErr = err
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%w: reading body: %w", domain.ErrNetwork, readErr)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("%w: status %d: %s", domain.ErrNetwork, resp.StatusCode, truncate(body, 200))
			if !retryable(resp.StatusCode) {
				return nil, lastErr
			}
			c.log.Warn("retryable status", "attempt", attempt, "status", resp.StatusCode)
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		var rows []domain.InspectionRecord
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("%w: failed to decode response: %w", domain.ErrNetwork, err)
		}

		if c.debug {
			c.log.Debug("response", "rows", len(rows), "bytes", len(body))
		}

		if len(rows) == 0 {
			return nil, nil
		}
		return &rows[0], nil
	}

	return nil, lastErr
}

// backoff waits before the next attempt; there is no wait after the last one
func (c *Client) backoff(ctx context.Context, attempt int) error {
	if attempt >= c.maxRetries {
		return nil
	}
	if err := sleep(ctx, exponentialBackoff(attempt)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	return nil
}

// retryable reports whether a non-200 status is worth another attempt
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
