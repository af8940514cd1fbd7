// Package httpclient provides the HTTP client used to fetch remote catalogs and distributions
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultTimeout is the default budget for a fetch, retries included
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of attempts for transient failures
	DefaultMaxRetries = 3

	// MaxResponseSize is the default maximum allowed response size (100MB)
	MaxResponseSize = 100 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "opendata-catalog-server/1.0"
)

// ErrResponseTooLarge is returned when a body exceeds the configured size cap
var ErrResponseTooLarge = errors.New("response exceeds maximum allowed size")

// Client is an interface for HTTP operations
type Client interface {
	// Get performs an HTTP GET request and returns the fully read response
	Get(ctx context.Context, url string) (*Response, error)
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client          *http.Client
	timeout         time.Duration
	maxRetries      uint
	maxResponseSize int64
	initialBackoff  time.Duration
}

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithMaxRetries sets the number of attempts for transient failures. Zero means a single attempt.
func WithMaxRetries(n uint) Option {
	return func(c *DefaultClient) {
		c.maxRetries = n
	}
}

// WithMaxResponseSize caps the number of bytes read from a response body
func WithMaxResponseSize(n int64) Option {
	return func(c *DefaultClient) {
		if n > 0 {
			c.maxResponseSize = n
		}
	}
}

// WithInitialBackoff sets the first retry delay
func WithInitialBackoff(d time.Duration) Option {
	return func(c *DefaultClient) {
		c.initialBackoff = d
	}
}

// WithTransport replaces the underlying round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(c *DefaultClient) {
		c.client.Transport = rt
	}
}

// NewDefaultClient creates a new default HTTP client with the specified timeout.
// If timeout is 0, uses DefaultTimeout. The timeout bounds the whole Get call.
func NewDefaultClient(timeout time.Duration, opts ...Option) Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := &DefaultClient{
		client:          &http.Client{},
		timeout:         timeout,
		maxRetries:      DefaultMaxRetries,
		maxResponseSize: MaxResponseSize,
		initialBackoff:  backoff.DefaultInitialInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs an HTTP GET request. Transport failures and 5xx responses are
// retried with exponential backoff until the timeout expires.
func (c *DefaultClient) Get(ctx context.Context, url string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.initialBackoff

	attempt := func() (*Response, error) {
		return c.do(ctx, url)
	}

	tries := c.maxRetries
	if tries == 0 {
		tries = 1
	}

	resp, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(tries),
		backoff.WithMaxElapsedTime(c.timeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.DebugContext(ctx, "Retrying fetch", "url", url, "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !isHTTPError(err) {
			return nil, fmt.Errorf("request to %s did not complete within %s: %w", url, c.timeout, ctxErr)
		}
		return nil, err
	}
	return resp, nil
}

func (c *DefaultClient) do(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := NewHTTPError(resp.StatusCode, url, resp.Status)
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, httpErr
		}
		return nil, backoff.Permanent(httpErr)
	}

	if resp.ContentLength > c.maxResponseSize {
		return nil, backoff.Permanent(fmt.Errorf("%w: %d bytes (limit %d)",
			ErrResponseTooLarge, resp.ContentLength, c.maxResponseSize))
	}

	// Read one byte past the limit to detect an oversized body
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > c.maxResponseSize {
		return nil, backoff.Permanent(fmt.Errorf("%w: limit %d bytes", ErrResponseTooLarge, c.maxResponseSize))
	}

	return &Response{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         resp.Request.URL.String(),
	}, nil
}

func isHTTPError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr)
}
