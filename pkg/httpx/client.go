package httpx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// Timeouts groups the connect/read pair for one call class.
type Timeouts struct {
	Connect time.Duration
	Read    time.Duration
}

// ShortTimeouts covers metadata/status style calls.
func ShortTimeouts() Timeouts {
	return Timeouts{Connect: 3 * time.Second, Read: 20 * time.Second}
}

// LongTimeouts covers generation calls which can run for a long time.
func LongTimeouts() Timeouts {
	return Timeouts{Connect: 3 * time.Second, Read: 90 * time.Second}
}

// retryableStatus is the fixed set of status codes worth retrying.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client is a pooled HTTP client with bounded retries for idempotent calls.
// One Client per logical remote service; construct once at startup and reuse.
type Client struct {
	http       *http.Client
	maxRetries int
	backoff    time.Duration
}

type Option func(*Client)

// WithRetries bounds the number of retry attempts after the first try.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the base delay for the exponential backoff between retries.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// WithPoolSize bounds the idle connection pool kept per host.
func WithPoolSize(n int) Option {
	return func(c *Client) {
		if t, ok := c.http.Transport.(*http.Transport); ok && n > 0 {
			t.MaxIdleConns = 2 * n
			t.MaxIdleConnsPerHost = n
		}
	}
}

// New builds a Client with its own transport so pool settings do not leak
// between logical services.
func New(timeouts Timeouts, opts ...Option) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: timeouts.Connect,
		}).DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeouts.Connect,
		ResponseHeaderTimeout: timeouts.Read,
	}

	c := &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   timeouts.Connect + timeouts.Read,
		},
		maxRetries: 2,
		backoff:    500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes the request once without retrying. Used for order-sensitive
// mutating calls that carry no idempotency key.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.http.Do(req)
}

// DoRetry executes an idempotent request, retrying transport errors and the
// retryable status set with exponential backoff. The request body, if any,
// must be provided as bytes so it can be replayed.
func (c *Client) DoRetry(ctx context.Context, method, url string, body []byte, header http.Header) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff * time.Duration(1<<(attempt-1))
			// Jitter spreads concurrent retries against a struggling endpoint.
			delay += time.Duration(rand.Int63n(int64(c.backoff) / 2))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if retryableStatus[resp.StatusCode] && attempt < c.maxRetries {
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d from %s", resp.StatusCode, url)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("request to %s failed after %d attempts: %w", url, c.maxRetries+1, lastErr)
}

// PostJSON sends a JSON body with retries and returns the raw response.
// Only use for endpoints that are safe to repeat.
func (c *Client) PostJSON(ctx context.Context, url string, body []byte) (*http.Response, error) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return c.DoRetry(ctx, http.MethodPost, url, body, header)
}

// PostJSONOnce sends a JSON body without retrying.
func (c *Client) PostJSONOnce(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

// Get issues a GET with retries.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.DoRetry(ctx, http.MethodGet, url, nil, nil)
}
