// Package api is the JSON-over-HTTP transport shared by the auth and ideas
// service clients. It owns bearer injection, request identifiers, the
// client-side rate limit and the mapping from HTTP outcomes to error kinds.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"redgit.org/internal/ids"
	"redgit.org/internal/obs"
)

const defaultTimeout = 10 * time.Second

// Client wraps one remote service base URL.
type Client struct {
	service    string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying *http.Client. Used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRequestTimeout bounds every request issued through the client.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps outbound requests per second with the given burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// NewClient creates a client for the named service. The service name labels
// metrics and log lines, never the wire.
func NewClient(service, baseURL string, opts ...Option) *Client {
	c := &Client{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: obs.InstrumentTransport(service, nil),
		},
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do issues a request and decodes a 2xx JSON response into out (skipped when
// out is nil). The bearer token is attached when non-empty. Every failure is
// an *Error; nothing is retried.
func (c *Client) Do(ctx context.Context, method, path, token string, body, out any) error {
	return c.do(ctx, method, path, token, body, out, "")
}

// Mutate behaves like Do but attaches a fresh idempotency key, so a retry by
// a human (double click, rerun of the CLI) is distinguishable server-side.
func (c *Client) Mutate(ctx context.Context, method, path, token string, body, out any) error {
	return c.do(ctx, method, path, token, body, out, ids.New())
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any, idemKey string) error {
	op := method + " " + path

	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Kind: KindTransport, Service: c.service, Op: op, Err: err}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindInvalid, Service: c.service, Op: op, Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindTransport, Service: c.service, Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idemKey != "" {
		req.Header.Set("X-Idempotency-Key", idemKey)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Service: c.service, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused; the body detail is not
		// surfaced to users, only the status class matters.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &Error{
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Service: c.service,
			Op:      op,
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{
			Kind:    KindServer,
			Status:  resp.StatusCode,
			Service: c.service,
			Op:      op,
			Err:     fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// WithTimeout returns a context with a default timeout useful for CLI tools.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultTimeout
	}
	return context.WithTimeout(parent, d)
}
