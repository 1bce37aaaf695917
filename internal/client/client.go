// Package client provides a typed HTTP client for the chat service: login,
// transcript history and chat exchange.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/raphaelgruber/chatline/internal/metrics"
	"github.com/raphaelgruber/chatline/internal/session"
)

// Client talks JSON over HTTP to one chat service authority.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Collector
}

// Option configures a Client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Collector
	timeout    time.Duration
}

// WithHTTPClient sets the underlying HTTP client. Its transport is wrapped, not replaced.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// WithTimeout bounds every request. Zero (the default) means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// New creates a client for baseURL, e.g. "http://127.0.0.1:5000".
func New(baseURL string, opts ...Option) *Client {
	o := options{
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	next := o.httpClient.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	hc := *o.httpClient
	hc.Transport = &loggingTransport{next: next, logger: o.logger}
	if o.timeout > 0 {
		hc.Timeout = o.timeout
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &hc,
		logger:     o.logger,
		metrics:    o.metrics,
	}
}

// BaseURL returns the service authority without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// do sends one request and reads the whole body. creds may be nil for
// unauthenticated endpoints. Every failure before a status is known wraps
// ErrTransport.
func (c *Client) do(ctx context.Context, op, method, path string, creds *session.Credentials, body any) (response, error) {
	start := time.Now()
	resp, err := c.roundTrip(ctx, method, path, creds, body)
	c.metrics.RecordTiming(op, time.Since(start), err != nil || !resp.ok())
	return resp, err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, creds *session.Credentials, body any) (response, error) {
	var reader io.Reader
	if body != nil {
		reqBody, err := json.Marshal(body)
		if err != nil {
			return response{}, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if creds != nil {
		req.Header.Set("Authorization", "Bearer "+creds.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("%w: execute request: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}

	return response{status: resp.StatusCode, body: data}, nil
}

// decode unmarshals a response body. A body that is not JSON is a transport
// failure, matching how the service's own front-end treats it. JSON of the
// wrong shape is ErrMalformed; fields decoded before the mismatch are kept.
func decode(r response, v any) error {
	if !json.Valid(r.body) {
		return fmt.Errorf("%w: response is not JSON (status %d)", ErrTransport, r.status)
	}
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("%w: unmarshal response (status %d): %w", ErrMalformed, r.status, err)
	}
	return nil
}
