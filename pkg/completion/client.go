package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// DefaultEndpoint is the public demo completion endpoint.
const DefaultEndpoint = "https://api.rulm.alexkuk.ru/v1/complete"

// Request is the body of one completion call.
type Request struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// Client issues streaming completion requests against a single endpoint.
type Client struct {
	Endpoint string            // Full URL of the completion endpoint.
	Client   *http.Client      // HTTP client; falls back to http.DefaultClient.
	Headers  map[string]string // Extra headers applied to every request.

	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.Client = hc }
}

// WithHeaders sets extra request headers.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) { c.Headers = h }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{Endpoint: endpoint}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}

	return c
}

// httpClient returns the configured client or http.DefaultClient.
func (c *Client) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}

	return http.DefaultClient
}

// NewRequest builds a POST to the endpoint with the custom headers applied.
func (c *Client) NewRequest(ctx context.Context, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")

	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// Do sends the request using the configured HTTP client.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient().Do(req) //nolint:gosec // URL comes from trusted configuration.
}

// Complete starts a completion and returns its event stream. A non-2xx
// response fails here with an *APIError carrying the full body; no events
// are produced. The caller must Close the returned Stream.
func (c *Client) Complete(ctx context.Context, r Request) (Stream, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("completion: marshal request: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)

	req, err := c.NewRequest(streamCtx, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("completion: build request: %w", err)
	}

	c.logger.Debug("completion request", "endpoint", c.Endpoint, "model", r.Model,
		"max_tokens", r.MaxTokens, "temperature", r.Temperature, "prompt_len", len(r.Prompt))

	resp, err := c.Do(req)
	if err != nil {
		cancel()
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer cancel()
		defer func() { _ = resp.Body.Close() }()

		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, &TransportError{Err: readErr}
		}

		c.logger.Warn("completion rejected", "status", resp.StatusCode, "body", string(respBody))

		return nil, &APIError{Status: resp.StatusCode, Message: string(respBody)}
	}

	return newLineStream(resp.Body, cancel, c.logger), nil
}
