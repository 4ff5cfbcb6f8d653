package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a single request round trip unless overridden.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes  = 1 << 20
	maxErrorBodyBytes = 4 << 10
)

// Client issues JSON requests against the upstream shop API.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// Option customises the client during construction.
type Option func(*Client)

// WithTimeout overrides the per-request deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client, primarily for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// RequestOption mutates a single outgoing request before it is sent.
type RequestOption func(*http.Request)

// WithHeader sets a header on the outgoing request.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		if strings.TrimSpace(key) != "" {
			r.Header.Set(key, value)
		}
	}
}

// NewClient constructs a client rooted at the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL exposes the configured upstream root.
func (c *Client) BaseURL() string { return c.baseURL }

// GetJSON performs a GET against endpoint with the supplied query values and
// decodes the JSON response into out. A 204 (or empty body) leaves out untouched
// and returns nil.
func (c *Client) GetJSON(ctx context.Context, endpoint string, query url.Values, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodGet, endpoint, query, nil, out, opts...)
}

// PostJSON performs a POST with a JSON body and decodes any JSON response into
// out when out is non-nil. 2xx responses without a body are successful.
func (c *Client) PostJSON(ctx context.Context, endpoint string, body any, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPost, endpoint, nil, body, out, opts...)
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body any, out any, opts ...RequestOption) error {
	if ctx == nil {
		ctx = context.Background()
	}

	target := c.endpointURL(endpoint, query)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, target, reader)
	if err != nil {
		return fmt.Errorf("apiclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.translateTransportError(ctx, callCtx, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{Status: resp.StatusCode, Message: errorMessageFromBody(resp.Body, resp.StatusCode)}
	}

	// 204 is a successful empty result, never an error.
	if resp.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.translateTransportError(ctx, callCtx, target, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("apiclient: decode response from %s: %w", target, err)
	}
	return nil
}

// translateTransportError maps a failed round trip onto the error taxonomy:
// caller cancellation stays recognisable as context.Canceled, the client's own
// deadline becomes a TimeoutError, everything else is a NetworkError.
func (c *Client) translateTransportError(parent, call context.Context, target string, err error) error {
	if parent.Err() != nil && errors.Is(parent.Err(), context.Canceled) {
		return fmt.Errorf("apiclient: request to %s: %w", target, context.Canceled)
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{URL: target, Timeout: c.timeout}
	}
	return &NetworkError{URL: target, Err: err}
}

func (c *Client) endpointURL(endpoint string, query url.Values) string {
	endpoint = strings.TrimSpace(endpoint)
	var target string
	switch {
	case strings.HasPrefix(endpoint, "http://"), strings.HasPrefix(endpoint, "https://"):
		target = endpoint
	case endpoint == "":
		target = c.baseURL
	default:
		target = c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

// errorMessageFromBody derives a user-presentable message from an error
// response. Empty bodies and the literal string "null" fall back to the
// generic status message.
func errorMessageFromBody(body io.Reader, status int) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	if err != nil {
		data = nil
	}
	text := strings.TrimSpace(string(data))
	text = strings.Trim(text, `"`)
	if text == "" || text == "null" {
		return fmt.Sprintf("HTTP error! status: %d", status)
	}
	return text
}
