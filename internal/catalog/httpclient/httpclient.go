package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

const maxErrorBody = 512

// Client is an HTTP client with Bearer auth and a base URL. It performs a
// single attempt per call; retry policy belongs to the caller, which can use
// (*APIError).Temporary and RetryAfter to decide.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
}

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
	retryAfter string // Retry-After header value for 429/503
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the response is worth retrying (429 or 5xx).
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// RetryAfter returns the server-requested delay, or zero.
func (e *APIError) RetryAfter() time.Duration {
	if e.retryAfter == "" {
		return 0
	}
	if secs, err := strconv.Atoi(e.retryAfter); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// TransportError wraps a failure to complete the round trip (DNS, refused
// connection, timeout, truncated body). These are always temporary.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string   { return "transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error   { return e.Err }
func (e *TransportError) Temporary() bool { return !errors.Is(e.Err, context.Canceled) }

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a Client with Bearer auth and a base URL. An empty token sends
// no Authorization header.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		token:     token,
		userAgent: "emoshop/1",
		httpClient: &http.Client{
			Timeout: 45 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON sends a GET request and unmarshals the JSON response into dest.
// Returns *APIError for non-2xx responses and *TransportError when the
// round trip fails.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, dest any) error {
	body, _, err := c.do(ctx, http.MethodGet, c.url(path, query), nil, "")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// PostJSON marshals payload, POSTs it, and unmarshals the JSON response
// into dest (which may be nil).
func (c *Client) PostJSON(ctx context.Context, path string, payload, dest any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	body, _, err := c.do(ctx, http.MethodPost, c.url(path, nil), data, "application/json")
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// GetRaw fetches an absolute URL or a path relative to the base URL and
// returns the body and its Content-Type.
func (c *Client) GetRaw(ctx context.Context, target string) ([]byte, string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, "", fmt.Errorf("parse url: %w", err)
	}
	if !u.IsAbs() {
		target = c.baseURL + target
	}
	return c.do(ctx, http.MethodGet, target, nil, "")
}

func (c *Client) url(path string, query url.Values) string {
	full := c.baseURL + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

func (c *Client) do(ctx context.Context, method, target string, payload []byte, contentType string) ([]byte, string, error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, "", err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &TransportError{Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, resp.Header.Get("Content-Type"), nil
	}

	bodyStr := string(body)
	if len(bodyStr) > maxErrorBody {
		bodyStr = bodyStr[:maxErrorBody]
	}
	return nil, "", &APIError{
		StatusCode: resp.StatusCode,
		Body:       bodyStr,
		retryAfter: resp.Header.Get("Retry-After"),
	}
}
