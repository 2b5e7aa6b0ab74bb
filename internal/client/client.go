// Package client talks to the studio REST backend: paged listings, detail
// loads and design save/publish.
package client

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

	"go.uber.org/zap"
)

// ErrMalformedResponse reports a 2xx response whose body has an unexpected shape.
var ErrMalformedResponse = errors.New("client: malformed response")

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// ResponseError is returned for non-2xx responses.
type ResponseError struct {
	Status  int
	Code    string
	Message string
}

func (e *ResponseError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("client: backend error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("client: backend error %d: %s", e.Status, e.Message)
}

// Client is safe for concurrent use.
type Client struct {
	base    *url.URL
	http    HTTPClient
	token   func(context.Context) string
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken sends a fixed bearer token.
func WithToken(token string) Option {
	token = strings.TrimSpace(token)
	return func(c *Client) {
		c.token = func(context.Context) string { return token }
	}
}

// WithTokenSource resolves the bearer token per request.
func WithTokenSource(fn func(context.Context) string) Option {
	return func(c *Client) {
		if fn != nil {
			c.token = fn
		}
	}
}

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a Client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("client: base URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("client: parse base URL: %w", err)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	c := &Client{
		base:    parsed,
		http:    http.DefaultClient,
		token:   func(context.Context) string { return "" },
		timeout: 15 * time.Second,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// call performs one request and decodes a 2xx JSON body into out.
func (c *Client) call(ctx context.Context, method, endpoint string, query url.Values, payload, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("client: encode payload: %w", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(endpoint, query), body)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := errorFromResponse(resp)
		c.logger.Debug("client: backend error",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
		)
		return rerr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrMalformedResponse, endpoint, err)
	}
	return nil
}

func (c *Client) resolve(endpoint string, query url.Values) string {
	ref := &url.URL{Path: strings.TrimPrefix(endpoint, "/")}
	if len(query) > 0 {
		ref.RawQuery = query.Encode()
	}
	return c.base.ResolveReference(ref).String()
}

func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	out := &ResponseError{Status: resp.StatusCode}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil && (payload.Error != "" || payload.Message != "") {
		out.Code = strings.TrimSpace(payload.Error)
		out.Message = strings.TrimSpace(payload.Message)
		return out
	}
	if len(body) > 0 {
		out.Message = strings.TrimSpace(string(body))
		return out
	}
	out.Message = http.StatusText(resp.StatusCode)
	return out
}

// IsStatus reports whether err is a ResponseError with the given status.
func IsStatus(err error, status int) bool {
	var rerr *ResponseError
	return errors.As(err, &rerr) && rerr.Status == status
}
