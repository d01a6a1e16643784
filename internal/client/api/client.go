// Package api is the HTTP transport to the auth/document service. It builds
// requests, attaches the bearer token and a request id, decodes the
// {success, message, data} envelope and classifies failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/docdesk/internal/logging"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	userAgent       = "docdesk/0.1"
	defaultTimeout  = 30 * time.Second
)

// TokenFunc returns the current bearer token, if any. Defined here, at the
// consumer, so the credential store can be injected without an import cycle.
type TokenFunc func(ctx context.Context) (string, bool)

// Envelope is the common response wrapper of the service.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// HasData reports whether the envelope carries a non-null data field.
func (e *Envelope) HasData() bool {
	d := bytes.TrimSpace(e.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

// Response is a decoded envelope. Data is nil when the service sent none.
type Response[T any] struct {
	Success bool
	Message string
	Data    *T
}

// Client talks to the service rooted at baseURL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenFunc
	log        logging.Logger
	timeout    time.Duration

	mu             sync.RWMutex
	onUnauthorized func(ctx context.Context)
}

// NewClient creates a client. httpClient may be nil; share one whose Jar
// holds the side-channel cookie to send it along.
func NewClient(baseURL string, httpClient *http.Client, token TokenFunc, log logging.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if token == nil {
		token = func(context.Context) (string, bool) { return "", false }
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		token:      token,
		log:        log.With("component", "api"),
		timeout:    defaultTimeout,
	}
}

// SetTimeout overrides the per-request timeout. Zero or negative disables it.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// OnUnauthorized registers the hook run whenever the service answers 401.
// The hook runs before the failing call returns.
func (c *Client) OnUnauthorized(fn func(ctx context.Context)) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// doJSON sends body (if any) as JSON and decodes the envelope.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any) (*Envelope, error) {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, query, reader, contentType)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*Envelope, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok, ok := c.token(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn(ctx, "request failed", "method", method, "path", path, "request_id", reqID, "error", err)
		return nil, &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Method: method, Path: path, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := newAPIError(resp.StatusCode, reqID, raw)
		c.log.Warn(ctx, "request rejected",
			"method", method, "path", path, "status", resp.StatusCode, "request_id", reqID)
		if resp.StatusCode == http.StatusUnauthorized {
			c.unauthorized(ctx)
		}
		return nil, apiErr
	}

	c.log.Debug(ctx, "request succeeded", "method", method, "path", path, "status", resp.StatusCode, "request_id", reqID)

	var env Envelope
	if len(bytes.TrimSpace(raw)) == 0 {
		return &env, nil
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &env, nil
}

func (c *Client) unauthorized(ctx context.Context) {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn(ctx)
	}
}

// decode turns an envelope into a typed response.
func decode[T any](env *Envelope) (*Response[T], error) {
	out := &Response[T]{Success: env.Success, Message: env.Message}
	if !env.HasData() {
		return out, nil
	}
	var data T
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	out.Data = &data
	return out, nil
}
