package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"phone-storefront/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const maxBodyBytes = 4 * 1024 * 1024

// Doer sends HTTP requests, *http.Client satisfies it
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource yields the bearer token of the current session.
// An empty token means the session is anonymous.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client wraps the marketplace REST API. It never retries.
type Client struct {
	Doer    Doer
	BaseURL string
	Tokens  TokenSource
	logger  *zap.Logger
}

// New creates a new backend client
func New(doer Doer, baseURL string, tokens TokenSource) *Client {
	if doer == nil {
		doer = NewHTTPClient(30 * time.Second)
	}
	return &Client{
		Doer:    doer,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Tokens:  tokens,
		logger:  util.Named("backend"),
	}
}

// NewHTTPClient returns an http.Client tuned for the backend
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: tr, Timeout: timeout}
}

func (c *Client) newReq(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is empty")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	c.applyAuth(ctx, req)
	return req, nil
}

func (c *Client) applyAuth(ctx context.Context, req *http.Request) {
	if c.Tokens == nil {
		return
	}
	token, err := c.Tokens.Token(ctx)
	if err != nil {
		c.logger.Warn("Session token unavailable, sending anonymous request",
			zap.String("url", req.URL.Path),
			zap.Error(err))
		return
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// roundTrip performs one request and returns the raw response body.
// route is the path template used as a metric label.
func (c *Client) roundTrip(ctx context.Context, method, route, path string, body io.Reader, contentType, fallback string) (_ []byte, _ http.Header, err error) {
	ctx, span := util.StartSpan(ctx, "backend "+method+" "+route,
		attribute.String("http.method", method),
		attribute.String("http.route", route))
	defer func() { util.EndSpan(span, err) }()

	status := "error"
	start := time.Now()
	defer func() {
		util.BackendRequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
		if err != nil {
			util.BackendRequestsFailed.WithLabelValues(route, status).Inc()
		}
	}()

	req, err := c.newReq(ctx, method, path, body)
	if err != nil {
		return nil, nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.Doer.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", method, route, err)
	}
	defer resp.Body.Close()

	status = strconv.Itoa(resp.StatusCode)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s %s: %w", method, route, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, newFetchError(resp.StatusCode, b, fallback)
	}

	return b, resp.Header, nil
}

// sendJSON encodes in (when non-nil) and decodes the response into out (when non-nil).
// It reports whether the response carried a body.
func (c *Client) sendJSON(ctx context.Context, method, route, path string, in any, fallback string, out any) (bool, error) {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return false, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	b, _, err := c.roundTrip(ctx, method, route, path, body, contentType, fallback)
	if err != nil {
		return false, err
	}

	if len(bytes.TrimSpace(b)) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := decodeBody(b, out); err != nil {
		return true, fmt.Errorf("%s %s: %w", method, route, err)
	}
	return true, nil
}

func decodeBody(b []byte, out any) error {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, route, path, fallback string, out any) error {
	_, err := c.sendJSON(ctx, http.MethodGet, route, path, nil, fallback, out)
	return err
}

// decodeCollection accepts either a bare JSON array or a page object
func decodeCollection[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		var out []T
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var page struct {
		Content []T `json:"content"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, err
	}
	if page.Content == nil {
		return []T{}, nil
	}
	return page.Content, nil
}

func listCollection[T any](ctx context.Context, c *Client, route, path, fallback string) ([]T, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, route, path, fallback, &raw); err != nil {
		return nil, err
	}
	out, err := decodeCollection[T](raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", route, err)
	}
	return out, nil
}

func pageQuery(path string, page, size int) string {
	return fmt.Sprintf("%s?page=%d&size=%d", path, page, size)
}
