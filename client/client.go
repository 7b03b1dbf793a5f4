// Package client is the HTTP wire client for the roster API. It knows how to
// build resource URLs, send JSON, and turn non-2xx responses into typed errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sweater-ventures/roster/config"
	"github.com/sweater-ventures/roster/query"
)

// ErrNotFound matches any RequestError with status 404.
var ErrNotFound = errors.New("not found")

// RequestError is returned for every response outside 2xx.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Details    string
}

func (e *RequestError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s %s: %s (%s)", e.Method, e.Path, e.Message, e.Details)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
}

func (e *RequestError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Meta is the pagination block of a list response.
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Response is the envelope every API response body uses.
type Response[T any] struct {
	Data T     `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

type Client struct {
	baseURL string
	http    *http.Client
	headers http.Header
}

// New returns a client for the API rooted at baseURL, e.g.
// "http://localhost:8005/api". A nil httpClient uses a client with a 10s
// timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// WithHeader returns a copy of the client that adds the header to every
// request.
func (c *Client) WithHeader(key, value string) *Client {
	clone := *c
	clone.headers = c.headers.Clone()
	if clone.headers == nil {
		clone.headers = http.Header{}
	}
	clone.headers.Set(key, value)
	return &clone
}

// ResourcePath returns "/<resource>" or "/<resource>/<id>".
func ResourcePath(resource, id string) string {
	p := "/" + url.PathEscape(resource)
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

// ListPath returns the resource path with the descriptor's query string.
func ListPath(resource string, q query.Descriptor) string {
	p := ResourcePath(resource, "")
	if qs := q.Encode(); qs != "" {
		p += "?" + qs
	}
	return p
}

// Request performs one API call and returns the raw JSON body. A 204 response
// yields "{}". body is JSON encoded when non-nil.
func (c *Client) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	for key, values := range c.headers {
		req.Header[key] = values
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	log(ctx).Debug("API request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newRequestError(method, path, resp.StatusCode, raw)
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%s %s: response is not valid JSON", method, path)
	}
	return json.RawMessage(raw), nil
}

func newRequestError(method, path string, status int, raw []byte) *RequestError {
	reqErr := &RequestError{Method: method, Path: path, StatusCode: status}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		reqErr.Message = fmt.Sprintf("HTTP %d", status)
		return reqErr
	}
	reqErr.Message = body.Error
	reqErr.Details = body.Details
	if reqErr.Message == "" {
		reqErr.Message = "Request failed"
	}
	return reqErr
}

func log(ctx context.Context) *slog.Logger {
	log := ctx.Value(config.LoggerContextKey)
	if log == nil {
		return slog.Default()
	} else {
		return log.(*slog.Logger)
	}
}
