// HTTP client for the Lyre backend REST API.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/lyrelabs/lyre/internal/shared"
)

// TokenSource supplies the bearer token attached to outbound requests.
// An empty token means "send the request without credentials".
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed [TokenSource], mainly for tests and one-shot CLI calls.
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

// Response represents a raw API response with status, headers, and body.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// StatusError is returned for HTTP error statuses that carry no global
// policy (everything except 403 and transport failures). Callers decide how
// to surface it.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error: status %d", e.StatusCode)
}

// requestOptions holds per-call overrides folded from [RequestOption] values.
type requestOptions struct {
	query   url.Values
	headers http.Header
	public  bool
}

// RequestOption customizes a single API call.
type RequestOption func(*requestOptions)

// WithQuery merges the given query values into the request URL.
func WithQuery(values url.Values) RequestOption {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = url.Values{}
		}
		for k, vs := range values {
			for _, v := range vs {
				o.query.Add(k, v)
			}
		}
	}
}

// WithHeader sets a header on the request, overriding any client default.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = http.Header{}
		}
		o.headers.Set(key, value)
	}
}

// AsPublic marks the call as unauthenticated: no Authorization header is
// attached even when a token is available.
func AsPublic() RequestOption {
	return func(o *requestOptions) { o.public = true }
}

// ClientOpts contains configuration options for creating a [Client].
//
// RateLimit is requests per second; zero disables client-side limiting.
// OnForbidden fires once per call answered with HTTP 403, OnNetworkError once
// per call that produced no HTTP response at all.
type ClientOpts struct {
	BaseURL        string
	HTTPClient     *http.Client
	Tokens         TokenSource
	RateLimit      float64
	Logger         *log.Logger
	OnForbidden    func()
	OnNetworkError func()
}

// Client is the uniform outbound request path for all backend calls.
//
// It attaches the bearer token from its [TokenSource], decodes nothing on its
// own (callers use [Response.Decode] or the typed services), and performs
// exactly two global side effects: the forbidden hook on HTTP 403 and the
// network-error hook on transport failure. Every other error propagates to
// the caller unchanged. Calls are never retried.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	limiter        *rate.Limiter
	logger         *log.Logger
	onForbidden    func()
	onNetworkError func()
}

// NewClient creates a new API client for the Lyre backend.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8080/api"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		httpClient:     opts.HTTPClient,
		tokens:         opts.Tokens,
		limiter:        limiter,
		logger:         opts.Logger,
		onForbidden:    opts.OnForbidden,
		onNetworkError: opts.OnNetworkError,
	}
}

// Get performs a GET request to the specified path.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, opts...)
}

// Post performs a POST request with a JSON-encoded body.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body, opts...)
}

// Put performs a PUT request with a JSON-encoded body.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, body, opts...)
}

// Patch performs a PATCH request with a JSON-encoded body.
func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPatch, path, body, opts...)
}

// Delete performs a DELETE request to the specified path.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, opts...)
}

// do encodes an optional JSON body and dispatches the request.
func (c *Client) do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	var reader io.Reader
	contentType := ""

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	return c.send(ctx, method, path, contentType, reader, opts...)
}

// send performs the request and classifies the outcome.
func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader, opts ...RequestOption) (*Response, error) {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
		}
	}

	fullURL := c.baseURL + path
	if len(ro.query) > 0 {
		sep := "?"
		if strings.Contains(fullURL, "?") {
			sep = "&"
		}
		fullURL += sep + ro.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vs := range ro.headers {
		req.Header[k] = vs
	}

	if !ro.public && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	c.debugf("request %s %s", method, fullURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// No HTTP response at all: DNS, connection, or timeout failure.
		c.debugf("network error on %s %s: %v", method, fullURL, err)
		c.fire(c.onNetworkError)
		return nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.fire(c.onNetworkError)
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrNetwork, err)
	}

	c.debugf("response %s %s: status %d in %s", method, fullURL, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusForbidden {
		c.fire(c.onForbidden)
		return nil, fmt.Errorf("%w: %s %s", shared.ErrForbidden, method, path)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: envelopeMessage(data)}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}, nil
}

// Upload performs a multipart upload of a single file field, reporting
// progress as bytes are sent.
func (c *Client) Upload(ctx context.Context, path, field, filename string, file io.Reader, progress func(sent, total int64), opts ...RequestOption) (*Response, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to buffer upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	total := int64(buf.Len())
	var body io.Reader = &buf
	if progress != nil {
		body = &progressReader{r: &buf, total: total, report: progress}
	}

	return c.send(ctx, http.MethodPost, path, writer.FormDataContentType(), body, opts...)
}

// Download fetches a binary response and writes it to dir, resolving the
// filename from the Content-Disposition header, then the fallback name, then
// a generic default. Returns the written file path.
func (c *Client) Download(ctx context.Context, path, dir, fallback string, opts ...RequestOption) (string, error) {
	resp, err := c.Get(ctx, path, opts...)
	if err != nil {
		return "", err
	}

	name := filenameFromHeader(resp.Headers.Get("Content-Disposition"))
	if name == "" {
		name = fallback
	}
	if name == "" {
		name = "download"
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	dest := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(dest, resp.Body, 0644); err != nil {
		return "", fmt.Errorf("failed to write download: %w", err)
	}

	return dest, nil
}

// fire invokes a side-effect hook when configured. Each classified failure
// fires its hook exactly once.
func (c *Client) fire(hook func()) {
	if hook != nil {
		hook()
	}
}

func (c *Client) debugf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}

// envelopeMessage extracts the backend message from an error body, if the
// body is a well-formed envelope.
func envelopeMessage(body []byte) string {
	var envelope Envelope[json.RawMessage]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Message
}

// filenameFromHeader parses a Content-Disposition header for a filename.
func filenameFromHeader(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// progressReader reports cumulative bytes read against a known total.
type progressReader struct {
	r      io.Reader
	sent   int64
	total  int64
	report func(sent, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.report(p.sent, p.total)
	}
	return n, err
}
