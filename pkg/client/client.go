package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/devopsblog/blog/engine/core"
	"github.com/devopsblog/blog/engine/post"
	"github.com/devopsblog/blog/pkg/config"
	"github.com/devopsblog/blog/pkg/logger"
)

const (
	apiPrefix        = "/api"
	defaultTimeout   = 10 * time.Second
	defaultRetries   = 3
	defaultRetryWait = 100 * time.Millisecond
	maxRetryWait     = 2 * time.Second
)

// ErrUnhealthy is returned by Health when the service answers but reports a
// degraded state.
var ErrUnhealthy = errors.New("service unhealthy")

// Client talks to the blog API over HTTP.
type Client struct {
	http    *resty.Client
	baseURL string
}

type options struct {
	retries   int
	retryWait time.Duration
	debug     bool
	transport http.RoundTripper
}

// Option customizes a Client.
type Option func(*options)

// WithRetries sets how many times failed reads and updates are retried and the
// initial wait. Creates and deletes are never retried.
func WithRetries(count int, wait time.Duration) Option {
	return func(o *options) {
		o.retries = count
		o.retryWait = wait
	}
}

// WithDebug logs raw requests and responses.
func WithDebug(debug bool) Option {
	return func(o *options) { o.debug = debug }
}

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// New builds a client for cfg.BaseURL.
func New(cfg *config.ClientConfig, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("client configuration is required")
	}
	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	o := &options{retries: defaultRetries, retryWait: defaultRetryWait}
	for _, opt := range opts {
		opt(o)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rc := resty.New().
		SetBaseURL(baseURL+apiPrefix).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(o.retries).
		SetRetryWaitTime(o.retryWait).
		SetRetryMaxWaitTime(maxRetryWait).
		SetDebug(o.debug)
	if o.transport != nil {
		rc.SetTransport(o.transport)
	}
	rc.AddRetryCondition(retryCondition)
	return &Client{http: rc, baseURL: baseURL}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("base URL scheme must be http or https, got: %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("base URL must have a host, got: %s", raw)
	}
	return strings.TrimRight(parsed.String(), "/"), nil
}

// retryCondition retries network errors, server errors and throttling for
// replay-safe methods only. A create or delete whose response was lost may
// already have been applied.
func retryCondition(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || !replaySafe(r.Request.Method) {
		return false
	}
	if err != nil {
		return true
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

func replaySafe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut:
		return true
	default:
		return false
	}
}

// APIError is the error envelope returned by the API.
type APIError struct {
	StatusCode int               `json:"status"`
	Title      string            `json:"error"`
	Details    string            `json:"details,omitempty"`
	Code       string            `json:"code,omitempty"`
	Fields     []core.FieldIssue `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	msg := e.Title
	if e.Details != "" {
		msg = e.Details
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Message)
		}
		msg += ": " + strings.Join(parts, "; ")
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Code, msg, e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Uptime    float64 `json:"uptime"`
	Message   string  `json:"message"`
	Timestamp int64   `json:"timestamp"`
	Service   string  `json:"service"`
	Version   string  `json:"version"`
	Database  string  `json:"database"`
}

// ListPosts fetches one page of posts. Zero values let the server apply defaults.
func (c *Client) ListPosts(ctx context.Context, page, limit int) (*post.Page, error) {
	var out post.Page
	req := c.http.R().SetContext(ctx).SetResult(&out).SetError(&APIError{})
	if page > 0 {
		req.SetQueryParam("page", strconv.Itoa(page))
	}
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	if err := c.do(ctx, req, http.MethodGet, "/posts"); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return &out, nil
}

// GetPost fetches a single post.
func (c *Client) GetPost(ctx context.Context, id int64) (*post.Post, error) {
	var out post.Post
	req := c.http.R().SetContext(ctx).SetResult(&out).SetError(&APIError{})
	if err := c.do(ctx, req, http.MethodGet, postPath(id)); err != nil {
		return nil, fmt.Errorf("failed to get post %d: %w", id, err)
	}
	return &out, nil
}

// CreatePost creates a post and returns the stored row.
func (c *Client) CreatePost(ctx context.Context, in *post.CreateInput) (*post.Post, error) {
	var out post.Post
	req := c.http.R().SetContext(ctx).SetBody(in).SetResult(&out).SetError(&APIError{})
	if err := c.do(ctx, req, http.MethodPost, "/posts"); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return &out, nil
}

// UpdatePost sends the set fields of in and returns the updated row.
func (c *Client) UpdatePost(ctx context.Context, id int64, in *post.UpdateInput) (*post.Post, error) {
	var out post.Post
	req := c.http.R().SetContext(ctx).SetBody(in).SetResult(&out).SetError(&APIError{})
	if err := c.do(ctx, req, http.MethodPut, postPath(id)); err != nil {
		return nil, fmt.Errorf("failed to update post %d: %w", id, err)
	}
	return &out, nil
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, id int64) error {
	req := c.http.R().SetContext(ctx).SetError(&APIError{})
	if err := c.do(ctx, req, http.MethodDelete, postPath(id)); err != nil {
		return fmt.Errorf("failed to delete post %d: %w", id, err)
	}
	return nil
}

// Health returns the service health. A degraded service yields its status
// together with ErrUnhealthy.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var ok, degraded HealthStatus
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&ok).
		SetError(&degraded).
		Get(c.baseURL + "/health")
	if err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return &ok, nil
	case http.StatusServiceUnavailable:
		return &degraded, fmt.Errorf("%w: %s", ErrUnhealthy, degraded.Message)
	default:
		return nil, fmt.Errorf("unexpected health status %d", resp.StatusCode())
	}
}

func postPath(id int64) string {
	return "/posts/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, req *resty.Request, method, path string) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		if apiErr, ok := resp.Error().(*APIError); ok && apiErr != nil && apiErr.Title != "" {
			if apiErr.StatusCode == 0 {
				apiErr.StatusCode = resp.StatusCode()
			}
			return apiErr
		}
		return &APIError{StatusCode: resp.StatusCode(), Title: http.StatusText(resp.StatusCode())}
	}
	logger.FromContext(ctx).Debug("API request completed", "method", method, "path", path, "status", resp.StatusCode())
	return nil
}
