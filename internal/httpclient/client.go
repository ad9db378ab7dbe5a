// Package httpclient is the only way oactl talks to the backend. Every request
// passes the request interceptors (bearer token, request id) and every failure
// leaves as a normalized *errors.OAError.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/log"
)

const (
	DefaultBaseURL     = "http://localhost:8000"
	DefaultTimeout     = 5 * time.Second
	DefaultContentType = "application/json"
	DefaultLoginPath   = "/login/"
	DefaultLoginRoute  = "/login"
	DefaultExpiryDelay = 1500 * time.Millisecond
)

// Session is the part of the session store the client depends on.
type Session interface {
	PersistedToken() string
	ExpireToken() error
}

// Notifier surfaces user-facing messages.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}

// Navigator moves the application to a route.
type Navigator interface {
	Push(path string)
}

// Config is fixed for the life of a Client.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	ContentType string
	// LoginPath marks requests that must go out without a token.
	LoginPath string
	// LoginRoute is where the expiry guard navigates.
	LoginRoute  string
	ExpiryDelay time.Duration
	UserAgent   string
	// MaxRetries applies to GET requests that fail with a retryable kind.
	MaxRetries int
	RetryDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ContentType == "" {
		c.ContentType = DefaultContentType
	}
	if c.LoginPath == "" {
		c.LoginPath = DefaultLoginPath
	}
	if c.LoginRoute == "" {
		c.LoginRoute = DefaultLoginRoute
	}
	if c.ExpiryDelay <= 0 {
		c.ExpiryDelay = DefaultExpiryDelay
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 500 * time.Millisecond
	}
	return c
}

// RequestInterceptor mutates an outgoing request before it is sent.
type RequestInterceptor func(req *http.Request)

// Client is safe for concurrent use.
type Client struct {
	cfg          Config
	http         *http.Client
	session      Session
	notifier     Notifier
	navigator    Navigator
	guard        *ExpiryGuard
	logger       *log.Logger
	interceptors []RequestInterceptor
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. Its Timeout is overwritten by Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithNotifier sets where user-facing messages go.
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithGuard replaces the expiry guard, typically to inject a fake clock.
func WithGuard(g *ExpiryGuard) Option {
	return func(c *Client) { c.guard = g }
}

// WithNavigator sets the navigator of the default expiry guard.
func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.navigator = n }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithInterceptor appends a request interceptor after the built-in ones.
func WithInterceptor(i RequestInterceptor) Option {
	return func(c *Client) { c.interceptors = append(c.interceptors, i) }
}

// New builds a client. The token interceptor and request id interceptor are
// always installed first.
func New(cfg Config, session Session, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg.withDefaults(),
		http:    &http.Client{},
		session: session,
	}
	c.interceptors = []RequestInterceptor{c.injectToken, injectRequestID}
	for _, opt := range opts {
		opt(c)
	}

	c.http.Timeout = c.cfg.Timeout
	c.logger = log.OrDefault(c.logger).With("component", "httpclient")
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.guard == nil {
		c.guard = NewExpiryGuard(c.notifier, c.navigator, c.cfg.ExpiryDelay, c.cfg.LoginRoute)
	}
	return c
}

// Guard exposes the session expiry guard so callers can wait for a pending
// redirect before exiting.
func (c *Client) Guard() *ExpiryGuard { return c.guard }

// Notifier returns the notifier the client reports through.
func (c *Client) Notifier() Notifier { return c.notifier }

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

// Do sends a request built from method, path, body and cfg through the
// interceptor chain and normalizes the outcome.
func (c *Client) Do(ctx context.Context, method, path string, body any, cfg *RequestConfig) (*Response, error) {
	if cfg == nil {
		cfg = &RequestConfig{}
	}

	attempts := 1
	if method == http.MethodGet && c.cfg.MaxRetries > 0 {
		attempts += c.cfg.MaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.do(ctx, method, path, body, cfg)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt == attempts || !errors.KindOf(err).Retryable() {
			break
		}

		c.logger.Debug("retrying request", "method", method, "path", path, "attempt", attempt)
		select {
		case <-ctx.Done():
			return nil, c.normalize(ctx, nil, ctx.Err())
		case <-time.After(c.cfg.RetryDelay * time.Duration(attempt)):
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, method, path string, body any, cfg *RequestConfig) (*Response, error) {
	req, err := c.newRequest(ctx, method, path, body, cfg)
	if err != nil {
		return nil, err
	}
	for _, intercept := range c.interceptors {
		intercept(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", req.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(), "error", err.Error())
		return nil, c.normalize(ctx, nil, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.normalize(ctx, nil, err)
	}

	out := &Response{
		Status:    resp.StatusCode,
		Header:    resp.Header,
		Data:      data,
		RequestID: req.Header.Get(HeaderRequestID),
	}
	c.logger.Debug("request completed", "method", method, "path", req.URL.Path,
		"status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds(),
		"request_id", out.RequestID)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return out, nil
	}
	return nil, c.normalize(ctx, out, nil)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, cfg *RequestConfig) (*http.Request, error) {
	target, err := c.resolve(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnknown, fmt.Sprintf("invalid request url %q", path), err)
	}
	if len(cfg.Params) > 0 {
		q := target.Query()
		for k, vs := range cfg.Params.Values() {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		target.RawQuery = q.Encode()
	}

	reader, contentType, err := encodeBody(body, c.cfg.ContentType)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnknown, "failed to encode request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnknown, "failed to create request", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cfg.ResponseType == ResponseBlob {
		req.Header.Set("Accept", "*/*")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// resolve joins path onto the base URL. Absolute URLs pass through.
func (c *Client) resolve(path string) (*url.URL, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return url.Parse(path)
	}
	return url.Parse(c.cfg.BaseURL + "/" + strings.TrimLeft(path, "/"))
}

func encodeBody(body any, defaultContentType string) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, defaultContentType, nil
	case RawBody:
		return b.Reader, b.ContentType, nil
	case *RawBody:
		return b.Reader, b.ContentType, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), defaultContentType, nil
	}
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Info(string)    {}
func (nopNotifier) Warning(string) {}
func (nopNotifier) Error(string)   {}
