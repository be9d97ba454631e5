// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/homeport/internal/gwerrors"
	"github.com/tomtom215/homeport/internal/logging"
	"github.com/tomtom215/homeport/internal/metrics"
	"github.com/tomtom215/homeport/internal/models"
	"github.com/tomtom215/homeport/internal/netguard"
)

const (
	// maxErrorExcerpt bounds the response text carried by an UpstreamError.
	maxErrorExcerpt = 512

	userAgent = "Homeport/1.0"
)

// ErrResponseTooLarge is wrapped by the TransportError returned when a
// response body exceeds Config.MaxResponseBytes.
var ErrResponseTooLarge = errors.New("response body exceeds size limit")

// Config holds the settings shared by every gateway client.
type Config struct {
	// Timeout bounds one request including reading the response body.
	Timeout time.Duration `koanf:"timeout"`

	// MaxResponseBytes caps how much of a response body is buffered.
	MaxResponseBytes int64 `koanf:"max_response_bytes"`

	// RateLimit is the sustained requests per second allowed per instance
	// (0 disables limiting). RateBurst is the bucket size.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// DefaultConfig returns a 30 second timeout, a 10MB response cap, no rate
// limit and the default breaker.
func DefaultConfig() Config {
	return Config{
		Timeout:          30 * time.Second,
		MaxResponseBytes: 10 << 20,
		RateLimit:        0,
		RateBurst:        10,
		Breaker:          DefaultBreakerConfig(),
	}
}

// Response is a fully buffered backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Value returns the parsed body: decoded JSON when the body is JSON, the raw
// text otherwise, nil when empty.
func (r *Response) Value() any {
	body := bytes.TrimSpace(r.Body)
	if len(body) == 0 {
		return nil
	}
	var v any
	if json.Unmarshal(body, &v) == nil {
		return v
	}
	return string(r.Body)
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the guarded default transport. Used by tests and
// by callers that supply their own dial enforcement.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

// Client issues one-shot REST calls against a single validated instance.
// It is safe for concurrent use.
type Client struct {
	instance models.ServiceInstance
	base     *url.URL
	auth     Authenticator
	http     *http.Client
	timeout  time.Duration
	maxBody  int64
	limiter  *rate.Limiter
	breaker  *breaker
}

// NewClient validates the instance's address through guard and prepares a
// client for it. The guard is mandatory.
func NewClient(ctx context.Context, guard *netguard.Validator, inst models.ServiceInstance, cfg Config, opts ...Option) (*Client, error) {
	if guard == nil {
		return nil, errors.New("gateway: address validator is required")
	}
	base, err := guard.Canonicalize(ctx, inst.BaseAddress)
	if err != nil {
		return nil, err
	}
	auth, err := AuthenticatorFor(inst.Type, inst.Credential)
	if err != nil {
		return nil, gwerrors.NewValidation("credential", inst.ID, err.Error())
	}

	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = defaults.MaxResponseBytes
	}

	transport := &http.Transport{
		Proxy:                 nil,
		DialContext:           guard.Dialer(cfg.Timeout).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	c := &Client{
		instance: inst,
		base:     base,
		auth:     auth,
		http: &http.Client{
			Transport: transport,
			// Redirects would leave the validated address.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: cfg.Timeout,
		maxBody: cfg.MaxResponseBytes,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	if cfg.Breaker.Enabled {
		c.breaker = newBreaker(inst.ID, cfg.Breaker)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the canonical base address.
func (c *Client) BaseURL() string { return c.base.String() }

// AuthScheme names the credential mechanism in use.
func (c *Client) AuthScheme() string { return c.auth.Scheme() }

// BreakerState reports "closed", "half-open", "open" or "disabled".
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.state()
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() { c.http.CloseIdleConnections() }

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, models.OutboundRequest{Method: http.MethodGet, Path: path, Query: query})
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, models.OutboundRequest{Method: http.MethodPost, Path: path, Body: body})
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, models.OutboundRequest{Method: http.MethodPut, Path: path, Body: body})
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, models.OutboundRequest{Method: http.MethodDelete, Path: path})
}

// Do issues req against the instance. Path violations fail before any I/O.
func (c *Client) Do(ctx context.Context, req models.OutboundRequest) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	if !allowedMethods[method] {
		return nil, gwerrors.NewValidation("method", req.Method, "method is not allowed")
	}
	target, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return nil, err
	}
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, gwerrors.NewValidation("body", "", err.Error())
	}

	start := time.Now()
	var resp *Response
	if c.breaker != nil {
		resp, err = c.breaker.execute(func() (*Response, error) {
			return c.send(ctx, method, target, body)
		})
	} else {
		resp, err = c.send(ctx, method, target, body)
	}
	duration := time.Since(start)

	outcome := "success"
	switch {
	case errors.Is(err, context.Canceled):
		outcome = "canceled"
	case err != nil:
		outcome = string(gwerrors.KindOf(err))
	}
	metrics.RecordGatewayRequest(string(c.instance.Type), method, outcome, duration)

	logger := logging.Ctx(ctx)
	event := logger.Debug()
	if err != nil {
		event = logger.Warn().Str("error_kind", outcome)
	}
	event.
		Str("instance", c.instance.ID).
		Str("method", method).
		Str("path", target.Path).
		Dur("duration", duration).
		Msg("Gateway request")

	return resp, err
}

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodHead:   true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// ValidatePath enforces the relative-path contract: it must start with "/",
// must not start with "//", and must not contain "://", backslashes,
// control characters, fragments or ".." segments.
func ValidatePath(p string) error {
	switch {
	case p == "":
		return gwerrors.NewValidation("path", p, "path is required")
	case !strings.HasPrefix(p, "/"):
		return gwerrors.NewValidation("path", p, "path must start with '/'")
	case strings.HasPrefix(p, "//"):
		return gwerrors.NewValidation("path", p, "protocol-relative paths are not allowed")
	case strings.Contains(p, "://"):
		return gwerrors.NewValidation("path", p, "scheme-qualified paths are not allowed")
	case strings.ContainsRune(p, '\\'):
		return gwerrors.NewValidation("path", p, "backslashes are not allowed")
	case strings.ContainsRune(p, '#'):
		return gwerrors.NewValidation("path", p, "fragments are not allowed")
	}
	for _, r := range p {
		if r < 0x20 || r == 0x7f {
			return gwerrors.NewValidation("path", p, "control characters are not allowed")
		}
	}
	pathOnly, _, _ := strings.Cut(p, "?")
	for _, seg := range strings.Split(pathOnly, "/") {
		decoded, err := url.PathUnescape(seg)
		if err != nil {
			return gwerrors.NewValidation("path", p, "path contains an invalid escape")
		}
		// Encoded separators may be decoded and normalised by the backend.
		for _, part := range strings.FieldsFunc(decoded, isPathSeparator) {
			if part == ".." {
				return gwerrors.NewValidation("path", p, "path traversal segments are not allowed")
			}
		}
	}
	return nil
}

func isPathSeparator(r rune) bool { return r == '/' || r == '\\' }

// resolve joins a validated relative path onto the base address.
func (c *Client) resolve(p string, query url.Values) (*url.URL, error) {
	if err := ValidatePath(p); err != nil {
		return nil, err
	}
	pathPart, rawQuery, _ := strings.Cut(p, "?")
	rel, err := url.Parse(pathPart)
	if err != nil || rel.Scheme != "" || rel.Host != "" {
		return nil, gwerrors.NewValidation("path", p, "path cannot be parsed as a relative reference")
	}

	target := *c.base
	target.Path = c.base.Path + rel.Path
	target.RawPath = ""
	if rel.RawPath != "" {
		target.RawPath = c.base.EscapedPath() + rel.RawPath
	}

	merged, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, gwerrors.NewValidation("path", p, "query string cannot be parsed")
	}
	for k, vs := range query {
		for _, v := range vs {
			merged.Add(k, v)
		}
	}
	target.RawQuery = merged.Encode()
	return &target, nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		return data, nil
	}
}

func (c *Client) send(parent context.Context, method string, target *url.URL, body []byte) (*Response, error) {
	op := method + " " + target.Path

	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if errors.Is(parent.Err(), context.Canceled) {
				return nil, fmt.Errorf("%s: %w", op, context.Canceled)
			}
			return nil, &gwerrors.TimeoutError{Op: op + " (rate limited)", Timeout: c.timeout, Err: err}
		}
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, gwerrors.NewValidation("path", target.Path, "request cannot be built")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.auth.Apply(req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classify(parent, ctx, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, c.classify(parent, ctx, op, err)
	}
	oversized := int64(len(data)) > c.maxBody
	if oversized {
		data = data[:c.maxBody]
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &gwerrors.UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    excerpt(data, resp.Status),
			Method:     method,
			Path:       target.Path,
		}
	}
	if oversized {
		return nil, &gwerrors.TransportError{
			InstanceID: c.instance.ID,
			Op:         op,
			Err:        fmt.Errorf("%w (%d bytes)", ErrResponseTooLarge, c.maxBody),
		}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) classify(parent, ctx context.Context, op string, err error) error {
	var ve *gwerrors.ValidationError
	if errors.As(err, &ve) {
		// Refused by the dial-time guard.
		return ve
	}
	if errors.Is(parent.Err(), context.Canceled) {
		// The caller gave up; the backend is not at fault.
		return fmt.Errorf("%s: %w", op, context.Canceled)
	}
	if parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &gwerrors.TimeoutError{Op: op, Timeout: c.timeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &gwerrors.TimeoutError{Op: op, Timeout: c.timeout, Err: err}
	}
	return &gwerrors.TransportError{InstanceID: c.instance.ID, Op: op, Err: err}
}

func excerpt(body []byte, status string) string {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return status
	}
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		if envelope.Message != "" {
			msg = envelope.Message
		} else if envelope.Error != "" {
			msg = envelope.Error
		}
	}
	if len(msg) > maxErrorExcerpt {
		msg = msg[:maxErrorExcerpt] + "... (truncated)"
	}
	return msg
}
