// Package http implements the request dispatcher: it builds and sends
// AppAPI requests with bearer authentication, token-bucket admission,
// retry with backoff, and typed error classification.
package http

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

	"github.com/sony/gobreaker"

	"github.com/komorebi-io/pixiv-client/internal/auth"
	"github.com/komorebi-io/pixiv-client/internal/constants"
	"github.com/komorebi-io/pixiv-client/pkg/pixiv"
)

// downloadChunkSize is the read granularity for Download progress events.
const downloadChunkSize = 256 * 1024

// Request describes one logical API call. A Request is never mutated
// after construction: each attempt, and each pagination step, derives a
// fresh *http.Request from it.
type Request struct {
	Method  string
	Path    string // path under the base URL, or an absolute URL (cursor replay)
	Query   url.Values
	Headers map[string]string
	Body    interface{} // JSON-marshalled; url.Values is form-encoded

	// NoAuth skips bearer token attachment, for the handful of endpoints
	// that accept anonymous access.
	NoAuth bool
}

// Response is the outcome of one dispatch call.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client dispatches HTTP requests to the AppAPI.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	tokenManager auth.TokenManager
	userAgent    string
	logger       pixiv.Logger
	debug        bool

	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration

	limiter      *RateLimiter
	breaker      *gobreaker.CircuitBreaker
	events       pixiv.EventSink
	interceptors *pixiv.InterceptorChain
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger.
func WithLogger(logger pixiv.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging through the logger.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithRetryConfig tunes the retry schedule for transient failures.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.retryMax = retryMax
		c.retryWaitMin = waitMin
		c.retryWaitMax = waitMax
	}
}

// WithRateLimit replaces the default admission gate.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.limiter = NewRateLimiter(rps, burst)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithEventSink attaches a lifecycle event sink.
func WithEventSink(events pixiv.EventSink) Option {
	return func(c *Client) {
		c.events = events
	}
}

// WithInterceptors attaches a request/response interceptor chain.
func WithInterceptors(chain *pixiv.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a dispatcher for the given base URL. tokenManager may
// be nil for unauthenticated use.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: constants.DefaultHTTPTimeout},
		tokenManager: tokenManager,
		userAgent:    constants.DefaultUserAgent,
		retryMax:     constants.DefaultRetryMax,
		retryWaitMin: constants.DefaultRetryWaitMin,
		retryWaitMax: constants.DefaultRetryWaitMax,
		limiter:      NewRateLimiter(constants.DefaultRateLimit, constants.DefaultRateBurst),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.limiter.setEventSink(c.events)
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "pixiv-appapi",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return c
}

// RateLimiter exposes the admission gate, mainly so callers can disable
// it in bulk-import scenarios they rate-limit themselves.
func (c *Client) RateLimiter() *RateLimiter {
	return c.limiter
}

// Do dispatches a request: bearer token attachment, rate limiter
// admission per attempt, bounded retries with backoff for transient
// failures, a single refresh-and-retry on 401, and typed errors for
// everything that cannot be resolved locally.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	targetURL, err := c.buildURL(req)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(req.Headers))
	for k, v := range req.Headers {
		headers[k] = v
	}

	if contentType != "" && headers["Content-Type"] == "" {
		headers["Content-Type"] = contentType
	}

	if c.interceptors != nil {
		icReq := &pixiv.Request{
			Method:  req.Method,
			Path:    req.Path,
			Headers: toHTTPHeader(headers),
			Body:    body,
		}
		if err := c.interceptors.ExecuteRequestInterceptors(ctx, icReq); err != nil {
			return nil, err
		}

		headers = fromHTTPHeader(icReq.Headers)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    targetURL,
		})
	}

	resp, err := c.doWithRetries(ctx, req, targetURL, body, headers)

	if c.interceptors != nil {
		icResp := &pixiv.Response{Error: err}
		if resp != nil {
			icResp.StatusCode = resp.StatusCode
			icResp.Headers = resp.Headers
			icResp.Body = resp.Body
		}

		icReq := &pixiv.Request{Method: req.Method, Path: req.Path}
		if icErr := c.interceptors.ExecuteResponseInterceptors(ctx, icReq, icResp); icErr != nil && err == nil {
			err = icErr
		}
	}

	if c.debug && c.logger != nil {
		fields := map[string]interface{}{
			"method": req.Method,
			"url":    targetURL,
		}
		if resp != nil {
			fields["status_code"] = resp.StatusCode
		}

		if err != nil {
			fields["error"] = err.Error()
		}

		c.logger.Debug("HTTP Response", fields)
	}

	return resp, err
}

// doWithRetries runs the attempt loop. Transient failures (network
// errors, 429, 5xx) share the retry budget; a 401 triggers at most one
// forced token refresh outside that budget.
func (c *Client) doWithRetries(ctx context.Context, req *Request, targetURL string, body []byte, headers map[string]string) (*Response, error) {
	var (
		attempt   int
		refreshed bool
	)

	for {
		token := ""

		if !req.NoAuth && c.tokenManager != nil {
			var err error

			token, err = c.tokenManager.GetToken(ctx)
			if err != nil {
				return nil, err
			}
		}

		// Every attempt, including retries, is independently admitted.
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		resp, err := c.send(ctx, req.Method, targetURL, body, headers, token)

		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, fmt.Errorf("request aborted: %w", ctx.Err())
			}

			if errors.Is(err, pixiv.ErrCircuitBreakerOpen) {
				return nil, &pixiv.TransportError{Attempts: attempt + 1, URL: targetURL, Err: err}
			}

			if attempt >= c.retryMax {
				return nil, &pixiv.TransportError{Attempts: attempt + 1, URL: targetURL, Err: err}
			}

			if err := c.sleepBackoff(ctx, req, attempt, 0); err != nil {
				return nil, err
			}

			attempt++

		case resp.StatusCode == http.StatusUnauthorized:
			if req.NoAuth || c.tokenManager == nil || refreshed {
				return nil, &pixiv.AuthError{
					StatusCode: resp.StatusCode,
					Message:    "request rejected with 401 after token refresh",
				}
			}

			if err := c.tokenManager.RefreshToken(ctx); err != nil {
				return nil, err
			}

			c.publish(pixiv.Event{Kind: pixiv.EventTokenRefreshed, Time: time.Now(), Method: req.Method, Path: req.Path})

			refreshed = true

		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt >= c.retryMax {
				return resp, pixiv.ParseAPIError(resp.StatusCode, targetURL, resp.Body)
			}

			if err := c.sleepBackoff(ctx, req, attempt, retryAfter(resp.Headers)); err != nil {
				return nil, err
			}

			attempt++

		case resp.StatusCode >= 500:
			if attempt >= c.retryMax {
				return resp, pixiv.ParseAPIError(resp.StatusCode, targetURL, resp.Body)
			}

			if err := c.sleepBackoff(ctx, req, attempt, 0); err != nil {
				return nil, err
			}

			attempt++

		case resp.StatusCode >= 400:
			return resp, pixiv.ParseAPIError(resp.StatusCode, targetURL, resp.Body)

		default:
			return resp, nil
		}
	}
}

// send performs one HTTP attempt through the circuit breaker. Only
// transport-level failures count against the breaker; an HTTP response
// of any status is a successful exchange from its point of view.
func (c *Client) send(ctx context.Context, method, targetURL string, body []byte, headers map[string]string, token string) (*Response, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, targetURL, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Accept-Language", constants.AcceptLanguage)
	httpReq.Header.Set("User-Agent", c.userAgent)

	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.httpClient.Do(httpReq) //nolint:bodyclose // closed below after the breaker returns
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", pixiv.ErrCircuitBreakerOpen, err)
		}

		return nil, err
	}

	httpResp, _ := result.(*http.Response)
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}, nil
}

// sleepBackoff waits before the next attempt, honoring an explicit
// Retry-After when one is longer than the computed backoff.
func (c *Client) sleepBackoff(ctx context.Context, req *Request, attempt int, minWait time.Duration) error {
	wait := calculateBackoff(attempt, c.retryWaitMin, c.retryWaitMax)
	if minWait > wait {
		wait = minWait
	}

	c.publish(pixiv.Event{
		Kind:    pixiv.EventRetryScheduled,
		Time:    time.Now(),
		Method:  req.Method,
		Path:    req.Path,
		Attempt: attempt + 1,
		Wait:    wait,
	})

	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled during backoff: %w", ctx.Err())
	}
}

func (c *Client) publish(event pixiv.Event) {
	if c.events != nil {
		c.events.Publish(event)
	}
}

// buildURL resolves a Request to an absolute URL. Absolute paths pass
// through untouched so pagination cursors are replayed verbatim.
func (c *Client) buildURL(req *Request) (string, error) {
	if strings.HasPrefix(req.Path, "http://") || strings.HasPrefix(req.Path, "https://") {
		if len(req.Query) == 0 {
			return req.Path, nil
		}

		parsed, err := url.Parse(req.Path)
		if err != nil {
			return "", fmt.Errorf("parsing request URL: %w", err)
		}

		query := parsed.Query()
		for key, values := range req.Query {
			for _, value := range values {
				query.Add(key, value)
			}
		}

		parsed.RawQuery = query.Encode()

		return parsed.String(), nil
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	return target, nil
}

// encodeBody serializes a request body. url.Values is form-encoded, which
// the AppAPI expects on write endpoints; everything else is JSON.
func encodeBody(body interface{}) ([]byte, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case url.Values:
		return []byte(v.Encode()), "application/x-www-form-urlencoded", nil
	case []byte:
		return v, "application/json", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("marshaling request body: %w", err)
		}

		return data, "application/json", nil
	}
}

func toHTTPHeader(headers map[string]string) http.Header {
	header := make(http.Header, len(headers))
	for k, v := range headers {
		header.Set(k, v)
	}

	return header
}

func fromHTTPHeader(header http.Header) map[string]string {
	headers := make(map[string]string, len(header))
	for k := range header {
		headers[k] = header.Get(k)
	}

	return headers
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// DoDecoded dispatches a request and decodes the 2xx body into T through
// the typed model layer. A shape mismatch surfaces as a *pixiv.DecodeError,
// distinct from transport and API failures.
func DoDecoded[T any](ctx context.Context, c *Client, req *Request) (*T, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	return pixiv.Decode[T](resp.Body)
}

// Download fetches raw bytes, typically from the image CDN, through the
// same rate limiter and retry path as API calls. The CDN requires a
// Referer header and no bearer token.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	var (
		attempt int
		lastErr error
	)

	for attempt <= c.retryMax {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		data, retriable, err := c.downloadOnce(ctx, rawURL)
		if err == nil {
			return data, nil
		}

		if ctx.Err() != nil || !retriable {
			return nil, err
		}

		lastErr = err

		if attempt < c.retryMax {
			if err := c.sleepBackoff(ctx, &Request{Method: http.MethodGet, Path: rawURL}, attempt, 0); err != nil {
				return nil, err
			}
		}

		attempt++
	}

	return nil, &pixiv.TransportError{Attempts: attempt, URL: rawURL, Err: lastErr}
}

func (c *Client) downloadOnce(ctx context.Context, rawURL string) (data []byte, retriable bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("building download request: %w", err)
	}

	httpReq.Header.Set("Referer", constants.ImageReferer)
	httpReq.Header.Set("User-Agent", c.userAgent)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, true, err
	}

	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		apiErr := pixiv.ParseAPIError(httpResp.StatusCode, rawURL, body)

		return nil, httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500, apiErr
	}

	var buf bytes.Buffer

	chunk := make([]byte, downloadChunkSize)

	for {
		n, readErr := httpResp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			c.publish(pixiv.Event{
				Kind:  pixiv.EventDownloadProgress,
				Time:  time.Now(),
				Path:  rawURL,
				Bytes: int64(buf.Len()),
				Total: httpResp.ContentLength,
			})
		}

		if readErr == io.EOF {
			return buf.Bytes(), false, nil
		}

		if readErr != nil {
			return nil, true, readErr
		}
	}
}
