package pixiv

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError represents a request the service received and rejected. It
// carries the HTTP status and the service-provided message and reason so a
// failure can be diagnosed without replaying the request.
type APIError struct {
	StatusCode  int    `json:"status_code"`
	Message     string `json:"message"`
	UserMessage string `json:"user_message"`
	Reason      string `json:"reason"`
	URL         string `json:"url"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.UserMessage
	}

	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}

	return fmt.Sprintf("pixiv api error: %d %s (%s %s)", e.StatusCode, msg, e.Reason, e.URL)
}

// TransportError represents a network-level failure that persisted through
// the retry schedule: connection errors, timeouts, or retry-exhausted 5xx
// responses never produced a usable reply.
type TransportError struct {
	Attempts int
	URL      string
	Err      error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("pixiv transport error after %d attempt(s) to %s: %v", e.Attempts, e.URL, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthError represents a login or token refresh failure. It is fatal for
// the current credential set; the caller must re-authenticate with fresh
// credentials.
type AuthError struct {
	StatusCode  int
	Message     string
	Description string
	Err         error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	msg := fmt.Sprintf("pixiv auth error: %s", e.Message)
	if e.Description != "" {
		msg += " - " + e.Description
	}

	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}

	return msg
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// DecodeError reports a response body that did not match the expected
// schema. A decode failure indicates contract drift between client and
// service and is always surfaced, even though the HTTP exchange succeeded.
type DecodeError struct {
	Field    string // dotted path of the offending field, "" if unknown
	Expected string
	Actual   string
	Err      error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("pixiv decode error: field %q expected %s, got %s", e.Field, e.Expected, e.Actual)
	}

	if e.Err != nil {
		return fmt.Sprintf("pixiv decode error: %v", e.Err)
	}

	return fmt.Sprintf("pixiv decode error: expected %s, got %s", e.Expected, e.Actual)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Static errors that can be wrapped with context.
var (
	ErrConfigRequired      = errors.New("config is required")
	ErrCredentialsRequired = errors.New("refresh token or username/password is required")
	ErrAuthFailed          = errors.New("authentication failed for current credentials")
	ErrNoRefreshToken      = errors.New("no refresh token available")
	ErrNoMoreItems         = errors.New("no more items")
	ErrCircuitBreakerOpen  = errors.New("circuit breaker is open")
	ErrInvalidProxyURL     = errors.New("invalid proxy URL")
	ErrNilFetchFunc        = errors.New("fetch function is required")
)

// errorBody is the JSON error envelope returned by the AppAPI.
type errorBody struct {
	Error struct {
		Message     string `json:"message"`
		UserMessage string `json:"user_message"`
		Reason      string `json:"reason"`
	} `json:"error"`
}

// ParseAPIError builds an APIError from a non-2xx response body. The body
// is optional; a malformed or empty body still yields a usable error with
// the status code and URL.
func ParseAPIError(statusCode int, url string, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		URL:        url,
	}

	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err == nil {
		apiErr.Message = envelope.Error.Message
		apiErr.UserMessage = envelope.Error.UserMessage
		apiErr.Reason = envelope.Error.Reason
	}

	return apiErr
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}

	return false
}

// IsUnauthorized checks if the error is an authentication failure, either
// a terminal AuthError or a 401/403 from the service.
func IsUnauthorized(err error) bool {
	authErr := &AuthError{}
	if errors.As(err, &authErr) {
		return true
	}

	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}

	return false
}

// IsRateLimited checks if the error is a rate limit rejection that
// survived the retry schedule.
func IsRateLimited(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}

	return false
}
