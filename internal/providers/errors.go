package providers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ShapeError means the model answered but the answer does not satisfy the
// requested schema: unparseable JSON, or JSON failing validation.
type ShapeError struct {
	Output string
	Err    error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("structured output mismatch: %v", e.Err)
}

func (e *ShapeError) Unwrap() error { return e.Err }

// APIError is a provider or transport failure.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
	}
	if e.Message == "" {
		return fmt.Sprintf("%s error (status %d)", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// RateLimitError is an HTTP 429 from a provider.
type RateLimitError struct {
	Provider   string
	Message    string
	StatusCode int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s rate limited (retry after %s): %s", e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("%s rate limited: %s", e.Provider, e.Message)
}

// ExhaustedError is returned when a retry policy runs out of attempts.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// IsShapeError reports whether err is, or wraps, a ShapeError.
func IsShapeError(err error) bool {
	var se *ShapeError
	return errors.As(err, &se)
}

// IsRateLimitError extracts a RateLimitError from err.
func IsRateLimitError(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

// statusError builds the typed error for a failed HTTP status.
func statusError(provider string, status int, message string, retryAfter time.Duration) error {
	if status == http.StatusTooManyRequests {
		return &RateLimitError{
			Provider:   provider,
			Message:    message,
			StatusCode: status,
			RetryAfter: retryAfter,
		}
	}
	return &APIError{Provider: provider, StatusCode: status, Message: message}
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
