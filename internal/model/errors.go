package model

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrMissingAPIKey is returned by a completion provider that was configured
// without credentials. It is reported on the first call, not at startup.
var ErrMissingAPIKey = errors.New("completion service API key is not set")

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// ClientError means the inbound request could not be turned into a prompt.
type ClientError struct {
	Err error
}

func (e *ClientError) Error() string { return e.Err.Error() }
func (e *ClientError) Unwrap() error { return e.Err }

// UpstreamError means the completion service failed for this request.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s completion: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ErrorKind names the class of a relay failure for logging.
func ErrorKind(err error) string {
	var ce *ClientError
	var ue *UpstreamError
	switch {
	case errors.As(err, &ce):
		return "client"
	case errors.As(err, &ue):
		return "upstream"
	default:
		return "internal"
	}
}

// ParseRetryAfter parses a Retry-After header value given in seconds
// (e.g. "120"). Returns zero if absent or unparseable.
func ParseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
