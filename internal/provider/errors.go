package provider

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for provider operations. Every failure returned by a
// Provider wraps exactly one of the first three.
var (
	// ErrTransport indicates the request never produced an HTTP response:
	// network unreachable, connection reset, or timeout.
	ErrTransport = errors.New("provider: transport failure")

	// ErrRemoteStatus indicates the endpoint answered with a non-200 status.
	// The concrete error is a *StatusError.
	ErrRemoteStatus = errors.New("provider: unexpected status")

	// ErrParse indicates the response body did not have the expected shape.
	ErrParse = errors.New("provider: malformed response")

	// ErrNotConfigured indicates no endpoint or credential is available.
	ErrNotConfigured = errors.New("provider: not configured")
)

// StatusError carries the HTTP status of a rejected request.
type StatusError struct {
	Code int
	Body string
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", ErrRemoteStatus, e.Code)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", ErrRemoteStatus, e.Code, e.Body)
}

// Unwrap lets errors.Is match ErrRemoteStatus.
func (e *StatusError) Unwrap() error {
	return ErrRemoteStatus
}

// Failure kinds reported by Kind.
const (
	KindTransport = "transport"
	KindTimeout   = "timeout"
	KindStatus    = "status"
	KindParse     = "parse"
	KindOther     = "other"
)

// Kind classifies err into a short label suitable for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrRemoteStatus):
		return KindStatus
	case errors.Is(err, ErrParse):
		return KindParse
	default:
		return KindOther
	}
}
