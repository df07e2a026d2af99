package xrtc

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by session construction and closed-session use.
// Match them with errors.Is.
var (
	// ErrMissingCredentials is returned by [Open] and [OpenConcurrent] when
	// no account id or API key can be resolved from the explicit arguments,
	// the credentials file, or the environment.
	ErrMissingCredentials = errors.New("xrtc: missing credentials")

	// ErrSessionClosed is returned by any operation invoked after Close.
	ErrSessionClosed = errors.New("xrtc: session closed")
)

// ValidationError reports a request rejected before any network round trip:
// an empty item batch, a missing portal id, or a serialized body exceeding
// the configured size limit. Validation failures are never retried.
type ValidationError struct {
	// Reason describes what was rejected.
	Reason string
}

func (e *ValidationError) Error() string {
	return "xrtc: invalid request: " + e.Reason
}

// APIError is the structured error body the service returns with
// HTTP 400 and 401 responses. It is always wrapped inside a
// [TransportError]; extract it with errors.As.
type APIError struct {
	// Group is the service's error group code.
	Group int

	// Code is the service's error code within the group.
	Code int

	// Message is the service's human-readable description.
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("xrtc: api error %d/%d: %s", e.Group, e.Code, e.Message)
}

// TransportError reports a failed HTTP round trip: a network failure,
// a timeout, or a non-200 response. The wrapped cause is an [APIError]
// when the service supplied a structured error body.
type TransportError struct {
	// Op is the operation the round trip served: "login", "set", or "get".
	Op string

	// URL is the target URL of the request.
	URL string

	// StatusCode is the HTTP status code. Zero when no response was received.
	StatusCode int

	// RequestID is the X-Request-Id header sent with the request,
	// for correlation with server-side logs.
	RequestID string

	// Err is the underlying cause.
	Err error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("xrtc: %s %s: status %d: %v (request_id=%s)", e.Op, e.URL, e.StatusCode, e.Err, e.RequestID)
	}
	return fmt.Sprintf("xrtc: %s %s: %v (request_id=%s)", e.Op, e.URL, e.Err, e.RequestID)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError reports a 200 response whose body could not be interpreted:
// empty, larger than the configured size limit, or malformed JSON.
// A decode failure is never treated as an empty item batch.
type DecodeError struct {
	// URL is the endpoint whose response failed to decode.
	URL string

	// Err is the underlying cause.
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("xrtc: decoding response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
