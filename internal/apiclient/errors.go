package apiclient

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// StatusError reports a non-2xx response from the upstream API. Message carries
// the server-provided body text when it is usable, otherwise a generic
// "HTTP error! status: N" string.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}

// TimeoutError reports that the client-side deadline elapsed before the
// upstream API answered. It is distinct from caller cancellation.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timeout after %s: %s", e.Timeout, e.URL)
}

// Unwrap lets errors.Is match context.DeadlineExceeded.
func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// NetworkError reports a transport-level failure before any HTTP status was received.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsCancelled reports whether the error is the result of caller cancellation,
// i.e. the request was superseded rather than genuinely failed.
func IsCancelled(err error) bool {
	return err != nil && errors.Is(err, context.Canceled)
}

// IsTimeout reports whether the error is a client-side request timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var timeout *TimeoutError
	return errors.As(err, &timeout)
}

// IsNetwork reports whether the error is a transport failure.
func IsNetwork(err error) bool {
	if err == nil {
		return false
	}
	var network *NetworkError
	return errors.As(err, &network)
}

// StatusOf extracts the HTTP status carried by the error, when present.
func StatusOf(err error) (int, bool) {
	var status *StatusError
	if errors.As(err, &status) {
		return status.Status, true
	}
	return 0, false
}

// IsStatus reports whether the error carries the given HTTP status.
func IsStatus(err error, code int) bool {
	status, ok := StatusOf(err)
	return ok && status == code
}
