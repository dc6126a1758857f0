package api

import (
	"errors"
	"fmt"
)

// TransportError means the request produced no HTTP response at all: DNS
// failure, connection refused, timeout. This is the only failure class that
// routes a submission into the offline queue.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError means the request reached the server and was rejected. Rejected
// submissions are surfaced to the user and never queued: an automatic retry
// would repeat the same rejection.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server rejected request (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server rejected request (%d)", e.StatusCode)
}

// DecodeError means a stored receipt image could not be decoded back into
// binary form during replay
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode receipt image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is a no-response network failure
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
