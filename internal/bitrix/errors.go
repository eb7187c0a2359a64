package bitrix

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// APIError is an application-level error embedded in an HTTP-200 response
// body ({"error": "...", "error_description": "..."}). These are never
// retried: the request reached Bitrix and was rejected.
type APIError struct {
	Method      string
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bitrix %s: %s: %s", e.Method, e.Code, e.Description)
}

// RequestError is a non-timeout HTTP failure: an unexpected status line or
// an unreadable body, after retries were exhausted for retryable statuses.
type RequestError struct {
	Method string
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("bitrix %s: unexpected status %d: %s", e.Method, e.Status, e.Body)
}

// TransportError is a connection-level failure (dial, TLS, read). Timeout
// marks connect/read deadline expiry, which callers degrade softly on.
type TransportError struct {
	Method  string
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("bitrix %s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a connect or read timeout, directly or
// wrapped.
func IsTimeout(err error) bool {
	var te *TransportError
	if errors.As(err, &te) && te.Timeout {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsAPIError reports whether err carries a body-embedded Bitrix error code.
func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}
