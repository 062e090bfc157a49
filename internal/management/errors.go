package management

import (
	"errors"
	"fmt"
)

// TransportError reports that a connection could not be established or a
// request/response round trip did not complete, including timeouts.
type TransportError struct {
	// Op is "connect" or "query".
	Op         string
	EntityType string
	Err        error
}

// Error returns the formatted error string.
func (e *TransportError) Error() string {
	if e.EntityType == "" {
		return fmt.Sprintf("management: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("management: %s %s: %v", e.Op, e.EntityType, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is returned when the management agent answers with a non-2xx
// status code. It supports errors.Is matching by status code.
type StatusError struct {
	StatusCode  int
	Description string
}

// Error returns the formatted error string.
func (e *StatusError) Error() string {
	return fmt.Sprintf("management: status %d: %s", e.StatusCode, e.Description)
}

// Is supports errors.Is matching by status code.
// ErrServerError (500) matches any 5xx status code.
func (e *StatusError) Is(target error) bool {
	t, ok := target.(*StatusError)
	if !ok {
		return false
	}
	if t.StatusCode == 500 && e.StatusCode >= 500 && e.StatusCode < 600 {
		return true
	}
	return e.StatusCode == t.StatusCode
}

// Sentinel errors for common management status codes.
var (
	ErrBadRequest  = &StatusError{StatusCode: 400, Description: "bad request"}
	ErrForbidden   = &StatusError{StatusCode: 403, Description: "forbidden"}
	ErrNotFound    = &StatusError{StatusCode: 404, Description: "not found"}
	ErrServerError = &StatusError{StatusCode: 500, Description: "server error"}
)

// ErrMalformedResponse is returned when a query response body is not an
// attribute table.
var ErrMalformedResponse = errors.New("management: malformed response")

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
