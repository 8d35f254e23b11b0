package client

import (
	"errors"
	"fmt"
)

// ErrAuthorization - the server rejected the configured credential (HTTP 401).
// Never retried, credentials will not spontaneously become valid.
var ErrAuthorization = errors.New("queued: authorization failed")

// APIError - the server answered with a non-2xx status.
// Err carries the conventional "error" field of the response body (or the
// whole decoded body), ErrorDetails the optional "error_details" field.
type APIError struct {
	Status       int
	Err          interface{}
	ErrorDetails interface{}
}

func (e *APIError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("queued: api error: status %d", e.Status)
	}
	return fmt.Sprintf("queued: api error: status %d: %v", e.Status, e.Err)
}

// badURLError - the endpoint or a built request URL failed to parse.
// A caller configuration defect, fails before any network I/O and is
// never retried.
type badURLError struct {
	url string
	err error
}

func (e *badURLError) Error() string {
	return fmt.Sprintf("queued: bad url %q: %v", e.url, e.err)
}

func (e *badURLError) Unwrap() error {
	return e.err
}
