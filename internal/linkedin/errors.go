package linkedin

import (
	"errors"
	"fmt"
)

// TransportError reports a request that failed after exhausting its retry
// budget. Whether it is fatal depends on what was being fetched: a failed
// page request ends the run, a failed detail request only skips one job.
type TransportError struct {
	URL      string
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error { return e.Err }

// statusError is a non-2xx response. It stays internal to the retry loop;
// callers only ever see it wrapped in a TransportError.
type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// ErrMissingCookie is returned when the session cookie string is empty.
var ErrMissingCookie = errors.New("linkedin cookie is required")
