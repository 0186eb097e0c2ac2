package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError reports a response other than 200 OK
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %q from %s", e.Status, e.URL)
}

// retryable is true for rate limiting and gateway failures
func (e *StatusError) retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func statusError(resp *http.Response, url string) *StatusError {
	return &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
}

// IsStatus reports whether err carries a StatusError with the given code
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
