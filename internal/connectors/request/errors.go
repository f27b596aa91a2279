package request

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError is returned by Client.Do when a request fails permanently or
// its attempts are exhausted.
type RequestError struct {
	// Status is the last HTTP status received. Zero for transport failures.
	Status int

	// Message is the response body excerpt or transport error text.
	Message string

	// URL is the requested URL.
	URL string

	// Attempts is the number of attempts made.
	Attempts int

	// Err is the underlying cause, if any.
	Err error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("request failed after %d attempt(s): %s (URL: %s)", e.Attempts, e.Message, e.URL)
	}
	return fmt.Sprintf("request failed after %d attempt(s): status %d: %s (URL: %s)",
		e.Attempts, e.Status, e.Message, e.URL)
}

// Unwrap returns the underlying cause.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status == http.StatusNotFound
	}
	return false
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status == http.StatusTooManyRequests
	}
	return false
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status == http.StatusUnauthorized || reqErr.Status == http.StatusForbidden
	}
	return false
}
