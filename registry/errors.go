package registry

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matched by LoadError.
var (
	// ErrNotFound indicates the document does not exist (HTTP 404 or 410).
	ErrNotFound = errors.New("document not found")

	// ErrInvalidAddOn indicates a document that parsed but failed validation.
	ErrInvalidAddOn = errors.New("invalid add-on")

	// ErrRateLimited indicates the registry refused the request (HTTP 429).
	ErrRateLimited = errors.New("rate limited")
)

// LoadError reports a failed fetch or decode of a remote document.
type LoadError struct {
	// URL is the requested document.
	URL string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

func (e *LoadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("load %s: HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.URL, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel errors implied by StatusCode.
func (e *LoadError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// statusError turns a non-200 status into an error.
func statusError(code int) error {
	switch code {
	case http.StatusNotFound, http.StatusGone:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("unexpected status %s", http.StatusText(code))
	}
}
