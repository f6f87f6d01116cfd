package search

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned when the query is missing or blank.
	ErrEmptyQuery = errors.New("query is required")

	// ErrMissingCredential is returned when the search proxy credential is
	// not configured. This is an operator error, never caller-fixable.
	ErrMissingCredential = errors.New("search proxy credential is not configured")
)

// UpstreamError carries the status and body of a failed scraping proxy call.
// StatusCode is 0 when the request never produced an HTTP response
// (transport error or timeout).
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upstream fetch failed: %s", e.Body)
	}
	return fmt.Sprintf("upstream fetch failed with status %d: %s", e.StatusCode, e.Body)
}
