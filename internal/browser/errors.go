package browser

import (
	"fmt"
	"time"
)

// FetchTimeoutError is returned when the main navigation does not complete
// within the navigation timeout.
type FetchTimeoutError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *FetchTimeoutError) Error() string {
	return fmt.Sprintf("navigation to %s timed out after %s", e.URL, e.Timeout)
}

func (e *FetchTimeoutError) Unwrap() error { return e.Err }

// FetchHTTPError is returned when the main navigation responds with a status
// of 400 or above.
type FetchHTTPError struct {
	URL        string
	StatusCode int
}

func (e *FetchHTTPError) Error() string {
	return fmt.Sprintf("navigation to %s failed with HTTP status %d", e.URL, e.StatusCode)
}

// FetchNoResponseError is returned when the browser produced no response for
// the main navigation (DNS failure, refused connection, aborted load).
type FetchNoResponseError struct {
	URL string
	Err error
}

func (e *FetchNoResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no response for %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("no response for %s", e.URL)
}

func (e *FetchNoResponseError) Unwrap() error { return e.Err }

// checkStatus maps a navigation status to a fetch error.
func checkStatus(rawURL string, status int, gotResponse bool) error {
	if !gotResponse {
		return &FetchNoResponseError{URL: rawURL}
	}
	if status >= 400 {
		return &FetchHTTPError{URL: rawURL, StatusCode: status}
	}
	return nil
}
