package places

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned by NewFetcher when no credential is configured.
var ErrMissingAPIKey = errors.New("places: api key is required")

// FetchError reports the page at which a region's pagination failed.
// No matches from earlier pages accompany it.
type FetchError struct {
	Region     Region
	Page       int
	StatusCode int // 0 when no HTTP response was received
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %q page %d (HTTP %d): %v", string(e.Region), e.Page, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("fetch %q page %d: %v", string(e.Region), e.Page, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// ServiceError is a failure reported in the response body rather than by the
// HTTP status, e.g. REQUEST_DENIED with an error_message.
type ServiceError struct {
	Status  string
	Message string
}

func (e *ServiceError) Error() string {
	switch {
	case e.Message == "":
		return fmt.Sprintf("service status %s", e.Status)
	case e.Status == "":
		return fmt.Sprintf("service error: %s", e.Message)
	default:
		return fmt.Sprintf("service status %s: %s", e.Status, e.Message)
	}
}
