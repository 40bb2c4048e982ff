package launchdarkly

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrMissingAPIKey = errors.New("LD_API_KEY not found in environment variables")

// APIError is returned for failed calls to the flags API. StatusCode is zero
// when the request never got a response.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func newStatusError(project string, status int) *APIError {
	switch status {
	case http.StatusUnauthorized:
		return &APIError{StatusCode: status, Message: "invalid or expired API key, check LD_API_KEY"}
	case http.StatusNotFound:
		return &APIError{StatusCode: status, Message: fmt.Sprintf("project '%s' not found", project)}
	default:
		return &APIError{StatusCode: status, Message: fmt.Sprintf("failed to fetch flags (HTTP %d)", status)}
	}
}

func newNetworkError(err error) *APIError {
	return &APIError{Message: fmt.Sprintf("network error: %v", err), Err: err}
}
