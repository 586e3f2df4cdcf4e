package detection

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means the detection backend cannot be reached.
	ErrUnavailable = errors.New("detection: service unavailable")

	// ErrEmptyFrame is returned for an empty or undecodable image.
	ErrEmptyFrame = errors.New("detection: empty frame")

	// ErrNoModel is returned when the local model file is missing.
	ErrNoModel = errors.New("detection: model file not found")
)

// APIError is a non-success response from the detection service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("detection: API error %d: %s", e.StatusCode, e.Message)
}

// IsServerError returns true for HTTP 5xx.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}
