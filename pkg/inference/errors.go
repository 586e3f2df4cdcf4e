package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBaseURL is returned when the API base URL is empty.
	ErrNoBaseURL = errors.New("inference: base URL required")

	// ErrNoModel is returned when model is required but missing.
	ErrNoModel = errors.New("inference: model required")

	// ErrProviderUnavailable is returned when no provider is configured.
	ErrProviderUnavailable = errors.New("inference: provider unavailable")

	// ErrEmptyResponse is returned when the API returns no choices.
	ErrEmptyResponse = errors.New("inference: empty response")
)

// APIError represents an error response from an inference API.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
	Provider   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("inference [%s]: API error %d (%s): %s",
			e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("inference [%s]: API error %d: %s",
		e.Provider, e.StatusCode, e.Message)
}

// IsRateLimited returns true for HTTP 429.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsUnauthorized returns true for HTTP 401.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401
}

// IsServerError returns true for HTTP 5xx.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRetryable returns true if the request may succeed when repeated.
func (e *APIError) IsRetryable() bool {
	return e.IsRateLimited() || e.IsServerError()
}

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("inference [%s]: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider context.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}
