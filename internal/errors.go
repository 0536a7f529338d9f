package internal

import (
	"errors"
	"fmt"
)

// AuthError represents an authentication rejection from the backend
// (401/403 or an explicit not-authenticated body).
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// APIError represents any other non-2xx response from the backend. The
// message is the best available: detail, then message, then status text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NetworkError represents a request that was sent but received no response.
// Callers must not treat it as proof the stored token is invalid.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: unable to reach the server: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// SetupError represents a request that could not be constructed or sent.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("request setup error: %v", e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is an authentication rejection.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsNetworkError reports whether err is a transport failure.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
