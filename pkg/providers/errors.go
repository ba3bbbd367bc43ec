package providers

import "fmt"

// NetworkError represents a transport-level failure: connection errors,
// timeouts, or unexpected HTTP status codes that do not indicate an
// authentication problem.
type NetworkError struct {
	// Provider is the name of the provider the request was sent to.
	Provider string

	// StatusCode is the HTTP status code (0 if the request never completed).
	StatusCode int

	// Message is the error message or response body excerpt.
	Message string

	// Cause is the underlying error (if any).
	Cause error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q request failed (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q request failed: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// AuthError represents an authentication rejection.
// This occurs when the provider rejects the API key or the credential
// lease (HTTP 401 or 403).
type AuthError struct {
	// Provider is the name of the provider that rejected authentication.
	Provider string

	// Message is the error message from the provider.
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// DecodeError represents a response shape mismatch.
// This occurs when the provider returns a body that cannot be decoded into
// the expected structure.
type DecodeError struct {
	// Provider is the name of the provider that returned the response.
	Provider string

	// RawResponse is the raw response body that failed to decode.
	RawResponse string

	// Cause is the underlying decode error.
	Cause error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("provider %q response decode error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// ConfigError represents missing or invalid startup configuration, or a
// failed credential exchange. During startup a ConfigError is fatal; during
// a poll it only skips that provider's fetch for the tick.
type ConfigError struct {
	// Provider is the name of the provider with invalid configuration
	// (empty for process-wide configuration errors).
	Provider string

	// Field is the configuration field or environment variable at fault.
	Field string

	// Message describes the configuration error.
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("configuration error for %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("provider %q configuration error for %q: %s", e.Provider, e.Field, e.Message)
}
