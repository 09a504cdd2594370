// Package errs defines the error taxonomy shared across portico's HTTP
// surface. Handlers wrap failures in these types and the httputil layer maps
// them to status codes and stable error codes in one place.
package errs

import "fmt"

// NotFoundError indicates a missing resource (unknown or inactive provider,
// absent user). Maps to HTTP 404.
type NotFoundError struct {
	Code    string
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// NewNotFound creates a NotFoundError with a stable machine code.
func NewNotFound(code, message string) *NotFoundError {
	return &NotFoundError{Code: code, Message: message}
}

// ValidationError indicates malformed input. Maps to HTTP 400 with
// field-level detail when available.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidation creates a ValidationError without field detail.
func NewValidation(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// NewFieldValidation creates a ValidationError carrying per-field messages.
func NewFieldValidation(message string, fields map[string]string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

// ForbiddenError indicates an authenticated caller lacking the required role.
// Maps to HTTP 403.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// NewForbidden creates a ForbiddenError.
func NewForbidden(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

// AuthenticationError indicates bad or missing credentials. Maps to HTTP 401.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

// NewAuthentication creates an AuthenticationError.
func NewAuthentication(message string) *AuthenticationError {
	return &AuthenticationError{Message: message}
}

// AuthorizationError indicates a policy denial during the SSO flow (e.g.
// auto-provisioning disabled for an unknown user). Never surfaced as a
// structured response to the browser; the callback path collapses it into a
// redirect reason code.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// NewAuthorization creates an AuthorizationError.
func NewAuthorization(format string, args ...interface{}) *AuthorizationError {
	return &AuthorizationError{Message: fmt.Sprintf(format, args...)}
}
