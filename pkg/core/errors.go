package core

import (
	"fmt"
)

// Error is the error shape shared by the voice client and the gateway.
type Error struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Param     string    `json:"param,omitempty"`
	Code      string    `json:"code,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors.
type ErrorType string

const (
	// ErrDevice covers capture/playback hardware failures: device busy,
	// permission denied, backend init failure. Never retried.
	ErrDevice ErrorType = "device_error"

	// ErrTransport covers the streaming connection: dial failure, dropped
	// mid-session, protocol error frames. Recovery is user-initiated.
	ErrTransport ErrorType = "transport_error"

	// ErrToken covers token issuance: missing provider configuration or a
	// failed ephemeral exchange. Surfaced before any connection is attempted.
	ErrToken ErrorType = "token_error"

	// ErrParse covers malformed context data. Callers degrade gracefully and
	// should rarely surface this to users.
	ErrParse ErrorType = "parse_error"

	ErrInvalidRequest ErrorType = "invalid_request_error"
	ErrAuthentication ErrorType = "authentication_error"
	ErrNotFound       ErrorType = "not_found_error"
	ErrInternal       ErrorType = "internal_error"
)

// NewDeviceError creates a device error.
func NewDeviceError(message string) *Error {
	return &Error{Type: ErrDevice, Message: message}
}

// NewTransportError creates a transport error.
func NewTransportError(message string) *Error {
	return &Error{Type: ErrTransport, Message: message}
}

// NewTokenError creates a token issuance error.
func NewTokenError(message string) *Error {
	return &Error{Type: ErrToken, Message: message}
}

// NewParseError creates a parse error.
func NewParseError(message string) *Error {
	return &Error{Type: ErrParse, Message: message}
}

// NewInvalidRequestError creates an invalid request error.
func NewInvalidRequestError(message string) *Error {
	return &Error{Type: ErrInvalidRequest, Message: message}
}

// NewInvalidRequestErrorWithParam creates an invalid request error with a parameter.
func NewInvalidRequestErrorWithParam(message, param string) *Error {
	return &Error{Type: ErrInvalidRequest, Message: message, Param: param}
}

// NewAuthenticationError creates an authentication error.
func NewAuthenticationError(message string) *Error {
	return &Error{Type: ErrAuthentication, Message: message}
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(message string) *Error {
	return &Error{Type: ErrNotFound, Message: message}
}

// NewInternalError creates an internal error.
func NewInternalError(message string) *Error {
	return &Error{Type: ErrInternal, Message: message}
}

// IsRetryable reports whether retrying could help. Voice sessions are
// short-lived, so nothing in this core retries automatically; callers use
// this only to decide user-facing messaging.
func (e *Error) IsRetryable() bool {
	return e.Type == ErrTransport
}
