// Package util provides utility functions and types for the pathhint listener.
//
// # Error Conventions
//
// This project follows a standardized error pattern across all packages:
//
//   - Sentinel errors (errors.New) for well-known, stable conditions
//     that callers check with errors.Is(). Example: ErrServerClosed.
//   - Structured error types for context-rich errors that carry
//     additional fields (e.g., BindError, HandlerError). Each type
//     implements Error(), Unwrap() (if wrapping), and Is().
//   - fmt.Errorf with %w for ad-hoc wrapping that adds context to an
//     existing error without introducing a new type.
//
// All custom error types must implement:
//
//	Error() string           – human-readable message
//	Unwrap() error           – if the type wraps another error
//	Is(target error) bool    – for errors.Is() compatibility
package util

import (
	"errors"
	"fmt"
)

// Common sentinel errors.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrConfigInvalid     = errors.New("invalid configuration")
	ErrIncompleteRequest = errors.New("incomplete request")
	ErrServerClosed      = errors.New("server closed")
)

// ConfigError represents a configuration-related error.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error at %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ConfigError) Is(target error) bool {
	if target == ErrConfigInvalid {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok || errors.Is(e.Cause, target)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with a cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// BindError is returned when the listening socket cannot be bound.
// It is fatal at startup.
type BindError struct {
	Address string
	Cause   error
}

// Error implements the error interface.
func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind %s: %v", e.Address, e.Cause)
}

// Unwrap returns the underlying error.
func (e *BindError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *BindError) Is(target error) bool {
	_, ok := target.(*BindError)
	return ok || errors.Is(e.Cause, target)
}

// NewBindError creates a new BindError.
func NewBindError(address string, cause error) *BindError {
	return &BindError{Address: address, Cause: cause}
}

// AcceptError wraps a failure to accept a single connection.
// The accept loop logs it and continues.
type AcceptError struct {
	Cause error
}

// Error implements the error interface.
func (e *AcceptError) Error() string {
	return fmt.Sprintf("accept failed: %v", e.Cause)
}

// Unwrap returns the underlying error.
func (e *AcceptError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *AcceptError) Is(target error) bool {
	_, ok := target.(*AcceptError)
	return ok || errors.Is(e.Cause, target)
}

// NewAcceptError creates a new AcceptError.
func NewAcceptError(cause error) *AcceptError {
	return &AcceptError{Cause: cause}
}

// ReadError represents a failure to read a complete request line.
// The connection is closed without a response.
type ReadError struct {
	RemoteAddr string
	Cause      error
}

// Error implements the error interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("read from %s: %v", e.RemoteAddr, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ReadError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ReadError) Is(target error) bool {
	_, ok := target.(*ReadError)
	return ok || errors.Is(e.Cause, target)
}

// NewReadError creates a new ReadError.
func NewReadError(remoteAddr string, cause error) *ReadError {
	return &ReadError{RemoteAddr: remoteAddr, Cause: cause}
}

// HandlerError represents a failed or panicking route handler.
type HandlerError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler for %s failed: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *HandlerError) Is(target error) bool {
	_, ok := target.(*HandlerError)
	return ok || errors.Is(e.Cause, target)
}

// NewHandlerError creates a new HandlerError.
func NewHandlerError(path string, cause error) *HandlerError {
	return &HandlerError{Path: path, Cause: cause}
}

// WriteError represents a failure to write the response. The response
// may have been partially delivered; there is no retry.
type WriteError struct {
	RemoteAddr string
	Written    int
	Cause      error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("write to %s failed after %d bytes: %v", e.RemoteAddr, e.Written, e.Cause)
}

// Unwrap returns the underlying error.
func (e *WriteError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *WriteError) Is(target error) bool {
	_, ok := target.(*WriteError)
	return ok || errors.Is(e.Cause, target)
}

// NewWriteError creates a new WriteError.
func NewWriteError(remoteAddr string, written int, cause error) *WriteError {
	return &WriteError{RemoteAddr: remoteAddr, Written: written, Cause: cause}
}

// IsConnectionScoped returns true if the error belongs to a single
// connection and must never stop the accept loop.
func IsConnectionScoped(err error) bool {
	if err == nil {
		return false
	}

	var readErr *ReadError
	var handlerErr *HandlerError
	var writeErr *WriteError

	return errors.As(err, &readErr) ||
		errors.As(err, &handlerErr) ||
		errors.As(err, &writeErr) ||
		errors.Is(err, ErrIncompleteRequest)
}
