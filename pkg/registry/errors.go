package registry

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrConfig indicates a provision config failed validation.
	ErrConfig = errors.New("configuration error")

	// ErrDuplicateName indicates the connection name is already registered.
	ErrDuplicateName = errors.New("duplicate connection name")

	// ErrConnection indicates the connection could not be built or probed.
	ErrConnection = errors.New("connection error")

	// ErrNotFound indicates no connection is registered under a name.
	ErrNotFound = errors.New("connection not found")
)

// ConfigError reports an invalid provision config.
type ConfigError struct {
	// Name is the connection name the config was for, if known
	Name string
	// Message is the validator's description of the problem
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Name != "" {
		msg += " for connection " + e.Name
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// DuplicateNameError reports a name that is already registered or being
// provisioned.
type DuplicateNameError struct {
	Name string
}

// Error returns a human-readable error message.
func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("a connection named %s already exists", e.Name)
}

// Is reports whether target matches this error type.
func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}

// ConnectionError reports a connection that could not be opened or probed.
type ConnectionError struct {
	// Name is the connection name
	Name string
	// Cause is the driver error
	Cause error
}

// Error returns a human-readable error message.
func (e *ConnectionError) Error() string {
	msg := "connection error"
	if e.Name != "" {
		msg += " for " + e.Name
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// NotFoundError reports a lookup of an unregistered name.
type NotFoundError struct {
	Name string
}

// Error returns a human-readable error message.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no connection named %s", e.Name)
}

// Is reports whether target matches this error type.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
