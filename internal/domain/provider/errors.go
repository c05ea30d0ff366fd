package provider

import (
	"errors"
	"fmt"
)

// ===============================================
// Provider Error Taxonomy
// ===============================================

// ErrorKind classifies a provider failure into the four conditions the
// chat core distinguishes.
type ErrorKind string

const (
	// ErrAuth: credential absent or rejected. User-actionable; the
	// reduced message directs the user to add a valid key.
	ErrAuth ErrorKind = "auth"
	// ErrNetwork: transport failure, including timeouts and cross-origin
	// restrictions.
	ErrNetwork ErrorKind = "network"
	// ErrFormat: the backend replied but the reply could not be parsed
	// into plain text.
	ErrFormat ErrorKind = "format"
	// ErrGeneric: anything else.
	ErrGeneric ErrorKind = "generic"
)

// Error is a classified provider failure. Message is the short
// user-facing string; Status and the wrapped error preserve backend
// diagnostics for the log-only channel.
type Error struct {
	Kind     ErrorKind
	Provider string
	Message  string
	Status   int
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: [%s] %s: %v", e.Provider, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: [%s] %s", e.Provider, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage returns the reduced string shown to the end user.
func (e *Error) UserMessage() string { return e.Message }

// NewAuthError reports a missing or rejected credential.
func NewAuthError(providerName, message string, err error) *Error {
	return &Error{Kind: ErrAuth, Provider: providerName, Message: message, Err: err}
}

// NewNetworkError reports a transport failure.
func NewNetworkError(providerName, message string, err error) *Error {
	return &Error{Kind: ErrNetwork, Provider: providerName, Message: message, Err: err}
}

// NewFormatError reports an unparseable backend reply.
func NewFormatError(providerName, message string, err error) *Error {
	return &Error{Kind: ErrFormat, Provider: providerName, Message: message, Err: err}
}

// NewGenericError reports any other backend failure.
func NewGenericError(providerName, message string, status int, err error) *Error {
	return &Error{Kind: ErrGeneric, Provider: providerName, Message: message, Status: status, Err: err}
}

// KindOf returns the classification of err, or ErrGeneric when err is
// not a provider error.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrGeneric
}

// IsProviderError reports whether err carries a provider classification.
func IsProviderError(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}
