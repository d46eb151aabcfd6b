package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeFatalConfig         ErrorType = "fatal_config"
	ErrorTypeTransientStructural ErrorType = "transient_structural"
	ErrorTypeDriver              ErrorType = "driver"
	ErrorTypeStorage             ErrorType = "storage"
	ErrorTypeAuth                ErrorType = "auth"
	ErrorTypeNotFound            ErrorType = "not_found"
	ErrorTypeUnknown             ErrorType = "unknown"
)

// Error is a typed error carrying the failing operation and its cause
type Error struct {
	Type    ErrorType
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error without an underlying cause
func New(t ErrorType, op, message string) *Error {
	return &Error{Type: t, Op: op, Message: message}
}

// Wrap attaches a type and operation to err. A nil err yields nil.
func Wrap(err error, t ErrorType, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Type: t, Op: op, Message: message, Err: err}
}

// TypeOf returns the type of the first *Error in err's chain
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries the given type anywhere in its chain
func IsType(err error, t ErrorType) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Type == t {
			return true
		}
		err = e.Err
	}
	return false
}

// IsFatalConfig reports whether err is a configuration failure
func IsFatalConfig(err error) bool {
	return IsType(err, ErrorTypeFatalConfig)
}

// IsTransientStructural reports whether err is a whole-list staleness condition
func IsTransientStructural(err error) bool {
	return IsType(err, ErrorTypeTransientStructural)
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeTransientStructural, ErrorTypeDriver:
		return true
	case ErrorTypeFatalConfig, ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeStorage:
		return false
	default:
		return false
	}
}
