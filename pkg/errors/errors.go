package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeRemote      ErrorType = "remote"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeLocalIO     ErrorType = "local_io"
	ErrorTypeMissingData ErrorType = "missing_data"
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeTimeout     ErrorType = "timeout"
)

// Error represents a failure with type information.
// Code carries the HTTP status when the failure came from a remote API (0 otherwise).
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Type, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Remote creates an error for a non-success HTTP status or a malformed response body
func Remote(code int, format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeRemote, Message: fmt.Sprintf(format, args...), Code: code}
}

// Auth creates an error for rejected credentials
func Auth(code int, format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeAuth, Message: fmt.Sprintf(format, args...), Code: code}
}

// LocalIO wraps a file write/delete failure
func LocalIO(err error, format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeLocalIO, Message: fmt.Sprintf(format, args...), Err: err}
}

// MissingData creates an error for an expected field that is absent
func MissingData(format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeMissingData, Message: fmt.Sprintf(format, args...)}
}

// Timeout creates an error for an operation that did not finish in time
func Timeout(err error, format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeTimeout, Message: fmt.Sprintf(format, args...), Err: err}
}

// Wrap attaches an underlying error to a typed error
func Wrap(t ErrorType, err error, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...), Err: err}
}

// TypeOf returns the ErrorType of the first typed error in err's chain, or "" if none
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// IsRemote reports whether err is a remote API failure (auth failures included)
func IsRemote(err error) bool {
	t := TypeOf(err)
	return t == ErrorTypeRemote || t == ErrorTypeAuth
}

// IsAuth reports whether err is a credential failure
func IsAuth(err error) bool {
	return TypeOf(err) == ErrorTypeAuth
}

// IsLocalIO reports whether err is a local filesystem failure
func IsLocalIO(err error) bool {
	return TypeOf(err) == ErrorTypeLocalIO
}

// IsMissingData reports whether err is caused by absent input data
func IsMissingData(err error) bool {
	return TypeOf(err) == ErrorTypeMissingData
}
