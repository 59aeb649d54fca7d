// Package werror implements the single failure-carrier error type used
// throughout this module: an error wrapped with a formatted, user-facing
// message.
package werror

import (
	"errors"
	"fmt"
)

// baseError implements a basic error container.
type baseError struct {
	err error
}

func (e *baseError) Error() string { return e.err.Error() }
func (e *baseError) Unwrap() error { return e.err }

// BaseError implements an error container with a user-facing message.
type BaseError struct {
	message string
	baseError
}

// Message returns the user-facing error message.
func (e *BaseError) Message() string { return e.message }

// WrapErr wraps err with a message built from a.
// Returns nil if err is nil.
func WrapErr(err error, a ...any) error {
	if err == nil {
		return nil
	}
	return wrap(err, fmt.Sprint(a...))
}

// WrapErrSuffix wraps err with a message built from a, followed by err
// itself. Returns nil if err is nil.
func WrapErrSuffix(err error, a ...any) error {
	if err == nil {
		return nil
	}
	return wrap(err, fmt.Sprintln(append(a, err)...))
}

// WrapErrf wraps err with a formatted message. Returns nil if err is nil.
func WrapErrf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	return wrap(err, fmt.Sprintf(format, a...))
}

func wrap(err error, message string) *BaseError {
	return &BaseError{message, baseError{err}}
}

// AsBaseError reports whether err is, or wraps, a *BaseError, storing it
// in target if so.
func AsBaseError(err error, target **BaseError) bool {
	var e *BaseError
	if errors.As(err, &e) {
		*target = e
		return true
	}
	return false
}

// Strip returns the user-facing message of err if it is a *BaseError,
// or err.Error() otherwise. This is the Go equivalent of
// exec_scripting.cpp's translate_failure: it prevents a generic wrapper
// prefix from leaking into a caller that only wants the bare message.
func Strip(err error) string {
	if err == nil {
		return ""
	}
	var e *BaseError
	if AsBaseError(err, &e) {
		return e.Message()
	}
	return err.Error()
}
