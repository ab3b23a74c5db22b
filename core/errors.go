package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// AuthError reports a failed authentication (missing credentials, deactivated account..).
type AuthError struct {
	message string
}

func NewAuthError(msg string) *AuthError {
	return &AuthError{message: msg}
}

func (err AuthError) Error() string {
	return err.message
}

// PermissionError reports an authenticated caller acting outside of their rights.
type PermissionError struct {
	message string
}

func NewPermissionError(msg string) *PermissionError {
	return &PermissionError{message: msg}
}

func (err PermissionError) Error() string {
	return err.message
}

type NotFoundError struct {
	message string
}

func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{message: msg}
}

func (err NotFoundError) Error() string {
	return err.message
}

// ConflictError reports a write that collides with the current state of a resource.
type ConflictError struct {
	message string
}

func NewConflictError(msg string) *ConflictError {
	return &ConflictError{message: msg}
}

func (err ConflictError) Error() string {
	return err.message
}

var ErrPermissionDenied = NewPermissionError("permission denied")

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
