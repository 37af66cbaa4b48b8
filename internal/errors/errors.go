// Package errors defines AppError, the classified error the admin API and CLI report,
// and the mapping from driver errors onto it.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an AppError. The admin API echoes it as the "error" field.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "not_found"
	ErrCodeConflict     ErrorCode = "conflict"
	ErrCodeValidation   ErrorCode = "validation"
	ErrCodeForeignKey   ErrorCode = "foreign_key"
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	ErrCodeForbidden    ErrorCode = "forbidden"
	// ErrCodeBusy covers lock contention: Postgres serialization failures and SQLITE_BUSY.
	ErrCodeBusy     ErrorCode = "busy"
	ErrCodeInternal ErrorCode = "internal"
	ErrCodeTimeout  ErrorCode = "timeout"
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError is an error with a code safe to show to API clients. Message is
// client facing; Cause stays server side and is reachable through errors.Is/As.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	// Field names the offending input, when there is one.
	Field string
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Temporary reports whether retrying the same request may succeed.
func (e *AppError) Temporary() bool {
	return e.Code == ErrCodeBusy || e.Code == ErrCodeTimeout
}

// NotFoundf returns a not_found error with a formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// ValidationField returns a validation error blaming field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Wrap classifies err. A nil err stays nil.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// CodeOf returns the code of the first AppError in err's chain, or "" when there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsNotFound reports whether err is classified not_found.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsValidation reports whether err is classified validation.
func IsValidation(err error) bool { return CodeOf(err) == ErrCodeValidation }

// GetField returns the Field of the first AppError in err's chain.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
