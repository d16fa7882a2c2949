// Package dErrors provides coded domain errors shared across all services.
//
// Services construct errors with New/Newf or translate infrastructure errors
// with Wrap; transport layers map codes to HTTP statuses with HasCode. Field
// validation failures carry the 1-based index of the offending field so
// callers can resubmit with a precise fix.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and assertions.
type Code string

const (
	CodeValidation         Code = "validation"
	CodeInvalidInput       Code = "invalid_input"
	CodeBadRequest         Code = "bad_request"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeResourceExhausted  Code = "resource_exhausted"
	CodeTransferFailed     Code = "transfer_failed"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal"
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is a coded error with an optional wrapped cause and field index.
type Error struct {
	Code  Code
	Msg   string
	Field int // 1-based offending field index, 0 when not applicable
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded domain error.
func New(code Code, msg string) error {
	return &Error{Code: code, Msg: msg}
}

// Newf constructs a coded domain error with formatting.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// NewField constructs a validation error pointing at a specific field.
func NewField(code Code, field int, msg string) error {
	return &Error{Code: code, Msg: msg, Field: field}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Msg: msg, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		de = nil
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability in tests.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// FieldIndex returns the 1-based field index attached to err, or 0.
func FieldIndex(err error) int {
	var de *Error
	if errors.As(err, &de) {
		return de.Field
	}
	return 0
}
