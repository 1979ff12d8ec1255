// Package domainerrors provides coded errors for the ledger's public surface.
//
// Services return these so transports can map failures to protocol status
// codes without string matching. Stores return sentinel errors
// (pkg/platform/sentinel) which services translate into coded errors here.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a failure for callers.
type Code string

const (
	// CodeNotFound: the referenced policy or claim id is unknown.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized: the caller lacks the required role or is not the
	// record's holder.
	CodeUnauthorized Code = "unauthorized"
	// CodeInvalidArgument: malformed or out-of-range input (zero amounts,
	// empty principal, wrong payment amount, excessive claim amount).
	CodeInvalidArgument Code = "invalid_argument"
	// CodeInvalidState: the operation is not permitted from the record's
	// current status.
	CodeInvalidState Code = "invalid_state"
	// CodeExpired: the policy is past its end date.
	CodeExpired Code = "expired"
	// CodeAlreadySettled: the claim has already been finalized.
	CodeAlreadySettled Code = "already_settled"
	// CodeTimeout: the operation was aborted before completion.
	CodeTimeout Code = "timeout"
	// CodeInternal: infrastructure failure; not a caller mistake.
	CodeInternal Code = "internal"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf returns the code carried by err, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
