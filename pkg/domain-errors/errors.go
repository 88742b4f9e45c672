// Package domainerrors defines coded errors that cross service boundaries.
//
// Services attach a Code to every error they return; transport maps codes to
// HTTP statuses without inspecting error text. Import as dErrors:
//
//	dErrors "retroboard/pkg/domain-errors"
package domainerrors

import "errors"

// Code classifies an error for transport mapping and conflict accounting.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeValidation   Code = "validation_error"
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal_error"

	// Domain-specific rejections. All map to HTTP 409; clients branch on the
	// code to explain which rule fired.
	CodeInvariantViolation   Code = "invariant_violation"
	CodeBoardClosed          Code = "board_closed"
	CodeCardLimitReached     Code = "card_limit_reached"
	CodeReactionLimitReached Code = "reaction_limit_reached"
	CodeCircularRelationship Code = "circular_relationship"
	CodeChildCannotBeParent  Code = "child_cannot_be_parent"
	CodeParentCannotBeChild  Code = "parent_cannot_be_child"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is treats two domain errors with the same code as equivalent.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// New constructs a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf extracts the code from an error chain. Unclassified errors report
// CodeInternal so transport never guesses a safer status than warranted.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the error chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
