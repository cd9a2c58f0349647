package apiary

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store and import failures.
type ErrorCode string

const (
	// CodeNotFound indicates an operation referenced an id with no record.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeConflict indicates a structural invariant would be violated,
	// e.g. a second frame in an occupied slot.
	CodeConflict ErrorCode = "CONFLICT"

	// CodeInvalidInput indicates malformed input: a bad backup document or
	// a record missing required fields.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Error is the typed error returned by the store, the backup importer and
// the editing workflow.
type Error struct {
	Code    ErrorCode
	Entity  string // "hive", "box", "frame", "inspection", "backup", ...
	ID      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Entity)
	if e.ID != "" {
		msg += " " + e.ID
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound creates a CodeNotFound error for entity id.
func NotFound(entity, id string) *Error {
	return &Error{Code: CodeNotFound, Entity: entity, ID: id, Message: "not found"}
}

// Conflict creates a CodeConflict error.
func Conflict(entity, id, message string) *Error {
	return &Error{Code: CodeConflict, Entity: entity, ID: id, Message: message}
}

// Invalid creates a CodeInvalidInput error.
func Invalid(entity, id, message string) *Error {
	return &Error{Code: CodeInvalidInput, Entity: entity, ID: id, Message: message}
}

// WrapInvalid creates a CodeInvalidInput error around a cause.
func WrapInvalid(entity, message string, err error) *Error {
	return &Error{Code: CodeInvalidInput, Entity: entity, Message: message, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound returns true if err is a not-found error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// IsConflict returns true if err is a conflict error.
func IsConflict(err error) bool {
	return CodeOf(err) == CodeConflict
}

// IsInvalidInput returns true if err is an invalid-input error.
func IsInvalidInput(err error) bool {
	return CodeOf(err) == CodeInvalidInput
}
