package propinspect

import (
	"errors"
	"fmt"
)

// Error codes. The http package owns the status each one maps to.
const (
	EINVALID      = "invalid"      // malformed patch, bad document or failed precondition
	ENOTFOUND     = "not_found"    // inspection, template, deficiency or job missing
	ECONFLICT     = "conflict"     // id already taken
	EINTERNAL     = "internal"     // store or driver failure
	EUNAUTHORIZED = "unauthorized" // no caller identity
	EFORBIDDEN    = "forbidden"    // caller may not touch the document
	ERATELIMIT    = "rate_limit"   // caller is over its request budget
)

// internalMessage replaces the message of errors that are not *Error.
const internalMessage = "An internal error occurred."

// Error is returned by the engines, stores and services.
//
// Fields is keyed by RFC 6901 JSON pointers relative to the patch or
// document being processed, such as "/items/<id>/mainInputSelection". The
// http package prefixes them with the location of the attributes in the
// request body. Err is logged but never sent to clients.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf returns an error with the given code and a formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a code and message to a cause.
func WrapError(code string, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// ErrorWithFields reports several invalid attributes at once.
func ErrorWithFields(fields map[string]string) *Error {
	return &Error{Code: EINVALID, Message: "Validation failed", Fields: fields}
}

// FieldError reports a single invalid attribute at pointer. The message
// doubles as the field message.
func FieldError(pointer, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Code: EINVALID, Message: msg, Fields: map[string]string{pointer: msg}}
}

func Invalid(format string, args ...any) *Error  { return Errorf(EINVALID, format, args...) }
func NotFound(format string, args ...any) *Error { return Errorf(ENOTFOUND, format, args...) }
func Conflict(format string, args ...any) *Error { return Errorf(ECONFLICT, format, args...) }

// Internal wraps a store or driver failure.
func Internal(message string, err error) *Error { return WrapError(EINTERNAL, message, err) }

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// ErrorCode returns the code of err. Errors that are not *Error are
// internal; nil has no code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the message that is safe to show a client.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok {
		return e.Message
	}
	return internalMessage
}

// ErrorFields returns the per-pointer messages of err, if any.
func ErrorFields(err error) map[string]string {
	if e, ok := asError(err); ok {
		return e.Fields
	}
	return nil
}

func IsErrorCode(err error, code string) bool {
	return ErrorCode(err) == code
}
