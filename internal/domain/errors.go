package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an operation failure. Services return *Error values
// carrying exactly one code; callers branch on CodeOf rather than message text.
type ErrorCode string

const (
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	CodeAlreadyVerified ErrorCode = "ALREADY_VERIFIED"
	CodeDuplicateItem   ErrorCode = "DUPLICATE_ITEM"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeInvalidState    ErrorCode = "INVALID_STATE"
	CodePaymentMismatch ErrorCode = "PAYMENT_MISMATCH"
	CodeNoDispute       ErrorCode = "NO_DISPUTE"
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeInternal        ErrorCode = "INTERNAL"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func NewErrorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a code and context to a collaborator error. The wrapped
// error stays reachable through errors.Is / errors.As.
func WrapError(err error, code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the classification from err, unwrapping as needed.
// Errors without a code report CodeInternal.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
