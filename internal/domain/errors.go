package domain

import "fmt"

// ErrorCode is a stable machine-readable failure class surfaced to callers.
type ErrorCode int

const (
	CodeIllegalArgument     ErrorCode = 1010
	CodeObjectNotFound      ErrorCode = 1020
	CodeOperationFailed     ErrorCode = 1030
	CodeInvalidAccountState ErrorCode = 2010
	CodeInvalidPassword     ErrorCode = 2020
	CodeOperationNotAllowed ErrorCode = 2030
	CodeConcurrentUpdate    ErrorCode = 2040
)

// Error carries a stable code plus a caller-facing message.
// Two Errors match under errors.Is when their codes are equal, so services
// can attach context-specific messages without breaking classification.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithMessage returns a copy of the error carrying a more specific message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg}
}

var (
	ErrIllegalArgument     = &Error{Code: CodeIllegalArgument, Message: "illegal argument"}
	ErrObjectNotFound      = &Error{Code: CodeObjectNotFound, Message: "object not found"}
	ErrOperationFailed     = &Error{Code: CodeOperationFailed, Message: "operation failed"}
	ErrInvalidAccountState = &Error{Code: CodeInvalidAccountState, Message: "invalid account state"}
	ErrInvalidPassword     = &Error{Code: CodeInvalidPassword, Message: "trade password incorrect"}
	ErrOperationNotAllowed = &Error{Code: CodeOperationNotAllowed, Message: "operation not allowed"}
	ErrConcurrentUpdate    = &Error{Code: CodeConcurrentUpdate, Message: "system busy, please retry"}
)
