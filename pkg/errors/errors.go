package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrInternal
	ErrDuplicateID
	ErrInvalidArgument
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// NewDuplicateID reports a content id registered twice. It halts loading.
func NewDuplicateID(id string) *AppError {
	return &AppError{
		Code:    ErrDuplicateID,
		Message: fmt.Sprintf("duplicate content id %q", id),
	}
}

// NewInvalidArgument reports a programmer error, such as a nil registry.
func NewInvalidArgument(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidArgument,
		Message: message,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or 0.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return 0
}

func IsNotFound(err error) bool {
	return CodeOf(err) == ErrNotFound
}

func IsDuplicateID(err error) bool {
	return CodeOf(err) == ErrDuplicateID
}

func IsInvalidArgument(err error) bool {
	return CodeOf(err) == ErrInvalidArgument
}
