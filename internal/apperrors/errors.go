// Package apperrors provides the operation-scoped error type used across
// browserchat, plus the sentinel errors callers compare against.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when a send is attempted without an open connection.
	ErrNotConnected = errors.New("not connected")

	// ErrInvalidInput marks rejected configuration or user input.
	ErrInvalidInput = errors.New("invalid input")
)

// AppError carries the operation that failed alongside a readable message.
type AppError struct {
	Op      string // e.g. "Conn.Open"
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an error with no cause.
func New(op, message string) error {
	return &AppError{Op: op, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(op, format string, args ...any) error {
	return &AppError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches operation context to err.
func Wrap(err error, op, message string) error {
	return &AppError{Op: op, Message: message, Err: err}
}

// Wrapf attaches operation context and a formatted message to err.
func Wrapf(err error, op, format string, args ...any) error {
	return &AppError{Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// Op returns the operation recorded on the outermost AppError in err's chain.
func Op(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Op
	}
	return ""
}
