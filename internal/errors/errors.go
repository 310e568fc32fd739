package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/weeklit/internal/logger"
)

var (
	// ErrInvalidInput marks malformed or missing request fields.
	ErrInvalidInput = stderrors.New("invalid input")
	// ErrNotFound marks a referenced habit or week that does not exist.
	ErrNotFound = stderrors.New("not found")
	// ErrInvalidOperation marks a well-formed request that breaks a domain rule.
	ErrInvalidOperation = stderrors.New("invalid operation")
	// ErrStorage marks a persistence failure unrelated to the caller's input.
	ErrStorage = stderrors.New("storage failure")
)

// InvalidInput returns an error wrapping ErrInvalidInput
func InvalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// NotFound returns an error wrapping ErrNotFound
func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// InvalidOperation returns an error wrapping ErrInvalidOperation
func InvalidOperation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}

// StorageError reports a failed persistence operation. It matches both
// ErrStorage and the underlying cause with errors.Is.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage, e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// Storage wraps err as a StorageError for the named operation
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// IsClientError reports whether err was caused by the caller rather than the system
func IsClientError(err error) bool {
	return stderrors.Is(err, ErrInvalidInput) ||
		stderrors.Is(err, ErrNotFound) ||
		stderrors.Is(err, ErrInvalidOperation)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
