package cli

import (
	"errors"
	"fmt"

	"naasprov/internal/types"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitFailure = 1 // The workflow or a step failed.
	ExitUsage   = 2 // Bad flags or configuration that stops a command before it starts.
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors that are not an ExitError exit with ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// setupErr wraps err for exit, keeping configuration errors on the usage exit code.
func setupErr(message string, err error) error {
	if errors.Is(err, types.ErrConfig) {
		return WrapExitError(ExitUsage, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}
