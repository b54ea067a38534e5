package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/ca-srg/saferestart/domain"
)

// ExitError carries the process exit status for a failed invocation.
// An empty Message means the outcome was already reported.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		if e.Message == "" {
			return e.Cause.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the process exit status for err
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return domain.ExitStatusOf(err)
}

// HandleExitError reports err on w and returns the exit status to use
func HandleExitError(w io.Writer, err error) int {
	if err == nil {
		return domain.ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Message == "" && exitErr.Cause == nil {
		return exitErr.Code
	}

	_, _ = fmt.Fprintln(w, "Error:", err.Error())
	return ExitCode(err)
}
