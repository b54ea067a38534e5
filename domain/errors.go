package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents the type of domain error
type ErrorCode string

const (
	// ErrCodePreconditionAbort indicates an expected, non-fatal abort that a later invocation resolves
	ErrCodePreconditionAbort ErrorCode = "PRECONDITION_ABORT"

	// ErrCodeAdminCommand indicates the admin tool exited with a non-zero status
	ErrCodeAdminCommand ErrorCode = "ADMIN_COMMAND"

	// ErrCodeFlagStoreIO indicates the restart flag location could not be read or written
	ErrCodeFlagStoreIO ErrorCode = "FLAG_STORE_IO"

	// ErrCodeConfirmTimeout indicates the server did not reach quiescence before the deadline
	ErrCodeConfirmTimeout ErrorCode = "CONFIRM_TIMEOUT"

	// ErrCodeInvalidInput indicates that the input provided is invalid
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrCodeRepository indicates a repository operation error
	ErrCodeRepository ErrorCode = "REPOSITORY_ERROR"

	// ErrCodeInvalidState indicates an invalid state transition
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"

	// ErrCodeCSVExport indicates a CSV export-related error
	ErrCodeCSVExport ErrorCode = "CSV_EXPORT_ERROR"

	// ErrCodeFileOperation indicates a file operation error
	ErrCodeFileOperation ErrorCode = "FILE_OPERATION_ERROR"
)

// Process exit codes surfaced by the controller. Values follow sysexits(3)
// where one fits; 124 mirrors timeout(1).
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitIOError     = 74
	ExitTempFail    = 75
	ExitConfigError = 78
	ExitTimeout     = 124
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error
func (e *DomainError) WithDetails(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// NewDomainErrorWithCause creates a new domain error with an underlying cause
func NewDomainErrorWithCause(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// AdminCommandError is returned when the admin tool exits with a non-zero status.
type AdminCommandError struct {
	// Command is the invoked command line with credentials redacted
	Command string

	// ExitStatus is the process exit code
	ExitStatus int

	// RawOutput is the combined stdout/stderr of the failed invocation
	RawOutput string
}

// Error implements the error interface
func (e *AdminCommandError) Error() string {
	out := strings.TrimSpace(e.RawOutput)
	if out == "" {
		return fmt.Sprintf("[%s] %q exited with status %d", ErrCodeAdminCommand, e.Command, e.ExitStatus)
	}
	return fmt.Sprintf("[%s] %q exited with status %d: %s", ErrCodeAdminCommand, e.Command, e.ExitStatus, out)
}

// NewAdminCommandError creates an admin command error
func NewAdminCommandError(command string, exitStatus int, rawOutput string) *AdminCommandError {
	return &AdminCommandError{
		Command:    command,
		ExitStatus: exitStatus,
		RawOutput:  rawOutput,
	}
}

// StepError reports the restart step that failed and the exit status it produced.
type StepError struct {
	Step       string
	ExitStatus int
	Err        error
}

// Error implements the error interface
func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("step %q failed with status %d: %v", e.Step, e.ExitStatus, e.Err)
	}
	return fmt.Sprintf("step %q failed with status %d", e.Step, e.ExitStatus)
}

// Unwrap returns the underlying error
func (e *StepError) Unwrap() error {
	return e.Err
}

// NewStepError wraps err as a failure of the named step. The exit status is
// taken from err when it carries one, ExitFailure otherwise.
func NewStepError(step string, err error) *StepError {
	return &StepError{
		Step:       step,
		ExitStatus: ExitStatusOf(err),
		Err:        err,
	}
}

// ExitStatusOf extracts the process exit status carried by err.
func ExitStatusOf(err error) int {
	if err == nil {
		return ExitOK
	}

	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.ExitStatus
	}

	var adminErr *AdminCommandError
	if errors.As(err, &adminErr) {
		if adminErr.ExitStatus == 0 {
			return ExitFailure
		}
		return adminErr.ExitStatus
	}

	switch GetErrorCode(err) {
	case ErrCodePreconditionAbort:
		return ExitTempFail
	case ErrCodeFlagStoreIO:
		return ExitIOError
	case ErrCodeConfirmTimeout:
		return ExitTimeout
	case ErrCodeInvalidInput:
		return ExitConfigError
	}
	return ExitFailure
}

// Common domain errors

// ErrInvalidInput creates an invalid input error
func ErrInvalidInput(field string, reason string) *DomainError {
	return NewDomainError(ErrCodeInvalidInput, fmt.Sprintf("invalid %s: %s", field, reason)).
		WithDetails("field", field).
		WithDetails("reason", reason)
}

// ErrRepository creates a repository error
func ErrRepository(operation string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeRepository, fmt.Sprintf("repository error in %s", operation), err).
		WithDetails("operation", operation)
}

// ErrInvalidState creates an invalid state error
func ErrInvalidState(entity string, currentState string, attemptedAction string) *DomainError {
	return NewDomainError(ErrCodeInvalidState,
		fmt.Sprintf("invalid state transition for %s: cannot %s in state %s", entity, attemptedAction, currentState)).
		WithDetails("entity", entity).
		WithDetails("currentState", currentState).
		WithDetails("attemptedAction", attemptedAction)
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	var adminErr *AdminCommandError
	if errors.As(err, &adminErr) {
		return ErrCodeAdminCommand
	}
	return ""
}

// Restart precondition errors

// ErrClientsConnected creates the abort raised while client sessions are active
func ErrClientsConnected() *DomainError {
	return NewDomainError(ErrCodePreconditionAbort, "clients are connected, restart deferred").
		WithDetails("reason", "clients_connected")
}

// ErrNothingToDo creates the abort raised when no restart is pending
func ErrNothingToDo(reason string) *DomainError {
	return NewDomainError(ErrCodePreconditionAbort, fmt.Sprintf("nothing to do: %s", reason)).
		WithDetails("reason", reason)
}

// Flag store errors

// ErrFlagStoreIO creates a restart flag I/O error
func ErrFlagStoreIO(operation string, path string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeFlagStoreIO, fmt.Sprintf("restart flag error in %s", operation), err).
		WithDetails("operation", operation).
		WithDetails("path", path)
}

// Confirmation errors

// ErrConfirmTimeout creates the error raised when quiescence is not observed in time
func ErrConfirmTimeout(clients, openResources, expectedResources int, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeConfirmTimeout, "server did not return to a quiescent state", err).
		WithDetails("clients", clients).
		WithDetails("openResources", openResources).
		WithDetails("expectedResources", expectedResources)
}

// CSV Export errors

// ErrCSVExportWithCause creates a CSV export error with cause
func ErrCSVExportWithCause(operation string, reason string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeCSVExport, fmt.Sprintf("CSV export error in %s: %s", operation, reason), err).
		WithDetails("operation", operation).
		WithDetails("reason", reason)
}

// File operation errors

// ErrFileOperationWithCause creates a file operation error with cause
func ErrFileOperationWithCause(operation string, path string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeFileOperation, fmt.Sprintf("file operation error in %s", operation), err).
		WithDetails("operation", operation).
		WithDetails("path", path)
}

// ErrPathTraversal creates a path traversal error
func ErrPathTraversal(path string) *DomainError {
	return NewDomainError(ErrCodeFileOperation, "path contains directory traversal").
		WithDetails("path", path).
		WithDetails("securityViolation", "directory_traversal")
}
