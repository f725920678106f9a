// Package clierr defines structured error types for CLI commands.
// Errors carry a machine-readable code, a human-readable message,
// and optional details for scripted consumers.
package clierr

import (
	"errors"
	"fmt"

	"github.com/stefanpenner/pomo/pkg/store"
)

// Error code constants: uppercase, underscore-separated, stable across minor versions.
const (
	TaskNotFound     = "TASK_NOT_FOUND"
	InvalidInput     = "INVALID_INPUT"
	InvalidStatus    = "INVALID_STATUS"
	InvalidTaskID    = "INVALID_TASK_ID"
	StoreUnavailable = "STORE_UNAVAILABLE"
	StoreRejected    = "STORE_REJECTED"
	ConfigError      = "CONFIG_ERROR"
	ConfirmationReq  = "CONFIRMATION_REQUIRED"
	InternalError    = "INTERNAL_ERROR"
)

// Error represents a structured CLI error with a machine-readable code.
type Error struct {
	Code    string
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// New creates an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetails returns the error with the given details map attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// ExitCode returns 2 for InternalError, 1 for all others.
func (e *Error) ExitCode() int {
	if e.Code == InternalError {
		return 2 //nolint:mnd // exit code 2 for internal errors
	}
	return 1
}

// FromStore maps store errors onto CLI codes. Other errors pass through.
func FromStore(err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}

	var ve *store.ValidationError
	if errors.As(err, &ve) {
		code := InvalidInput
		if ve.Field == "status" {
			code = InvalidStatus
		}
		return New(code, ve.Error()).WithDetails(map[string]any{"field": ve.Field})
	}

	var se *store.StoreError
	if errors.As(err, &se) {
		details := map[string]any{"op": string(se.Op)}
		if se.TaskID != 0 {
			details["id"] = se.TaskID
		}
		if se.StatusCode != 0 {
			details["status_code"] = se.StatusCode
		}
		switch {
		case store.IsNotFound(err):
			return Newf(TaskNotFound, "task #%d not found", se.TaskID).WithDetails(details)
		case se.StatusCode == 0 || se.StatusCode >= 500:
			return New(StoreUnavailable, se.Error()).WithDetails(details)
		default:
			return New(StoreRejected, se.Error()).WithDetails(details)
		}
	}
	return err
}

