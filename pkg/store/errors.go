package store

import (
	"errors"
	"fmt"
	"net/http"
)

// Op names a store operation for error reporting.
type Op string

const (
	OpList   Op = "list"
	OpCreate Op = "create"
	OpSearch Op = "search"
	OpStatus Op = "set status"
	OpAccrue Op = "add elapsed"
	OpDelete Op = "delete"
	OpStats  Op = "statistics"
)

// ErrNotFound is wrapped by errors for tasks the store does not know.
var ErrNotFound = errors.New("task not found")

// StoreError reports a failed store operation. StatusCode is zero when the
// request never produced an HTTP response.
type StoreError struct {
	Op         Op
	TaskID     int
	StatusCode int
	Err        error
}

func (e *StoreError) Error() string {
	msg := string(e.Op)
	if e.TaskID != 0 {
		msg += fmt.Sprintf(" task %d", e.TaskID)
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error { return e.Err }

// ValidationError reports invalid input rejected before reaching the store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsNotFound reports whether err means the task does not exist.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var se *StoreError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
