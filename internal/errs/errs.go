// Package errs defines the error taxonomy shared across the core: validation
// failures abort the operation with no state change, not-found errors trigger
// a refresh from source, and storage errors degrade to in-memory state.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrPlanExists is returned by SavePlan when a plan with the same name
	// already exists and force was not set.
	ErrPlanExists = errors.New("plan already exists")

	// ErrInvalidRange is returned by bulk session creation when the start
	// time is not strictly before the end time.
	ErrInvalidRange = errors.New("start time must be before end time")

	// ErrEmptySession is returned by EndSession when the active session has
	// no winners and the caller did not confirm.
	ErrEmptySession = errors.New("session has no winners")

	// ErrPrizeUnavailable is the allocator's sentinel for an empty or fully
	// assigned pool.
	ErrPrizeUnavailable = errors.New("prize unavailable")

	// ErrSessionsExist is returned by bulk session creation when the plan
	// already has sessions and the caller did not ask to replace them.
	ErrSessionsExist = errors.New("plan already has sessions")

	// ErrNoActiveSession is returned when an operation requires an active
	// session and none is selected.
	ErrNoActiveSession = errors.New("no active session selected")
)

// ValidationError reports bad operator input. The operation was aborted with
// no partial state change.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Validation builds a ValidationError for the given field.
func Validation(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError reports a reference to a plan, session or winner that no
// longer exists.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// NotFound builds a NotFoundError for the given entity kind and key.
func NotFound(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// StorageError wraps a persistence collaborator failure. Callers surface it
// once and keep serving from last-known in-memory state.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError for the given operation. Returns nil
// when err is nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorage reports whether err is a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
