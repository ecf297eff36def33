package services

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrRunNotFound     = errors.New("run not found")
	ErrRunFull         = errors.New("this run is full")
	ErrAlreadyJoined   = errors.New("you have already joined this run")
	ErrRunInPast       = errors.New("cannot join a run that has already started")
)

// GenericRetryMessage is what callers see when the store fails.
const GenericRetryMessage = "Something went wrong, please try again."

// FieldError is one violation found while validating a form.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violation plus the submitted values so the
// caller can redisplay the form. Error() reports the first violation only.
type ValidationError struct {
	Errors []FieldError
	Values *RunFields
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	return e.Errors[0].Message
}

// First returns the violation surfaced to the caller.
func (e *ValidationError) First() FieldError {
	if len(e.Errors) == 0 {
		return FieldError{}
	}
	return e.Errors[0]
}

// PersistenceError wraps a store failure. The cause is for logs only.
type PersistenceError struct {
	Op     string
	Err    error
	Values *RunFields
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Message is the caller-facing text; it never includes the cause.
func (e *PersistenceError) Message() string {
	return GenericRetryMessage
}

func persistErr(op string, err error, values *RunFields) error {
	return &PersistenceError{Op: op, Err: err, Values: values}
}
