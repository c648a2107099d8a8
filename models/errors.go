package models

import (
	"errors"
	"fmt"
)

// ErrNoCandidateMatched is returned when every selector in a cascade came up empty.
var ErrNoCandidateMatched = errors.New("no selector candidate matched")

// SessionError means no browser could be started. It aborts the run.
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("browser session: %v", e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// AdapterError is a failure scoped to one source adapter.
type AdapterError struct {
	Source Source
	Err    error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %s: %v", e.Source, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// FieldExtractionError describes a single field that could not be read.
// It never leaves the adapter; the field gets the N/A sentinel instead.
type FieldExtractionError struct {
	Field string
	Err   error
}

func (e *FieldExtractionError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldExtractionError) Unwrap() error { return e.Err }

// PersistenceError is a failure to write harvested data to disk or database.
type PersistenceError struct {
	Target string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Target, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
