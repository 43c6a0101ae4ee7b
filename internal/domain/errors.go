package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable matches any *SourceError.
	ErrSourceUnavailable = errors.New("sensorstat: source unavailable")
	// ErrPersistence wraps local history store failures.
	ErrPersistence = errors.New("sensorstat: persistence error")
	// ErrNoData is returned by the trend renderer for an empty window.
	ErrNoData = errors.New("sensorstat: no data in window")
	// ErrNotFound means a group has no snapshot yet. It is the zero-baseline case.
	ErrNotFound = errors.New("sensorstat: snapshot not found")
)

// SourceError names the configured source that failed a fetch.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool { return target == ErrSourceUnavailable }

// MalformedRecordError reports a source row without a required field.
type MalformedRecordError struct {
	Index int
	Field string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed record %d: field %s: %v", e.Index, e.Field, e.Err)
	}
	return fmt.Sprintf("malformed record %d: missing %s", e.Index, e.Field)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// UnknownStatusCodeError is raised when a status code has no class.
type UnknownStatusCodeError struct {
	Code int
}

func (e *UnknownStatusCodeError) Error() string {
	return fmt.Sprintf("unknown status code %d", e.Code)
}
