package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownStation is returned when a station id is not in the loaded station list.
	ErrUnknownStation = errors.New("unknown station")

	// ErrNotArray is returned when a document's top-level value is not a JSON array.
	ErrNotArray = errors.New("document is not a JSON array")

	// ErrSchemaMismatch is returned when a non-empty document contains no
	// record that matches the canonical schema.
	ErrSchemaMismatch = errors.New("no record matches the canonical schema")

	errMissing = errors.New("missing")
)

// LoadErrorKind classifies why a document load failed.
type LoadErrorKind string

const (
	LoadErrorFetch   LoadErrorKind = "fetch"
	LoadErrorStatus  LoadErrorKind = "status"
	LoadErrorDecode  LoadErrorKind = "decode"
	LoadErrorSchema  LoadErrorKind = "schema"
	LoadErrorTimeout LoadErrorKind = "timeout"
)

// LoadError reports a failed document load. The store that produced it keeps
// whatever snapshot it held before the call.
type LoadError struct {
	Store  string
	Source string
	Kind   LoadErrorKind
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s from %s: %s: %v", e.Store, e.Source, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// MalformedRecord describes a document record that was skipped during parsing.
type MalformedRecord struct {
	Index  int
	Field  string
	Reason string
}

func (m MalformedRecord) Error() string {
	if m.Field == "" {
		return fmt.Sprintf("record %d: %s", m.Index, m.Reason)
	}
	return fmt.Sprintf("record %d: field %q: %s", m.Index, m.Field, m.Reason)
}

// ParseReport summarizes one document parse.
type ParseReport struct {
	Total      int
	Accepted   int
	Skipped    []MalformedRecord
	Duplicates int
}
