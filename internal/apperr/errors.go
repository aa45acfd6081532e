// Package apperr defines the error taxonomy shared by every slipbox layer.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedNote      = errors.New("malformed note")
	ErrInvalidNoteType    = errors.New("invalid note type")
	ErrFilenameFormat     = errors.New("invalid note filename")
	ErrNoteNotFound       = errors.New("note not found")
	ErrAmbiguousLookup    = errors.New("ambiguous note lookup")
	ErrDanglingReference  = errors.New("dangling reference")
	ErrMissingIdentifier  = errors.New("missing note identifier")
	ErrDuplicateID        = errors.New("duplicate note id")
	ErrInvalidNote        = errors.New("invalid note")
	ErrAlreadyExists      = errors.New("already exists")
	ErrLocked             = errors.New("repository is locked")
	ErrRepositoryNotFound = errors.New("no slipbox repository found")
)

// InvalidNoteTypeError reports a note type outside the configured enumeration.
type InvalidNoteTypeError struct {
	Type    string
	Allowed []string
}

func (e *InvalidNoteTypeError) Error() string {
	return fmt.Sprintf("%q is not a valid note type, choose one of: %s", e.Type, strings.Join(e.Allowed, ", "))
}

func (e *InvalidNoteTypeError) Is(target error) bool { return target == ErrInvalidNoteType }

// AmbiguousLookupError is returned when a fragment lookup matches more than
// one note. Candidates holds every matching filename.
type AmbiguousLookupError struct {
	Fragment   string
	Candidates []string
}

func (e *AmbiguousLookupError) Error() string {
	return fmt.Sprintf("more than one note found for %q: %s", e.Fragment, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousLookupError) Is(target error) bool { return target == ErrAmbiguousLookup }

// DanglingReferenceError reports a reference to an id that is not in the repository.
type DanglingReferenceError struct {
	From     string
	To       string
	Relation string // "parent" or "link"
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("note %s references missing %s %s", e.From, e.Relation, e.To)
}

func (e *DanglingReferenceError) Is(target error) bool { return target == ErrDanglingReference }

// ScanError ties a per-file failure to the file that caused it.
type ScanError struct {
	File string
	Err  error
}

func (e *ScanError) Error() string { return e.File + ": " + e.Err.Error() }

func (e *ScanError) Unwrap() error { return e.Err }
