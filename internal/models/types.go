package models

import (
	"slices"

	"github.com/starford/slipbox/internal/apperr"
)

// DefaultNoteTypes is the enumeration used when a repository configures none.
var DefaultNoteTypes = TypeSet{"Inbox", "Archive", "Reference"}

// TypeSet is the fixed enumeration of note types a repository accepts.
type TypeSet []string

// Contains reports whether t is a member of the set.
func (s TypeSet) Contains(t string) bool {
	return slices.Contains(s, t)
}

// Check returns an *apperr.InvalidNoteTypeError when t is not a member.
func (s TypeSet) Check(t string) error {
	if s.Contains(t) {
		return nil
	}
	return &apperr.InvalidNoteTypeError{Type: t, Allowed: slices.Clone(s)}
}
