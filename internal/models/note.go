// Package models defines the domain types for slipbox.
package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/starford/slipbox/internal/apperr"
	"github.com/starford/slipbox/internal/wikilink"
)

// TimeLayout is the on-disk timestamp format (YYYY-MM-DD HH:MM:SS).
const TimeLayout = time.DateTime

// FilenameSeparator separates the id from the title in a note filename.
const FilenameSeparator = " - "

// NoteExt is the extension of every note file.
const NoteExt = ".md"

// TypeReference is the only note type that carries a bibliography key.
const TypeReference = "Reference"

// Note is a single atomic note. It is a value loaded fresh for each operation.
type Note struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	LastUpdated time.Time `json:"last_updated"`
	Tags        []string  `json:"tags"`
	Parents     []string  `json:"parents"`
	Type        string    `json:"type"`
	Content     string    `json:"content"`
	Bibkey      string    `json:"bibkey,omitempty"`
}

// LinkedNotes returns the ids referenced from the content, in document order.
// It is derived on every call and never stored.
func (n *Note) LinkedNotes() []string {
	return wikilink.Extract(n.Content)
}

// Filename returns the canonical file name "<id> - <title>.md".
func (n *Note) Filename() string {
	return Filename(n.ID, n.Title)
}

// HasTag reports whether the note carries tag.
func (n *Note) HasTag(tag string) bool {
	return slices.Contains(n.Tags, tag)
}

// HasParent reports whether id is one of the note's declared parents.
func (n *Note) HasParent(id string) bool {
	return slices.Contains(n.Parents, id)
}

// LinksTo reports whether the content links to id.
func (n *Note) LinksTo(id string) bool {
	return slices.Contains(n.LinkedNotes(), id)
}

// IsReference reports whether the note is a bibliography reference.
func (n *Note) IsReference() bool {
	return n.Type == TypeReference
}

// String renders the short listing form, e.g. "[I] 1 - Alpha".
func (n *Note) String() string {
	initial := "?"
	if r, _ := utf8.DecodeRuneInString(n.Type); r != utf8.RuneError {
		initial = string(r)
	}
	return fmt.Sprintf("[%s] %s - %s", initial, n.ID, n.Title)
}

// Repr renders the debugging form, e.g. "Note(1, Inbox, Alpha)".
func (n *Note) Repr() string {
	return fmt.Sprintf("Note(%s, %s, %s)", n.ID, n.Type, n.Title)
}

// Clone returns a deep copy of the note.
func (n *Note) Clone() *Note {
	c := *n
	c.Tags = slices.Clone(n.Tags)
	c.Parents = slices.Clone(n.Parents)
	return &c
}

// Validate checks the invariants every stored note must satisfy.
func (n *Note) Validate(types TypeSet) error {
	if err := ValidateID(n.ID); err != nil {
		return err
	}
	if err := ValidateTitle(n.Title); err != nil {
		return err
	}
	if n.Date.IsZero() {
		return fmt.Errorf("%w: note %s has no date", apperr.ErrInvalidNote, n.ID)
	}
	if n.LastUpdated.Before(n.Date) {
		return fmt.Errorf("%w: note %s was updated (%s) before it was created (%s)",
			apperr.ErrInvalidNote, n.ID, n.LastUpdated.Format(TimeLayout), n.Date.Format(TimeLayout))
	}
	for _, s := range slices.Concat(n.Tags, n.Parents, []string{n.Bibkey}) {
		if !utf8.ValidString(s) {
			return fmt.Errorf("%w: note %s has a tag, parent or bibkey that is not valid UTF-8: %q", apperr.ErrInvalidNote, n.ID, s)
		}
	}
	return types.Check(n.Type)
}

// ValidateID rejects ids that cannot be encoded in a filename.
func ValidateID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: empty id", apperr.ErrInvalidNote)
	case !utf8.ValidString(id):
		return fmt.Errorf("%w: id %q is not valid UTF-8", apperr.ErrInvalidNote, id)
	case strings.Contains(id, FilenameSeparator), strings.ContainsAny(id, "/\\\n\r\t []|"):
		return fmt.Errorf("%w: id %q contains reserved characters", apperr.ErrInvalidNote, id)
	}
	return nil
}

// ValidateTitle rejects titles that cannot be part of a filename.
func ValidateTitle(title string) error {
	switch {
	case strings.TrimSpace(title) == "":
		return fmt.Errorf("%w: empty title", apperr.ErrInvalidNote)
	case !utf8.ValidString(title):
		return fmt.Errorf("%w: title %q is not valid UTF-8", apperr.ErrInvalidNote, title)
	case strings.ContainsAny(title, "/\\\n\r\x00"):
		return fmt.Errorf("%w: title %q contains path separators or line breaks", apperr.ErrInvalidNote, title)
	}
	return nil
}

// Filename builds the canonical file name for id and title.
func Filename(id, title string) string {
	return id + FilenameSeparator + title + NoteExt
}
