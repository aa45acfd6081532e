package models

import (
	"errors"
	"testing"
	"time"

	"github.com/starford/slipbox/internal/apperr"
)

func validNote() *Note {
	d := time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local)
	return &Note{
		ID:          "1",
		Title:       "Alpha",
		Date:        d,
		LastUpdated: d,
		Type:        "Inbox",
	}
}

func TestNote_ValidateOK(t *testing.T) {
	if err := validNote().Validate(DefaultNoteTypes); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestNote_ValidateInvalidType(t *testing.T) {
	n := validNote()
	n.Type = "Journal"
	err := n.Validate(DefaultNoteTypes)
	if !errors.Is(err, apperr.ErrInvalidNoteType) {
		t.Fatalf("err = %v, want ErrInvalidNoteType", err)
	}
	var typeErr *apperr.InvalidNoteTypeError
	if !errors.As(err, &typeErr) || typeErr.Type != "Journal" {
		t.Errorf("expected InvalidNoteTypeError for Journal, got %#v", err)
	}
}

func TestNote_ValidateUpdatedBeforeCreated(t *testing.T) {
	n := validNote()
	n.LastUpdated = n.Date.Add(-time.Second)
	if err := n.Validate(DefaultNoteTypes); !errors.Is(err, apperr.ErrInvalidNote) {
		t.Errorf("err = %v, want ErrInvalidNote", err)
	}
}

func TestNote_ValidateTitle(t *testing.T) {
	cases := []string{"", "   ", "a/b", "line\nbreak", "B\xff"}
	for _, title := range cases {
		n := validNote()
		n.Title = title
		if err := n.Validate(DefaultNoteTypes); !errors.Is(err, apperr.ErrInvalidNote) {
			t.Errorf("title %q: err = %v, want ErrInvalidNote", title, err)
		}
	}
}

func TestNote_ValidateRejectsInvalidUTF8(t *testing.T) {
	n := validNote()
	n.Tags = []string{"ok", "t\xfe"}
	if err := n.Validate(DefaultNoteTypes); !errors.Is(err, apperr.ErrInvalidNote) {
		t.Errorf("tag: err = %v, want ErrInvalidNote", err)
	}
	n = validNote()
	n.Parents = []string{"\xff"}
	if err := n.Validate(DefaultNoteTypes); !errors.Is(err, apperr.ErrInvalidNote) {
		t.Errorf("parent: err = %v, want ErrInvalidNote", err)
	}
}

func TestValidateID(t *testing.T) {
	for _, id := range []string{"1", "20240101120000", "abc-1"} {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q) = %v", id, err)
		}
	}
	for _, id := range []string{"", "1 - 2", "a/b", "[[1]]", "1\xff"} {
		if err := ValidateID(id); err == nil {
			t.Errorf("ValidateID(%q) should fail", id)
		}
	}
}

func TestNote_DisplayForms(t *testing.T) {
	n := validNote()
	if got := n.String(); got != "[I] 1 - Alpha" {
		t.Errorf("String = %q", got)
	}
	if got := n.Repr(); got != "Note(1, Inbox, Alpha)" {
		t.Errorf("Repr = %q", got)
	}
	if got := n.Filename(); got != "1 - Alpha.md" {
		t.Errorf("Filename = %q", got)
	}

	n.Type = "Ébauche"
	if got := n.String(); got != "[É] 1 - Alpha" {
		t.Errorf("String with non-ASCII type = %q", got)
	}
	n.Type = ""
	if got := n.String(); got != "[?] 1 - Alpha" {
		t.Errorf("String without type = %q", got)
	}
}

func TestNote_LinkedNotes(t *testing.T) {
	n := validNote()
	n.Content = "see [[2]] and [[3]] and [[2]]"
	got := n.LinkedNotes()
	if len(got) != 3 || got[0] != "2" || got[1] != "3" || got[2] != "2" {
		t.Errorf("LinkedNotes = %v", got)
	}
	if !n.LinksTo("3") || n.LinksTo("4") {
		t.Error("LinksTo mismatch")
	}
}

func TestNote_CloneIsDeep(t *testing.T) {
	n := validNote()
	n.Tags = []string{"a"}
	c := n.Clone()
	c.Tags[0] = "b"
	if n.Tags[0] != "a" {
		t.Error("Clone shares tag slice")
	}
}

func TestTypeSet_Check(t *testing.T) {
	s := TypeSet{"Inbox", "Index"}
	if err := s.Check("Index"); err != nil {
		t.Errorf("Check(Index) = %v", err)
	}
	if err := s.Check("Archive"); !errors.Is(err, apperr.ErrInvalidNoteType) {
		t.Errorf("Check(Archive) = %v", err)
	}
}
