// Package testutil provides shared test helpers for setting up temporary
// repositories.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/slipbox/internal/models"
	"github.com/starford/slipbox/internal/parser"
	"github.com/starford/slipbox/internal/storage"
)

// NotesDir is the notes directory used by test repositories.
const NotesDir = "notes"

// TestRepo creates a temporary repository root with an empty notes
// directory and returns it with a storage.FS rooted there.
func TestRepo(t *testing.T) (string, *storage.FS) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, NotesDir), 0o755); err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}

// WriteNote encodes n into the notes directory under its canonical name.
func WriteNote(t *testing.T, root string, n *models.Note) {
	t.Helper()
	WriteFile(t, root, n.Filename(), string(parser.Encode(n)))
}

// WriteFile writes raw content to name inside the notes directory.
func WriteFile(t *testing.T, root, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, NotesDir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Time parses a "YYYY-MM-DD HH:MM:SS" timestamp in local time.
func Time(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation(models.TimeLayout, s, time.Local)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

// Note builds a valid note dated 2024-01-01 with the given fields.
func Note(id, title, typ, content string, parents ...string) *models.Note {
	d := time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)
	return &models.Note{
		ID:          id,
		Title:       title,
		Date:        d,
		LastUpdated: d,
		Parents:     parents,
		Type:        typ,
		Content:     content,
	}
}

// Fixture writes the two-note Alpha/Beta repository: Beta links to and is a
// child of Alpha.
func Fixture(t *testing.T, root string) (alpha, beta *models.Note) {
	t.Helper()
	alpha = Note("1", "Alpha", "Inbox", "")
	beta = Note("2", "Beta", "Archive", "see [[1]]", "1")
	WriteNote(t, root, alpha)
	WriteNote(t, root, beta)
	return alpha, beta
}
