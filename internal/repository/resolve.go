package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/starford/slipbox/internal/apperr"
	"github.com/starford/slipbox/internal/models"
)

// Query identifies a note. Filename wins over ID and Title; ID and Title
// together name the file exactly; either one alone is matched as a fragment
// of the file name.
type Query struct {
	ID       string
	Title    string
	Filename string
}

func (q Query) String() string {
	switch {
	case q.Filename != "":
		return q.Filename
	case q.ID != "" && q.Title != "":
		return models.Filename(q.ID, q.Title)
	case q.ID != "":
		return q.ID
	}
	return q.Title
}

// Resolve finds the note q identifies. It fails with apperr.ErrNoteNotFound
// when nothing matches, with *apperr.AmbiguousLookupError when a fragment
// matches several files, and with apperr.ErrMissingIdentifier for an empty q.
func (r *Repository) Resolve(ctx context.Context, q Query) (*models.Note, error) {
	switch {
	case q.Filename != "":
		return r.Load(ctx, filepath.Base(q.Filename))
	case q.ID != "" && q.Title != "":
		return r.Load(ctx, models.Filename(q.ID, q.Title))
	case q.ID != "":
		return r.resolveFragment(ctx, q.ID)
	case q.Title != "":
		return r.resolveFragment(ctx, q.Title)
	}
	return nil, apperr.ErrMissingIdentifier
}

func (r *Repository) resolveFragment(ctx context.Context, fragment string) (*models.Note, error) {
	matches, err := r.Match(fragment)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %q", apperr.ErrNoteNotFound, fragment)
	case 1:
		return r.Load(ctx, matches[0])
	}
	return nil, &apperr.AmbiguousLookupError{Fragment: fragment, Candidates: matches}
}

// Match returns the note file names containing fragment.
func (r *Repository) Match(fragment string) ([]string, error) {
	names, err := r.Filenames()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, name := range names {
		if strings.Contains(strings.TrimSuffix(name, models.NoteExt), fragment) {
			out = append(out, name)
		}
	}
	return out, nil
}
