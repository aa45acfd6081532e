package repository

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/starford/slipbox/internal/apperr"
	"github.com/starford/slipbox/internal/models"
	"github.com/starford/slipbox/internal/parser"
)

// Timestamps are stored to the second.
const timePrecision = time.Second

// CreateParams holds the caller-supplied fields of a new note.
type CreateParams struct {
	Title   string
	Tags    []string
	Parents []string
	Type    string
	Content string
	Bibkey  string
}

// Create assigns a fresh id and timestamp, then writes the note. Declared
// parents must already exist. The write lock is held from id generation to
// the write so two processes cannot claim the same id.
func (r *Repository) Create(ctx context.Context, p CreateParams) (*models.Note, error) {
	unlock, err := r.store.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	noteType := p.Type
	if noteType == "" {
		noteType = r.defaultType
	}
	if err := r.types.Check(noteType); err != nil {
		return nil, err
	}
	if err := models.ValidateTitle(p.Title); err != nil {
		return nil, err
	}

	names, err := r.Filenames()
	if err != nil {
		return nil, err
	}
	existing := make([]string, 0, len(names))
	for _, name := range names {
		if id, _, err := parser.ParseFilename(name); err == nil {
			existing = append(existing, id)
		}
	}

	id := r.ids.Next(existing)
	parents := nonEmpty(p.Parents)
	for _, parent := range parents {
		if !slices.Contains(existing, parent) {
			return nil, &apperr.DanglingReferenceError{From: id, To: parent, Relation: "parent"}
		}
	}

	now := r.now().Truncate(timePrecision)
	n := &models.Note{
		ID:          id,
		Title:       strings.TrimSpace(p.Title),
		Date:        now,
		LastUpdated: now,
		Tags:        nonEmpty(p.Tags),
		Parents:     parents,
		Type:        noteType,
		Content:     trimContent(p.Content),
	}
	if n.IsReference() {
		n.Bibkey = p.Bibkey
	}
	if err := n.Validate(r.types); err != nil {
		return nil, err
	}

	path := r.Path(n.Filename())
	if ok, err := r.store.Exists(path); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("repository: create %s: %w", n.Filename(), apperr.ErrAlreadyExists)
	}
	if err := r.store.Write(path, parser.Encode(n)); err != nil {
		return nil, fmt.Errorf("repository: create %s: %w", n.Filename(), err)
	}
	r.logger.Info("repository: note created",
		slog.String("id", n.ID),
		slog.String("title", n.Title),
	)
	return n, nil
}

// Save rewrites n in place. LastUpdated is bumped to now, but never below
// Date. Saving fails if another file already carries n's id under a
// different title. n is only updated once the write has succeeded.
func (r *Repository) Save(ctx context.Context, n *models.Note) error {
	unlock, err := r.store.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	saved := n.Clone()
	saved.Content = trimContent(saved.Content)
	saved.LastUpdated = r.now().Truncate(timePrecision)
	if saved.LastUpdated.Before(saved.Date) {
		saved.LastUpdated = saved.Date
	}
	if err := saved.Validate(r.types); err != nil {
		return err
	}

	names, err := r.Filenames()
	if err != nil {
		return err
	}
	filename := saved.Filename()
	for _, name := range names {
		if id, _, err := parser.ParseFilename(name); err == nil && id == saved.ID && name != filename {
			return fmt.Errorf("repository: save %s: %w: %q already holds id %s", filename, apperr.ErrDuplicateID, name, saved.ID)
		}
	}

	if err := r.store.Write(r.Path(filename), parser.Encode(saved)); err != nil {
		return fmt.Errorf("repository: save %s: %w", filename, err)
	}
	*n = *saved
	return nil
}

func trimContent(s string) string {
	return strings.TrimLeft(s, " \t\r\n")
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
