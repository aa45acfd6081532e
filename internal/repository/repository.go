// Package repository reads and writes the note files of a slipbox. Every
// operation works from a fresh directory listing; nothing is cached between
// calls.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/slipbox/internal/apperr"
	"github.com/starford/slipbox/internal/models"
	"github.com/starford/slipbox/internal/noteid"
	"github.com/starford/slipbox/internal/parser"
	"github.com/starford/slipbox/internal/storage"
)

// Repository is a slipbox notes directory behind a storage.Provider.
type Repository struct {
	store       storage.Provider
	notesDir    string
	types       models.TypeSet
	defaultType string
	decoder     *parser.Decoder
	ids         noteid.Generator
	order       models.Order
	now         func() time.Time
	logger      *slog.Logger
	retryDelay  time.Duration
}

// Option configures a Repository.
type Option func(*Repository)

// WithTypes sets the note type enumeration and the type given to notes that
// do not declare one.
func WithTypes(types models.TypeSet, defaultType string) Option {
	return func(r *Repository) {
		r.types = types
		r.defaultType = defaultType
	}
}

// WithIDGenerator sets the id policy used by Create.
func WithIDGenerator(g noteid.Generator) Option {
	return func(r *Repository) { r.ids = g }
}

// WithOrder sets the order of ScanResult.Notes.
func WithOrder(o models.Order) Option {
	return func(r *Repository) { r.order = o }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithLogger sets the logger for scan diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// WithRetryDelay sets the pause before a failed read is retried.
func WithRetryDelay(d time.Duration) Option {
	return func(r *Repository) { r.retryDelay = d }
}

// New returns a Repository whose notes live in notesDir, relative to the
// provider's root.
func New(store storage.Provider, notesDir string, opts ...Option) *Repository {
	r := &Repository{
		store:       store,
		notesDir:    notesDir,
		types:       models.DefaultNoteTypes,
		defaultType: models.DefaultNoteTypes[0],
		ids:         noteid.Sequential{},
		order:       models.OrderID,
		now:         time.Now,
		logger:      slog.Default(),
		retryDelay:  100 * time.Millisecond,
	}
	for _, o := range opts {
		o(r)
	}
	r.decoder = parser.NewDecoder(r.types, r.defaultType)
	return r
}

// Types returns the configured type enumeration.
func (r *Repository) Types() models.TypeSet { return r.types }

// Order returns the configured note order.
func (r *Repository) Order() models.Order { return r.order }

// NotesDir returns the notes directory relative to the repository root.
func (r *Repository) NotesDir() string { return r.notesDir }

// Path returns the root-relative path of a note file name.
func (r *Repository) Path(filename string) string {
	return filepath.Join(r.notesDir, filename)
}

// AbsPath returns the absolute path of a note file name.
func (r *Repository) AbsPath(filename string) (string, error) {
	return r.store.Abs(r.Path(filename))
}

// ScanResult is the outcome of a full scan.
type ScanResult struct {
	// Notes holds every note that decoded, in the repository's order.
	Notes []*models.Note
	// IDs and Titles come from the file names alone, in listing order, and
	// include files whose content failed to decode.
	IDs    []string
	Titles []string
	// Failures holds one entry per file that could not be loaded.
	Failures []*apperr.ScanError
}

// Err joins every failure, or returns nil for a clean scan.
func (s *ScanResult) Err() error {
	errs := make([]error, len(s.Failures))
	for i, f := range s.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// ScanAll loads every note file. A file that cannot be loaded is recorded in
// Failures and the scan moves on; only listing the directory or a cancelled
// ctx fails the whole call.
func (r *Repository) ScanAll(ctx context.Context) (*ScanResult, error) {
	entries, err := r.store.List(r.notesDir)
	if err != nil {
		return nil, fmt.Errorf("repository: scan: %w", err)
	}

	res := &ScanResult{Notes: make([]*models.Note, 0, len(entries))}
	seen := make(map[string]string, len(entries))

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, title, err := parser.ParseFilename(e.Name)
		if err != nil {
			res.fail(r.logger, e.Name, err)
			continue
		}
		res.IDs = append(res.IDs, id)
		res.Titles = append(res.Titles, title)

		n, err := r.load(ctx, e.Name, id, title)
		if err != nil {
			res.fail(r.logger, e.Name, err)
			continue
		}
		if prev, dup := seen[n.ID]; dup {
			res.fail(r.logger, e.Name, fmt.Errorf("%w: %s is already used by %q", apperr.ErrDuplicateID, n.ID, prev))
			continue
		}
		seen[n.ID] = e.Name
		res.Notes = append(res.Notes, n)
	}

	models.Sort(res.Notes, r.order)
	return res, nil
}

func (s *ScanResult) fail(logger *slog.Logger, file string, err error) {
	logger.Warn("repository: skipping note",
		slog.String("file", file),
		slog.String("error", err.Error()),
	)
	s.Failures = append(s.Failures, &apperr.ScanError{File: file, Err: err})
}

// load reads and decodes one note file. A decode failure is retried once
// after retryDelay, since an editor may be halfway through writing it. The
// header must agree with the file name, which is derived from id and title.
func (r *Repository) load(ctx context.Context, filename, fileID, fileTitle string) (*models.Note, error) {
	n, err := r.readNote(filename)
	if err != nil {
		r.logger.Debug("repository: retrying read",
			slog.String("file", filename),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.retryDelay):
		}
		if n, err = r.readNote(filename); err != nil {
			return nil, err
		}
	}

	switch {
	case n.ID == "":
		n.ID = fileID
	case n.ID != fileID:
		return nil, fmt.Errorf("%w: header id %q does not match file name id %q", apperr.ErrMalformedNote, n.ID, fileID)
	}
	if n.Title != fileTitle {
		return nil, fmt.Errorf("%w: header title %q does not match file name title %q; rename the file to %q",
			apperr.ErrMalformedNote, n.Title, fileTitle, n.Filename())
	}
	return n, nil
}

func (r *Repository) readNote(filename string) (*models.Note, error) {
	data, err := r.store.Read(r.Path(filename))
	if err != nil {
		return nil, err
	}
	return r.decoder.Decode(data)
}

// Load reads a single note by file name.
func (r *Repository) Load(ctx context.Context, filename string) (*models.Note, error) {
	id, title, err := parser.ParseFilename(filename)
	if err != nil {
		return nil, err
	}
	ok, err := r.store.Exists(r.Path(filename))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNoteNotFound, filename)
	}
	return r.load(ctx, filename, id, title)
}

// Filenames lists the note file names in the notes directory.
func (r *Repository) Filenames() ([]string, error) {
	entries, err := r.store.List(r.notesDir)
	if err != nil {
		return nil, fmt.Errorf("repository: list: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name, models.NoteExt) {
			names = append(names, e.Name)
		}
	}
	return names, nil
}
