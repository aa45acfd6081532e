// Package noteservice is the application layer shared by the command line,
// the HTTP API and the MCP server.
package noteservice

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/starford/slipbox/internal/apperr"
	"github.com/starford/slipbox/internal/index"
	"github.com/starford/slipbox/internal/models"
	"github.com/starford/slipbox/internal/repository"
)

// NoteRef is a reference to another note in a response.
type NoteRef struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Filename string `json:"filename"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	NoteRef
	Tags        []string  `json:"tags"`
	Date        time.Time `json:"date"`
	LastUpdated time.Time `json:"last_updated"`
}

// NoteDetail is the full representation of a note with its neighbours.
type NoteDetail struct {
	NoteListItem
	Parents  []string  `json:"parents"`
	Bibkey   string    `json:"bibkey,omitempty"`
	Content  string    `json:"content"`
	LinksIn  []NoteRef `json:"links_in"`
	LinksOut []NoteRef `json:"links_out"`
	// ParentNotes resolves Parents.
	ParentNotes []NoteRef `json:"parent_notes"`
	Children    []NoteRef `json:"children"`
	// DanglingLinks lists linked ids with no note; only filled in strict mode.
	DanglingLinks []string `json:"dangling_links,omitempty"`
}

// Links are a note's incoming and outgoing links.
type Links struct {
	Note NoteRef   `json:"note"`
	In   []NoteRef `json:"in"`
	Out  []NoteRef `json:"out"`
	// Dangling lists linked ids with no note; only filled in strict mode.
	Dangling []string `json:"dangling,omitempty"`
}

// Sequence is a note's place in the parent/child hierarchy.
type Sequence struct {
	Note     NoteRef   `json:"note"`
	Parents  []NoteRef `json:"parents"`
	Children []NoteRef `json:"children"`
}

// TagCount is a tag and the number of notes carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ListParams filters a listing. Without All, an empty Types falls back to
// the service's default view type.
type ListParams struct {
	All   bool
	Tags  []string
	Types []string
}

// Service coordinates the repository and the relationship index.
type Service struct {
	repo            *repository.Repository
	defaultViewType string
	strictLinks     bool
	logger          *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultViewType sets the type listed when no filter is given.
func WithDefaultViewType(t string) Option {
	return func(s *Service) { s.defaultViewType = t }
}

// WithStrictLinks makes link queries report links to missing notes.
func WithStrictLinks(strict bool) Option {
	return func(s *Service) { s.strictLinks = strict }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a new note service.
func New(repo *repository.Repository, opts ...Option) *Service {
	s := &Service{repo: repo, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Repository exposes the underlying repository.
func (s *Service) Repository() *repository.Repository { return s.repo }

// Snapshot scans the repository and indexes the result.
func (s *Service) Snapshot(ctx context.Context) (*index.Index, *repository.ScanResult, error) {
	res, err := s.repo.ScanAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	x := index.New(res.Notes,
		index.WithOrder(s.repo.Order()),
		index.WithStrictLinks(s.strictLinks),
	)
	return x, res, nil
}

// List returns the notes matching p in the repository order.
func (s *Service) List(ctx context.Context, p ListParams) ([]NoteListItem, error) {
	x, _, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	notes := x.Notes()
	types := p.Types
	if !p.All && len(types) == 0 && s.defaultViewType != "" {
		types = []string{s.defaultViewType}
	}
	if len(types) > 0 {
		notes = index.FilterByType(notes, types...)
	}
	if len(p.Tags) > 0 {
		notes = index.FilterByTag(notes, p.Tags...)
	}
	items := make([]NoteListItem, len(notes))
	for i, n := range notes {
		items[i] = listItem(n)
	}
	return items, nil
}

// Get resolves q and returns the note with its neighbours.
func (s *Service) Get(ctx context.Context, q repository.Query) (*NoteDetail, error) {
	x, n, err := s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}
	out, dangling := s.linksOut(x, n)
	parents, err := x.Parents(n)
	if err != nil {
		return nil, err
	}
	d := detail(n)
	d.LinksIn = refs(x.LinksIn(n))
	d.LinksOut = refs(out)
	d.DanglingLinks = dangling
	d.ParentNotes = refs(parents)
	d.Children = refs(x.Children(n))
	return d, nil
}

// Note resolves q to the stored note.
func (s *Service) Note(ctx context.Context, q repository.Query) (*models.Note, error) {
	return s.repo.Resolve(ctx, q)
}

// Links returns the incoming and outgoing links of the note q names.
func (s *Service) Links(ctx context.Context, q repository.Query) (*Links, error) {
	x, n, err := s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}
	out, dangling := s.linksOut(x, n)
	return &Links{Note: ref(n), In: refs(x.LinksIn(n)), Out: refs(out), Dangling: dangling}, nil
}

// linksOut resolves n's outgoing links. Links to missing notes never fail
// the query; in strict mode their ids are returned and logged.
func (s *Service) linksOut(x *index.Index, n *models.Note) ([]*models.Note, []string) {
	out, err := x.LinksOut(n)
	if err == nil {
		return out, nil
	}
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	var dangling []string
	for _, e := range errs {
		var d *apperr.DanglingReferenceError
		if errors.As(e, &d) {
			dangling = append(dangling, d.To)
		}
	}
	s.logger.Warn("noteservice: links to missing notes",
		slog.String("id", n.ID),
		slog.Any("missing", dangling),
	)
	return out, dangling
}

// Sequence returns the parents and children of the note q names.
func (s *Service) Sequence(ctx context.Context, q repository.Query) (*Sequence, error) {
	x, n, err := s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}
	parents, err := x.Parents(n)
	if err != nil {
		return nil, err
	}
	return &Sequence{Note: ref(n), Parents: refs(parents), Children: refs(x.Children(n))}, nil
}

// Tags returns every tag with its note count, sorted by tag.
func (s *Service) Tags(ctx context.Context) ([]TagCount, error) {
	x, _, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	counts := x.TagCounts()
	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out, nil
}

// Graph returns all nodes and links for graph visualization.
func (s *Service) Graph(ctx context.Context) (index.Graph, error) {
	x, _, err := s.Snapshot(ctx)
	if err != nil {
		return index.Graph{}, err
	}
	return x.Graph(), nil
}

// Create writes a new note and returns it with its neighbours.
func (s *Service) Create(ctx context.Context, p repository.CreateParams) (*NoteDetail, error) {
	n, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, repository.Query{ID: n.ID, Title: n.Title})
}

// Touch re-saves the note q names, bumping its last-updated time. With
// resetDate the creation date is moved to now as well.
func (s *Service) Touch(ctx context.Context, q repository.Query, resetDate bool, now time.Time) (*models.Note, error) {
	n, err := s.repo.Resolve(ctx, q)
	if err != nil {
		return nil, err
	}
	if resetDate {
		n.Date = now.Truncate(time.Second)
	}
	if err := s.repo.Save(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// TouchAll re-saves every note that loads, rewriting it in the current
// format. Notes that fail to load or save are returned and skipped.
func (s *Service) TouchAll(ctx context.Context) (int, []*apperr.ScanError, error) {
	res, err := s.repo.ScanAll(ctx)
	if err != nil {
		return 0, nil, err
	}
	failures := res.Failures
	saved := 0
	for _, n := range res.Notes {
		if err := s.repo.Save(ctx, n); err != nil {
			s.logger.Warn("noteservice: save failed", slog.String("id", n.ID), slog.String("error", err.Error()))
			failures = append(failures, &apperr.ScanError{File: n.Filename(), Err: err})
			continue
		}
		saved++
	}
	return saved, failures, nil
}

// resolve finds the note q names and a fresh index around it.
func (s *Service) resolve(ctx context.Context, q repository.Query) (*index.Index, *models.Note, error) {
	n, err := s.repo.Resolve(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	x, _, err := s.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	if indexed, ok := x.Lookup(n.ID); ok {
		n = indexed
	}
	return x, n, nil
}

func ref(n *models.Note) NoteRef {
	return NoteRef{ID: n.ID, Title: n.Title, Type: n.Type, Filename: n.Filename()}
}

func refs(notes []*models.Note) []NoteRef {
	out := make([]NoteRef, len(notes))
	for i, n := range notes {
		out[i] = ref(n)
	}
	return out
}

func listItem(n *models.Note) NoteListItem {
	return NoteListItem{
		NoteRef:     ref(n),
		Tags:        nonNilSlice(n.Tags),
		Date:        n.Date,
		LastUpdated: n.LastUpdated,
	}
}

func detail(n *models.Note) *NoteDetail {
	return &NoteDetail{
		NoteListItem: listItem(n),
		Parents:      nonNilSlice(n.Parents),
		Bibkey:       n.Bibkey,
		Content:      n.Content,
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
