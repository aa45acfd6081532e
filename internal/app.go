package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/slipbox/internal/editor"
	"github.com/starford/slipbox/internal/index"
	"github.com/starford/slipbox/internal/models"
	"github.com/starford/slipbox/internal/noteid"
	"github.com/starford/slipbox/internal/noteservice"
	"github.com/starford/slipbox/internal/render"
	"github.com/starford/slipbox/internal/repository"
	"github.com/starford/slipbox/internal/storage"
)

// TemplateFile, when present in the repository root, replaces the built-in
// HTML page template.
const TemplateFile = "template.html"

// App is an opened repository and the commands that act on it.
type App struct {
	application
	store  *storage.FS
	repo   *repository.Repository
	svc    *noteservice.Service
	styles styles
}

// New opens the repository named by the options.
func New(opts ...Option) (*App, error) {
	a := &App{}
	for _, opt := range opts {
		opt(&a.application)
	}

	if a.root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if a.root, err = FindRoot(wd); err != nil {
			return nil, err
		}
	}
	if a.config == nil {
		cfg, err := LoadConfig(a.root)
		if err != nil {
			return nil, err
		}
		a.config = cfg
	} else if err := a.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if a.out == nil {
		a.out = os.Stdout
	}
	if a.logger == nil {
		a.logger = NewLogger(a.config.App, os.Stderr)
	}
	if a.editor == nil {
		a.editor = editor.FromEnv()
	}
	if a.now == nil {
		a.now = time.Now
	}

	order, err := models.ParseOrder(a.config.Order)
	if err != nil {
		return nil, err
	}
	ids, err := noteid.New(a.config.IDPolicy, a.now)
	if err != nil {
		return nil, err
	}
	if a.store, err = storage.NewFS(a.root); err != nil {
		return nil, err
	}

	a.repo = repository.New(a.store, a.config.NotesPath,
		repository.WithTypes(a.config.Types(), a.config.DefaultNewType),
		repository.WithIDGenerator(ids),
		repository.WithOrder(order),
		repository.WithClock(a.now),
		repository.WithLogger(a.logger),
	)
	a.svc = noteservice.New(a.repo,
		noteservice.WithDefaultViewType(a.config.DefaultViewType),
		noteservice.WithStrictLinks(a.config.StrictLinks),
		noteservice.WithLogger(a.logger),
	)
	a.styles = newStyles(a.out)
	return a, nil
}

// Root returns the repository root.
func (a *App) Root() string { return a.root }

// Config returns the repository settings.
func (a *App) Config() *Config { return a.config }

// Service returns the note service.
func (a *App) Service() *noteservice.Service { return a.svc }

// Create writes a new note and optionally opens it in the editor.
func (a *App) Create(ctx context.Context, p repository.CreateParams, edit bool) error {
	d, err := a.svc.Create(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s\n", a.styles.ok.Render("Created note:"), listing(d.NoteRef))
	if edit {
		return a.edit(ctx, d.Filename)
	}
	return nil
}

// Update re-saves the note q names, or every note when q is nil. resetDate
// also moves the note's date to now and needs a single note.
func (a *App) Update(ctx context.Context, q *repository.Query, resetDate bool) error {
	if q == nil {
		if resetDate {
			return errors.New("update: the date can only be reset one note at a time")
		}
		saved, failures, err := a.svc.TouchAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s %d notes\n", a.styles.ok.Render("Saved"), saved)
		for _, f := range failures {
			fmt.Fprintf(a.out, "%s %v\n", a.styles.warn.Render("Skipped"), f)
		}
		if len(failures) > 0 {
			return fmt.Errorf("update: %d notes could not be saved", len(failures))
		}
		return nil
	}

	n, err := a.svc.Touch(ctx, *q, resetDate, a.now())
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s - %s\n", a.styles.ok.Render("Saved note:"), n.ID, n.Title)
	return nil
}

// Edit opens the note q names in the editor.
func (a *App) Edit(ctx context.Context, q repository.Query) error {
	n, err := a.svc.Note(ctx, q)
	if err != nil {
		return err
	}
	return a.edit(ctx, n.Filename())
}

func (a *App) edit(ctx context.Context, filename string) error {
	path, err := a.repo.AbsPath(filename)
	if err != nil {
		return err
	}
	return a.editor.Edit(ctx, path)
}

// Notes prints the notes matching p, one per line.
func (a *App) Notes(ctx context.Context, p noteservice.ListParams) error {
	items, err := a.svc.List(ctx, p)
	if err != nil {
		return err
	}
	for _, it := range items {
		fmt.Fprintln(a.out, listing(it.NoteRef))
	}
	return nil
}

// Links prints the notes linking to and from the note q names.
func (a *App) Links(ctx context.Context, q repository.Query) error {
	l, err := a.svc.Links(ctx, q)
	if err != nil {
		return err
	}
	a.printRefs("Links in:", l.In)
	fmt.Fprintln(a.out)
	a.printRefs("Links out:", l.Out)
	if len(l.Dangling) > 0 {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, a.styles.warn.Render("Missing:"))
		for _, id := range l.Dangling {
			fmt.Fprintf(a.out, "  %s\n", a.styles.id.Render(id))
		}
	}
	return nil
}

// Sequence prints the parents and children of the note q names.
func (a *App) Sequence(ctx context.Context, q repository.Query) error {
	s, err := a.svc.Sequence(ctx, q)
	if err != nil {
		return err
	}
	a.printRefs("Parents:", s.Parents)
	fmt.Fprintln(a.out)
	a.printRefs("Children:", s.Children)
	return nil
}

func (a *App) printRefs(heading string, refs []noteservice.NoteRef) {
	fmt.Fprintln(a.out, a.styles.heading.Render(heading))
	for _, r := range refs {
		fmt.Fprintf(a.out, "  %s\n", repr(r))
	}
}

// Show prints every field of the note q names.
func (a *App) Show(ctx context.Context, q repository.Query) error {
	n, err := a.svc.Note(ctx, q)
	if err != nil {
		return err
	}
	field := func(k, v string) {
		fmt.Fprintf(a.out, " %s %s\n", a.styles.dim.Render(k+":"), v)
	}
	fmt.Fprintln(a.out, a.styles.heading.Render("Note:"))
	field("id", n.ID)
	field("title", n.Title)
	field("date", n.Date.Format(models.TimeLayout))
	field("updated", n.LastUpdated.Format(models.TimeLayout))
	field("tags", strings.Join(n.Tags, ", "))
	field("parents", strings.Join(n.Parents, ", "))
	field("type", n.Type)
	field("bibkey", n.Bibkey)
	fmt.Fprintf(a.out, " %s\n\n%s\n", a.styles.dim.Render("content:"), n.Content)
	return nil
}

// Tags prints every tag with its note count.
func (a *App) Tags(ctx context.Context) error {
	tags, err := a.svc.Tags(ctx)
	if err != nil {
		return err
	}
	for _, t := range tags {
		fmt.Fprintf(a.out, "%s %s\n", t.Tag, a.styles.dim.Render("("+strconv.Itoa(t.Count)+")"))
	}
	return nil
}

// HTML renders the note q names, or every note and the overview page when
// q is nil. With watch it keeps running and re-renders changed notes until
// ctx is cancelled.
func (a *App) HTML(ctx context.Context, q *repository.Query, watch bool) error {
	r, err := a.htmlRenderer()
	if err != nil {
		return err
	}
	b := render.NewBuilder(r, a.source, a.logger)

	build := func(onlyChanged bool) error {
		x, notes, err := a.selectNotes(ctx, q)
		if err != nil {
			return err
		}
		var overviewErr error
		if q == nil {
			if _, err := r.RenderOverview(ctx, x.Notes()); err != nil {
				fmt.Fprintf(a.out, "%s overview: %v\n", a.styles.warn.Render("Failed"), err)
				overviewErr = fmt.Errorf("html: overview: %w", err)
			}
		}
		return errors.Join(overviewErr, a.report("html", b.Build(ctx, x, notes, onlyChanged)))
	}

	err = build(false)
	if !watch {
		return err
	}
	if err != nil {
		a.logger.Warn("html: initial build incomplete", slog.String("error", err.Error()))
	}
	return a.watch(ctx, func() error { return build(true) })
}

func (a *App) htmlRenderer() (*render.HTMLRenderer, error) {
	opts := []render.HTMLOption{render.WithIndexLink(a.config.Index != "")}
	if ok, _ := a.store.Exists(TemplateFile); ok {
		text, err := a.store.Read(TemplateFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, render.WithTemplate(string(text)))
	}
	return render.NewHTMLRenderer(a.store, a.config.HTMLPath, opts...)
}

// watch calls rebuild after each burst of changes in the notes directory.
func (a *App) watch(ctx context.Context, rebuild func() error) error {
	dir, err := a.store.Abs(a.config.NotesPath)
	if err != nil {
		return err
	}
	changed := make(chan struct{}, 1)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return index.Watch(gCtx, dir, index.DefaultDebounce, a.logger, func(string, string) {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	})
	g.Go(func() error {
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-changed:
				if err := rebuild(); err != nil {
					a.logger.Warn("html: rebuild failed", slog.String("error", err.Error()))
				}
			}
		}
	})

	fmt.Fprintln(a.out, a.styles.dim.Render("Watching "+dir+" for changes"))
	return g.Wait()
}

// PDF renders the note q names, or every note when q is nil, through pandoc.
func (a *App) PDF(ctx context.Context, q *repository.Query) error {
	r := render.NewPandocRenderer(a.store, a.config.PDFPath, a.config.TikzFormat, a.pandoc)
	x, notes, err := a.selectNotes(ctx, q)
	if err != nil {
		return err
	}
	return a.report("pdf", render.NewBuilder(r, a.source, a.logger).Build(ctx, x, notes, false))
}

func (a *App) selectNotes(ctx context.Context, q *repository.Query) (*index.Index, []*models.Note, error) {
	x, _, err := a.svc.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	if q == nil {
		return x, x.Notes(), nil
	}
	n, err := a.svc.Note(ctx, *q)
	if err != nil {
		return nil, nil, err
	}
	return x, []*models.Note{n}, nil
}

func (a *App) source(n *models.Note) (string, error) {
	return a.repo.AbsPath(n.Filename())
}

func (a *App) report(format string, rep render.Report) error {
	for _, id := range rep.Rendered {
		fmt.Fprintf(a.out, "Generated %s for note: %s\n", format, a.styles.id.Render(id))
	}
	for _, f := range rep.Failed {
		fmt.Fprintf(a.out, "%s %s: %v\n", a.styles.warn.Render("Failed"), f.ID, f.Err)
	}
	if len(rep.Failed) > 0 {
		total := len(rep.Rendered) + len(rep.Skipped) + len(rep.Failed)
		return fmt.Errorf("%s: %d of %d notes failed", format, len(rep.Failed), total)
	}
	return nil
}

// Settings prints the repository settings, or applies key=value
// assignments and saves them.
func (a *App) Settings(ctx context.Context, assignments []string) error {
	if len(assignments) == 0 {
		fmt.Fprintln(a.out, a.styles.heading.Render("Settings:"))
		for _, s := range a.config.Settings() {
			fmt.Fprintf(a.out, "  %s: %s\n", s.Key, s.Value)
		}
		return nil
	}

	for _, as := range assignments {
		key, value, ok := strings.Cut(as, "=")
		if !ok {
			return fmt.Errorf("settings: %q is not of the form key=value", as)
		}
		if err := a.config.Set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("settings: %w", err)
		}
	}
	if err := SaveConfig(ctx, a.store, a.config); err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.styles.ok.Render("Settings saved"))
	return nil
}

func listing(r noteservice.NoteRef) string {
	return (&models.Note{ID: r.ID, Title: r.Title, Type: r.Type}).String()
}

func repr(r noteservice.NoteRef) string {
	return (&models.Note{ID: r.ID, Title: r.Title, Type: r.Type}).Repr()
}
