package render

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/starford/slipbox/internal/models"
	"github.com/starford/slipbox/internal/storage"
	"github.com/starford/slipbox/internal/wikilink"
)

//go:embed templates/page.html
var defaultTemplate string

// OverviewName is the file name of the page listing every note.
const OverviewName = "overview.html"

// HTMLRenderer converts notes to standalone HTML pages with goldmark.
type HTMLRenderer struct {
	store     storage.Provider
	outDir    string
	md        goldmark.Markdown
	page      *template.Template
	showIndex bool
}

// HTMLOption configures an HTMLRenderer.
type HTMLOption func(*HTMLRenderer) error

// WithTemplate replaces the built-in page template.
func WithTemplate(text string) HTMLOption {
	return func(r *HTMLRenderer) error {
		t, err := template.New("page").Parse(text)
		if err != nil {
			return fmt.Errorf("render: parse template: %w", err)
		}
		r.page = t
		return nil
	}
}

// WithIndexLink adds a link to the overview page on every note page.
func WithIndexLink(show bool) HTMLOption {
	return func(r *HTMLRenderer) error {
		r.showIndex = show
		return nil
	}
}

// NewHTMLRenderer writes pages into outDir, relative to the store root.
func NewHTMLRenderer(store storage.Provider, outDir string, opts ...HTMLOption) (*HTMLRenderer, error) {
	r := &HTMLRenderer{
		store:  store,
		outDir: outDir,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		page: template.Must(template.New("page").Parse(defaultTemplate)),
	}
	for _, o := range opts {
		if err := o(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// OutputName implements Renderer.
func (r *HTMLRenderer) OutputName(id string) string { return id + ".html" }

type pageRef struct {
	ID, Title, Href string
}

type pageSection struct {
	Heading string
	Notes   []pageRef
}

type pageData struct {
	Title     string
	Note      *models.Note
	Body      template.HTML
	Sections  []pageSection
	ShowIndex bool
	Overview  string
}

// Render implements Renderer.
func (r *HTMLRenderer) Render(ctx context.Context, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body, err := r.Markdown(doc.Note.Content)
	if err != nil {
		return "", fmt.Errorf("render: %s: %w", doc.Note.ID, err)
	}

	data := pageData{
		Title:     doc.Note.Title,
		Note:      doc.Note,
		Body:      body,
		ShowIndex: r.showIndex,
		Overview:  OverviewName,
	}
	for _, s := range []struct {
		heading string
		notes   []*models.Note
	}{
		{"Links in", doc.Refs.LinksIn},
		{"Links out", doc.Refs.LinksOut},
		{"Parents", doc.Refs.Parents},
		{"Children", doc.Refs.Children},
	} {
		if len(s.notes) > 0 {
			data.Sections = append(data.Sections, pageSection{Heading: s.heading, Notes: r.refs(s.notes)})
		}
	}
	return r.write(r.OutputName(doc.Note.ID), data)
}

// RenderOverview writes the page listing notes in the given order.
func (r *HTMLRenderer) RenderOverview(ctx context.Context, notes []*models.Note) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return r.write(OverviewName, pageData{
		Title:    "Overview",
		Sections: []pageSection{{Heading: "Notes", Notes: r.refs(notes)}},
		Overview: OverviewName,
	})
}

// Markdown converts note content to HTML. Link markers become links to the
// target's page.
func (r *HTMLRenderer) Markdown(content string) (template.HTML, error) {
	src := wikilink.Rewrite(content, func(m wikilink.Match) string {
		label := m.Label
		if label == "" {
			label = m.ID
		}
		return fmt.Sprintf("[%s](%s)", label, r.OutputName(m.ID))
	})
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func (r *HTMLRenderer) refs(notes []*models.Note) []pageRef {
	out := make([]pageRef, len(notes))
	for i, n := range notes {
		out[i] = pageRef{ID: n.ID, Title: n.Title, Href: r.OutputName(n.ID)}
	}
	return out
}

func (r *HTMLRenderer) write(name string, data pageData) (string, error) {
	var buf bytes.Buffer
	if err := r.page.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render: execute template: %w", err)
	}
	rel := filepath.Join(r.outDir, name)
	if err := r.store.Write(rel, buf.Bytes()); err != nil {
		return "", err
	}
	return r.store.Abs(rel)
}
