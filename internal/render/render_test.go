package render

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/starford/slipbox/internal/index"
	"github.com/starford/slipbox/internal/models"
	"github.com/starford/slipbox/internal/testutil"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func fixture() (*index.Index, *models.Note, *models.Note) {
	alpha := testutil.Note("1", "Alpha", "Inbox", "# Heading\n\nplain")
	beta := testutil.Note("2", "Beta", "Archive", "see [[1|the first]] and [[1]]", "1")
	return index.New([]*models.Note{alpha, beta}), alpha, beta
}

func TestHTMLRenderer_Render(t *testing.T) {
	root, store := testutil.TestRepo(t)
	r, err := NewHTMLRenderer(store, "html", WithIndexLink(true))
	if err != nil {
		t.Fatal(err)
	}
	x, alpha, beta := fixture()

	doc, err := NewDocument(x, beta, "")
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Render(context.Background(), doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != filepath.Join(root, "html", "2.html") {
		t.Errorf("out = %q", out)
	}
	page, _ := os.ReadFile(out)
	for _, want := range []string{
		`<a href="1.html">the first</a>`,
		`<a href="1.html">1</a>`,
		"<h2>Links out</h2>",
		"<h2>Parents</h2>",
		`<a href="overview.html">Overview</a>`,
	} {
		if !strings.Contains(string(page), want) {
			t.Errorf("page missing %q:\n%s", want, page)
		}
	}
	if strings.Contains(string(page), "<h2>Children</h2>") {
		t.Error("empty section rendered")
	}

	doc, _ = NewDocument(x, alpha, "")
	out, _ = r.Render(context.Background(), doc)
	page, _ = os.ReadFile(out)
	if !strings.Contains(string(page), `<h1 id="heading">Heading</h1>`) || !strings.Contains(string(page), "<h2>Children</h2>") {
		t.Errorf("alpha page:\n%s", page)
	}
}

func TestHTMLRenderer_Overview(t *testing.T) {
	_, store := testutil.TestRepo(t)
	r, _ := NewHTMLRenderer(store, "html")
	x, _, _ := fixture()

	out, err := r.RenderOverview(context.Background(), x.Notes())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(out) != OverviewName {
		t.Errorf("out = %q", out)
	}
	page, _ := os.ReadFile(out)
	if !strings.Contains(string(page), `<a href="2.html">[2]</a> - Beta`) {
		t.Errorf("overview:\n%s", page)
	}
}

func TestHTMLRenderer_CustomTemplate(t *testing.T) {
	_, store := testutil.TestRepo(t)
	r, err := NewHTMLRenderer(store, "html", WithTemplate("<p>{{.Title}}</p>{{.Body}}"))
	if err != nil {
		t.Fatal(err)
	}
	x, alpha, _ := fixture()
	doc, _ := NewDocument(x, alpha, "")
	out, _ := r.Render(context.Background(), doc)
	page, _ := os.ReadFile(out)
	if !strings.HasPrefix(string(page), "<p>Alpha</p>") {
		t.Errorf("page = %s", page)
	}

	if _, err := NewHTMLRenderer(store, "html", WithTemplate("{{.Broken")); err == nil {
		t.Error("expected template parse error")
	}
}

func TestPandocRenderer_Args(t *testing.T) {
	root, store := testutil.TestRepo(t)
	var gotName string
	var gotArgs []string
	run := func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return nil, nil
	}
	r := NewPandocRenderer(store, "pdf", "png", run)
	x, _, beta := fixture()
	doc, _ := NewDocument(x, beta, "/notes/2 - Beta.md")

	out, err := r.Render(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	if gotName != "pandoc" || gotArgs[0] != "/notes/2 - Beta.md" {
		t.Errorf("ran %s %v", gotName, gotArgs)
	}
	if out != filepath.Join(root, "pdf", "2.pdf") || !slices.Contains(gotArgs, "--output="+out) {
		t.Errorf("out = %q, args %v", out, gotArgs)
	}
	if !slices.Contains(gotArgs, "--variable=parents:[1] - Alpha") || !slices.Contains(gotArgs, "--variable=tikz_format:png") {
		t.Errorf("args = %v", gotArgs)
	}
}

func TestPandocRenderer_FailureIncludesOutput(t *testing.T) {
	_, store := testutil.TestRepo(t)
	run := func(context.Context, string, ...string) ([]byte, error) {
		return []byte("pandoc: unknown option\n"), errors.New("exit status 2")
	}
	r := NewPandocRenderer(store, "pdf", "png", run)
	x, alpha, _ := fixture()
	doc, _ := NewDocument(x, alpha, "a.md")
	if _, err := r.Render(context.Background(), doc); err == nil || !strings.Contains(err.Error(), "unknown option") {
		t.Errorf("err = %v", err)
	}
}

type fakeRenderer struct {
	fail     string
	rendered []string
}

func (f *fakeRenderer) OutputName(id string) string { return id }

func (f *fakeRenderer) Render(_ context.Context, doc Document) (string, error) {
	if doc.Note.ID == f.fail {
		return "", errors.New("boom")
	}
	f.rendered = append(f.rendered, doc.Note.ID)
	return doc.Note.ID, nil
}

func TestBuilder_ContinuesAfterFailure(t *testing.T) {
	notes := []*models.Note{
		testutil.Note("1", "A", "Inbox", ""),
		testutil.Note("2", "B", "Inbox", ""),
		testutil.Note("3", "C", "Inbox", "", "404"),
		testutil.Note("4", "D", "Inbox", ""),
	}
	x := index.New(notes)
	fake := &fakeRenderer{fail: "2"}
	b := NewBuilder(fake, func(n *models.Note) (string, error) { return n.Filename(), nil }, quiet)

	rep := b.Build(context.Background(), x, notes, false)
	if !slices.Equal(rep.Rendered, []string{"1", "4"}) {
		t.Errorf("rendered = %v", rep.Rendered)
	}
	if len(rep.Failed) != 2 || rep.Failed[0].ID != "2" || rep.Failed[1].ID != "3" {
		t.Errorf("failed = %v", rep.Failed)
	}
}

func TestBuilder_OnlyChanged(t *testing.T) {
	a := testutil.Note("1", "A", "Inbox", "")
	b := testutil.Note("2", "B", "Inbox", "")
	notes := []*models.Note{a, b}
	fake := &fakeRenderer{}
	builder := NewBuilder(fake, func(n *models.Note) (string, error) { return n.Filename(), nil }, quiet)

	builder.Build(context.Background(), index.New(notes), notes, true)

	b.Content = "now links to [[1]]"
	rep := builder.Build(context.Background(), index.New(notes), notes, true)
	// a gained a link in, b changed content: both re-render.
	if !slices.Equal(rep.Rendered, []string{"1", "2"}) {
		t.Errorf("rendered = %v", rep.Rendered)
	}
	rep = builder.Build(context.Background(), index.New(notes), notes, true)
	if len(rep.Rendered) != 0 || !slices.Equal(rep.Skipped, []string{"1", "2"}) {
		t.Errorf("second pass rendered %v skipped %v", rep.Rendered, rep.Skipped)
	}
}
