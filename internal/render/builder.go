package render

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/starford/slipbox/internal/checksum"
	"github.com/starford/slipbox/internal/index"
	"github.com/starford/slipbox/internal/models"
	"github.com/starford/slipbox/internal/parser"
)

// Failure is a note that could not be rendered.
type Failure struct {
	ID  string
	Err error
}

// Report summarises a batch.
type Report struct {
	Rendered []string
	Skipped  []string
	Failed   []Failure
}

// SourceFunc returns the absolute path of a note's file.
type SourceFunc func(n *models.Note) (string, error)

// Builder renders batches of notes. A note that fails is reported and the
// batch carries on.
type Builder struct {
	renderer Renderer
	source   SourceFunc
	logger   *slog.Logger
	// digests remembers what each note looked like when it was last rendered.
	digests map[string]string
}

// NewBuilder returns a Builder for r.
func NewBuilder(r Renderer, source SourceFunc, logger *slog.Logger) *Builder {
	return &Builder{renderer: r, source: source, logger: logger, digests: make(map[string]string)}
}

// Build renders every note in notes, with cross-references taken from x.
// With onlyChanged set, notes whose content and cross-references are the
// same as at the previous Build are skipped.
func (b *Builder) Build(ctx context.Context, x *index.Index, notes []*models.Note, onlyChanged bool) Report {
	var rep Report
	for _, n := range notes {
		if ctx.Err() != nil {
			rep.Failed = append(rep.Failed, Failure{ID: n.ID, Err: ctx.Err()})
			continue
		}
		src, err := b.source(n)
		if err != nil {
			rep.fail(b.logger, n.ID, err)
			continue
		}
		doc, err := NewDocument(x, n, src)
		if err != nil {
			rep.fail(b.logger, n.ID, err)
			continue
		}
		sum := digest(doc)
		if onlyChanged && b.digests[n.ID] == sum {
			rep.Skipped = append(rep.Skipped, n.ID)
			continue
		}
		out, err := b.renderer.Render(ctx, doc)
		if err != nil {
			rep.fail(b.logger, n.ID, err)
			continue
		}
		b.digests[n.ID] = sum
		b.logger.Debug("render: wrote", slog.String("id", n.ID), slog.String("path", out))
		rep.Rendered = append(rep.Rendered, n.ID)
	}
	return rep
}

func (r *Report) fail(logger *slog.Logger, id string, err error) {
	logger.Warn("render: note failed", slog.String("id", id), slog.String("error", err.Error()))
	r.Failed = append(r.Failed, Failure{ID: id, Err: err})
}

// digest covers the encoded note plus the titles of everything it shows, so
// a renamed neighbour also triggers a re-render.
func digest(doc Document) string {
	d := checksum.New().Bytes(parser.Encode(doc.Note))
	for _, list := range [][]*models.Note{doc.Refs.LinksIn, doc.Refs.LinksOut, doc.Refs.Parents, doc.Refs.Children} {
		d.Add(strconv.Itoa(len(list)))
		for _, n := range list {
			d.Add(n.ID, n.Title)
		}
	}
	return d.String()
}
