// Package render turns notes into browsable documents. Rendering only reads
// notes; output goes to its own directory keyed by note id.
package render

import (
	"context"
	"fmt"

	"github.com/starford/slipbox/internal/index"
	"github.com/starford/slipbox/internal/models"
)

// Refs are the cross-reference lists shown alongside a note.
type Refs struct {
	LinksIn  []*models.Note
	LinksOut []*models.Note
	Parents  []*models.Note
	Children []*models.Note
}

// Document is one note ready to render.
type Document struct {
	Note *models.Note
	// Source is the absolute path of the note file.
	Source string
	Refs   Refs
}

// Renderer produces one output artifact per document.
type Renderer interface {
	// Render writes the artifact for doc and returns its path.
	Render(ctx context.Context, doc Document) (string, error)
	// OutputName returns the artifact file name for a note id.
	OutputName(id string) string
}

// NewDocument collects n's cross-references from x. A dangling parent fails;
// dangling links are left out.
func NewDocument(x *index.Index, n *models.Note, source string) (Document, error) {
	parents, err := x.Parents(n)
	if err != nil {
		return Document{}, fmt.Errorf("render: %s: %w", n.ID, err)
	}
	out, _ := x.LinksOut(n)
	return Document{
		Note:   n,
		Source: source,
		Refs: Refs{
			LinksIn:  x.LinksIn(n),
			LinksOut: out,
			Parents:  parents,
			Children: x.Children(n),
		},
	}, nil
}
