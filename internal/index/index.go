// Package index answers relationship queries over one scan of the notes
// directory: links, parent/child sequences, tags and types.
package index

import (
	"errors"
	"slices"
	"sort"

	"github.com/starford/slipbox/internal/apperr"
	"github.com/starford/slipbox/internal/models"
	"github.com/starford/slipbox/internal/wikilink"
)

// Index is an immutable snapshot of a note collection. Queries never read
// the disk; rebuild the Index to see new changes.
type Index struct {
	notes  []*models.Note
	byID   map[string]*models.Note
	order  models.Order
	strict bool
}

// Option configures an Index.
type Option func(*Index)

// WithOrder sets the order of sorted query results.
func WithOrder(o models.Order) Option {
	return func(x *Index) { x.order = o }
}

// WithStrictLinks makes LinksOut report links to missing notes instead of
// dropping them silently.
func WithStrictLinks(strict bool) Option {
	return func(x *Index) { x.strict = strict }
}

// New indexes notes. The slice is kept as the collection's input order.
func New(notes []*models.Note, opts ...Option) *Index {
	x := &Index{
		notes: notes,
		byID:  make(map[string]*models.Note, len(notes)),
		order: models.OrderID,
	}
	for _, o := range opts {
		o(x)
	}
	for _, n := range notes {
		if _, dup := x.byID[n.ID]; !dup {
			x.byID[n.ID] = n
		}
	}
	return x
}

// Notes returns the collection in input order.
func (x *Index) Notes() []*models.Note { return x.notes }

// Len returns the number of notes.
func (x *Index) Len() int { return len(x.notes) }

// Lookup returns the note with id.
func (x *Index) Lookup(id string) (*models.Note, bool) {
	n, ok := x.byID[id]
	return n, ok
}

// LinksOut resolves the distinct ids n links to, sorted. Links to missing
// notes are dropped; in strict mode they are also returned as joined
// *apperr.DanglingReferenceError values next to the resolved notes.
func (x *Index) LinksOut(n *models.Note) ([]*models.Note, error) {
	var (
		out  []*models.Note
		errs []error
	)
	for _, id := range wikilink.Unique(n.LinkedNotes()) {
		target, ok := x.byID[id]
		if !ok {
			if x.strict {
				errs = append(errs, &apperr.DanglingReferenceError{From: n.ID, To: id, Relation: "link"})
			}
			continue
		}
		out = append(out, target)
	}
	models.Sort(out, x.order)
	return out, errors.Join(errs...)
}

// LinksIn returns every note whose content links to n, in input order.
func (x *Index) LinksIn(n *models.Note) []*models.Note {
	var out []*models.Note
	for _, other := range x.notes {
		if other.LinksTo(n.ID) {
			out = append(out, other)
		}
	}
	return out
}

// Parents resolves n's declared parents, sorted. A parent that is not in
// the collection fails the call.
func (x *Index) Parents(n *models.Note) ([]*models.Note, error) {
	out := make([]*models.Note, 0, len(n.Parents))
	for _, id := range n.Parents {
		p, ok := x.byID[id]
		if !ok {
			return nil, &apperr.DanglingReferenceError{From: n.ID, To: id, Relation: "parent"}
		}
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	models.Sort(out, x.order)
	return out, nil
}

// Children returns every note that lists n as a parent, in input order.
func (x *Index) Children(n *models.Note) []*models.Note {
	var out []*models.Note
	for _, other := range x.notes {
		if other.HasParent(n.ID) {
			out = append(out, other)
		}
	}
	return out
}

// Tags returns the sorted union of every note's tags.
func (x *Index) Tags() []string {
	set := make(map[string]struct{})
	for _, n := range x.notes {
		for _, t := range n.Tags {
			set[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// TagCounts returns how many notes carry each tag.
func (x *Index) TagCounts() map[string]int {
	counts := make(map[string]int)
	for _, n := range x.notes {
		for _, t := range wikilink.Unique(n.Tags) {
			counts[t]++
		}
	}
	return counts
}

// FilterByTag keeps the notes carrying any of tags, preserving order.
func FilterByTag(notes []*models.Note, tags ...string) []*models.Note {
	return filter(notes, func(n *models.Note) bool {
		return slices.ContainsFunc(tags, n.HasTag)
	})
}

// FilterByType keeps the notes whose type is one of types, preserving order.
func FilterByType(notes []*models.Note, types ...string) []*models.Note {
	return filter(notes, func(n *models.Note) bool {
		return slices.Contains(types, n.Type)
	})
}

func filter(notes []*models.Note, keep func(*models.Note) bool) []*models.Note {
	var out []*models.Note
	for _, n := range notes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}
