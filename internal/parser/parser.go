// Package parser converts notes to and from their on-disk text form: a YAML
// header between two "---" lines followed by the Markdown body.
package parser

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/slipbox/internal/apperr"
	"github.com/starford/slipbox/internal/models"
)

const delimiter = "---"

// Decoder parses note documents against a repository's type enumeration.
type Decoder struct {
	types       models.TypeSet
	defaultType string
}

// NewDecoder returns a Decoder that validates types against types and assigns
// defaultType to notes whose header has no type.
func NewDecoder(types models.TypeSet, defaultType string) *Decoder {
	return &Decoder{types: types, defaultType: defaultType}
}

// header mirrors the metadata block. Legacy key spellings from older
// repositories are accepted on read and never written.
type header struct {
	ID      scalar     `yaml:"id"`
	Title   scalar     `yaml:"title"`
	Date    scalar     `yaml:"date"`
	Updated scalar     `yaml:"updated"`
	Tags    stringList `yaml:"tags"`
	Parents stringList `yaml:"parents"`
	Type    scalar     `yaml:"type"`
	Bibkey  scalar     `yaml:"bibkey"`

	LegacyUpdated      scalar `yaml:"last_updated"`
	LegacyUpdatedSpace scalar `yaml:"last updated"`
	LegacyType         scalar `yaml:"note_type"`
}

// Decode parses a note document. Every failure matches apperr.ErrMalformedNote;
// an unknown type additionally matches apperr.ErrInvalidNoteType.
func (d *Decoder) Decode(data []byte) (*models.Note, error) {
	rawHeader, body, err := splitDocument(string(data))
	if err != nil {
		return nil, err
	}

	var h header
	if err := yaml.Unmarshal([]byte(rawHeader), &h); err != nil {
		return nil, fmt.Errorf("%w: header: %v", apperr.ErrMalformedNote, err)
	}

	if !h.Title.set || h.Title.value == "" {
		return nil, fmt.Errorf("%w: header has no title", apperr.ErrMalformedNote)
	}
	if !h.Date.set {
		return nil, fmt.Errorf("%w: header has no date", apperr.ErrMalformedNote)
	}
	date, err := parseTime(h.Date.value)
	if err != nil {
		return nil, fmt.Errorf("%w: date: %v", apperr.ErrMalformedNote, err)
	}

	updated := date
	if raw := firstSet(h.Updated, h.LegacyUpdated, h.LegacyUpdatedSpace); raw != "" {
		if updated, err = parseTime(raw); err != nil {
			return nil, fmt.Errorf("%w: updated: %v", apperr.ErrMalformedNote, err)
		}
	}

	noteType := firstSet(h.Type, h.LegacyType)
	if noteType == "" {
		noteType = d.defaultType
	}
	if err := d.types.Check(noteType); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrMalformedNote, err)
	}

	return &models.Note{
		ID:          h.ID.value,
		Title:       h.Title.value,
		Date:        date,
		LastUpdated: updated,
		Tags:        []string(h.Tags),
		Parents:     []string(h.Parents),
		Type:        noteType,
		Content:     body,
		Bibkey:      h.Bibkey.value,
	}, nil
}

// splitDocument finds the first two delimiter lines. Anything before the first
// is ignored, the text between them is the header and everything after the
// second is the body, so delimiter lines inside the body are kept verbatim.
func splitDocument(text string) (string, string, error) {
	type span struct{ start, next int }
	var found []span

	for pos := 0; pos < len(text) && len(found) < 2; {
		next := len(text)
		line := text[pos:]
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
			next = pos + i + 1
		}
		if strings.TrimRight(line, " \t\r") == delimiter {
			found = append(found, span{start: pos, next: next})
		}
		pos = next
	}

	if len(found) < 2 {
		return "", "", fmt.Errorf("%w: expected a header between two %q lines, found %d", apperr.ErrMalformedNote, delimiter, len(found))
	}

	rawHeader := text[found[0].next:found[1].start]
	body := strings.TrimLeft(text[found[1].next:], " \t\r\n")
	return rawHeader, body, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{models.TimeLayout, time.RFC3339, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q (want %s)", s, models.TimeLayout)
}

func firstSet(values ...scalar) string {
	for _, v := range values {
		if v.set && v.value != "" {
			return v.value
		}
	}
	return ""
}

// scalar captures the literal text of a YAML scalar, so ids such as "007" or
// timestamps keep their exact spelling.
type scalar struct {
	value string
	set   bool
}

func (s *scalar) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a single value", n.Line)
	}
	s.value, s.set = n.Value, true
	return nil
}

// stringList accepts a YAML sequence of scalars or a single scalar.
type stringList []string

func (l *stringList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value == "" {
			*l = nil
			return nil
		}
		*l = stringList{n.Value}
		return nil
	case yaml.SequenceNode:
		out := make(stringList, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: list items must be single values", item.Line)
			}
			out = append(out, item.Value)
		}
		if len(out) == 0 {
			out = nil
		}
		*l = out
		return nil
	}
	return fmt.Errorf("line %d: expected a list", n.Line)
}
