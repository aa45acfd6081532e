package parser

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/starford/slipbox/internal/apperr"
	"github.com/starford/slipbox/internal/models"
)

var testTypes = models.TypeSet{"Inbox", "Archive", "Reference", "Index"}

func testDecoder() *Decoder { return NewDecoder(testTypes, "Inbox") }

func ts(s string) time.Time {
	t, err := time.ParseInLocation(models.TimeLayout, s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	notes := []*models.Note{
		{
			ID: "1", Title: "Alpha", Date: ts("2024-03-01 09:30:00"), LastUpdated: ts("2024-03-02 10:00:00"),
			Type: "Inbox",
		},
		{
			ID: "2", Title: `Beta: "quoted" & colon`, Date: ts("2024-03-01 09:30:00"), LastUpdated: ts("2024-03-01 09:30:00"),
			Tags: []string{"go", "yes", "with space", "ünïcode"}, Parents: []string{"1"},
			Type: "Archive", Content: "see [[1]]\n\n---\n\nafter a rule\n--- not a rule\n",
		},
		{
			ID: "20240301093000", Title: "Paper - a---b", Date: ts("2024-03-01 09:30:00"), LastUpdated: ts("2024-03-05 12:00:01"),
			Type: "Reference", Bibkey: "knuth1984", Content: "# Literate programming\n\nbody",
		},
		{
			// Written from a clock in another zone; only the instant survives.
			ID: "5", Title: "Elsewhere", Date: time.Date(2024, 1, 1, 9, 0, 0, 0, time.FixedZone("PKT", 5*3600)),
			LastUpdated: time.Date(2024, 1, 2, 9, 0, 0, 0, time.FixedZone("EST", -5*3600)),
			Type: "Inbox", Tags: []string{"ÿ"},
		},
	}

	dec := testDecoder()
	for _, want := range notes {
		got, err := dec.Decode(Encode(want))
		if err != nil {
			t.Fatalf("note %s: Decode: %v", want.ID, err)
		}
		if got.ID != want.ID || got.Title != want.Title || got.Type != want.Type ||
			got.Bibkey != want.Bibkey || got.Content != want.Content {
			t.Errorf("note %s: scalar mismatch\n got %+v\nwant %+v", want.ID, got, want)
		}
		if !got.Date.Equal(want.Date) || !got.LastUpdated.Equal(want.LastUpdated) {
			t.Errorf("note %s: timestamps %v/%v, want %v/%v", want.ID, got.Date, got.LastUpdated, want.Date, want.LastUpdated)
		}
		if !slices.Equal(got.Tags, want.Tags) || !slices.Equal(got.Parents, want.Parents) {
			t.Errorf("note %s: lists tags=%v parents=%v", want.ID, got.Tags, got.Parents)
		}
	}
}

func TestEncode_Layout(t *testing.T) {
	n := &models.Note{
		ID: "2", Title: "Beta", Date: ts("2024-03-01 09:30:00"), LastUpdated: ts("2024-03-01 10:00:00"),
		Tags: []string{"a", "b"}, Parents: []string{"1"}, Type: "Archive", Content: "see [[1]]",
	}
	want := "---\n" +
		"id: 2\n" +
		"title: \"Beta\"\n" +
		"date: 2024-03-01 09:30:00\n" +
		"updated: 2024-03-01 10:00:00\n" +
		"tags: [\"a\", \"b\"]\n" +
		"parents: [1]\n" +
		"type: \"Archive\"\n" +
		"---\n\n" +
		"see [[1]]"
	if got := string(Encode(n)); got != want {
		t.Errorf("Encode =\n%s\nwant\n%s", got, want)
	}
}

func TestEncode_BibkeyOnlyForReference(t *testing.T) {
	n := &models.Note{ID: "1", Title: "T", Date: ts("2024-01-01 00:00:00"), LastUpdated: ts("2024-01-01 00:00:00"), Type: "Inbox", Bibkey: "x"}
	if strings.Contains(string(Encode(n)), "bibkey") {
		t.Error("bibkey written for non-reference note")
	}
	n.Type = "Reference"
	if !strings.Contains(string(Encode(n)), "bibkey: \"x\"\n") {
		t.Error("bibkey missing for reference note")
	}
}

func TestEncode_EmptyListsUseSentinel(t *testing.T) {
	n := &models.Note{ID: "1", Title: "T", Date: ts("2024-01-01 00:00:00"), LastUpdated: ts("2024-01-01 00:00:00"), Type: "Inbox"}
	out := string(Encode(n))
	if !strings.Contains(out, "tags: []\n") || !strings.Contains(out, "parents: []\n") {
		t.Errorf("missing empty list sentinel:\n%s", out)
	}
}

func TestDecode_MissingClosingDelimiter(t *testing.T) {
	_, err := testDecoder().Decode([]byte("---\nid: 1\ntitle: \"A\"\ndate: 2024-01-01 00:00:00\n\nbody"))
	if !errors.Is(err, apperr.ErrMalformedNote) {
		t.Fatalf("err = %v, want ErrMalformedNote", err)
	}
}

func TestDecode_InvalidYAML(t *testing.T) {
	_, err := testDecoder().Decode([]byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if !errors.Is(err, apperr.ErrMalformedNote) {
		t.Fatalf("err = %v, want ErrMalformedNote", err)
	}
}

func TestDecode_InvalidType(t *testing.T) {
	doc := "---\nid: 1\ntitle: \"A\"\ndate: 2024-01-01 00:00:00\ntype: \"Journal\"\n---\n\nbody"
	_, err := testDecoder().Decode([]byte(doc))
	if !errors.Is(err, apperr.ErrMalformedNote) || !errors.Is(err, apperr.ErrInvalidNoteType) {
		t.Fatalf("err = %v, want ErrMalformedNote and ErrInvalidNoteType", err)
	}
}

func TestDecode_MissingTitleOrDate(t *testing.T) {
	for _, doc := range []string{
		"---\nid: 1\ndate: 2024-01-01 00:00:00\n---\nbody",
		"---\nid: 1\ntitle: \"A\"\n---\nbody",
		"---\nid: 1\ntitle: \"A\"\ndate: yesterday\n---\nbody",
	} {
		if _, err := testDecoder().Decode([]byte(doc)); !errors.Is(err, apperr.ErrMalformedNote) {
			t.Errorf("doc %q: err = %v, want ErrMalformedNote", doc, err)
		}
	}
}

func TestDecode_Defaults(t *testing.T) {
	n, err := testDecoder().Decode([]byte("---\nid: 3\ntitle: \"Gamma\"\ndate: 2024-01-01 08:00:00\n---\n\n\n  body text\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n.Type != "Inbox" {
		t.Errorf("type = %q, want default Inbox", n.Type)
	}
	if !n.LastUpdated.Equal(n.Date) {
		t.Errorf("updated = %v, want date %v", n.LastUpdated, n.Date)
	}
	if n.Tags != nil || n.Parents != nil || n.Bibkey != "" {
		t.Errorf("expected empty optional fields, got %+v", n)
	}
	if n.Content != "body text\n" {
		t.Errorf("content = %q", n.Content)
	}
}

func TestDecode_LegacyHeader(t *testing.T) {
	doc := "---\n" +
		"id: 4\n" +
		"title: \"Old\"\n" +
		"date: 2019-05-01 08:00:00\n" +
		"last updated: 2019-05-02 08:00:00\n" +
		"tags: ['zettel', 'go']\n" +
		"parents: \n" +
		"note_type: Archive\n" +
		"---\n\n" +
		"[link](1.md)"
	n, err := testDecoder().Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n.Type != "Archive" {
		t.Errorf("type = %q", n.Type)
	}
	if !n.LastUpdated.Equal(ts("2019-05-02 08:00:00")) {
		t.Errorf("updated = %v", n.LastUpdated)
	}
	if !slices.Equal(n.Tags, []string{"zettel", "go"}) || len(n.Parents) != 0 {
		t.Errorf("tags=%v parents=%v", n.Tags, n.Parents)
	}
	if links := n.LinkedNotes(); len(links) != 1 || links[0] != "1" {
		t.Errorf("legacy link not recognised: %v", links)
	}
}

func TestDecode_PreambleIgnored(t *testing.T) {
	doc := "stray text\n---\nid: 1\ntitle: \"A\"\ndate: 2024-01-01 00:00:00\n---\nbody"
	n, err := testDecoder().Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n.Title != "A" || n.Content != "body" {
		t.Errorf("got %+v", n)
	}
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name      string
		id, title string
		wantErr   bool
	}{
		{name: "1 - Alpha.md", id: "1", title: "Alpha"},
		{name: "/notes/12 - Gamma - part two.md", id: "12", title: "Gamma - part two"},
		{name: "20240101120000 - Ts.md", id: "20240101120000", title: "Ts"},
		{name: "Alpha.md", wantErr: true},
		{name: "1 - Alpha.txt", wantErr: true},
		{name: " - Alpha.md", wantErr: true},
	}
	for _, tt := range tests {
		id, title, err := ParseFilename(tt.name)
		if tt.wantErr {
			if !errors.Is(err, apperr.ErrFilenameFormat) {
				t.Errorf("%q: err = %v, want ErrFilenameFormat", tt.name, err)
			}
			continue
		}
		if err != nil || id != tt.id || title != tt.title {
			t.Errorf("%q: got (%q, %q, %v)", tt.name, id, title, err)
		}
	}
}
