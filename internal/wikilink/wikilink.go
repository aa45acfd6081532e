// Package wikilink extracts and rewrites note link markers in free text.
//
// Two syntaxes are recognised when reading: the current double-bracket form
// ([[12]] or [[12|label]]) and the legacy Markdown form ([label](12.md)).
// Only the current form is ever written.
package wikilink

import (
	"regexp"
	"sort"
	"strings"
)

// Syntax describes one link marker form.
type Syntax struct {
	Name string
	re   *regexp.Regexp
	// idGroup and labelGroup are submatch indexes; labelGroup may be 0.
	idGroup    int
	labelGroup int
}

var (
	// Current is the form written by slipbox: [[id]] with an optional |label.
	Current = Syntax{
		Name:       "wikilink",
		re:         regexp.MustCompile(`\[\[([^\[\]|]*?)(?:\|([^\[\]]*))?\]\]`),
		idGroup:    1,
		labelGroup: 2,
	}

	// Legacy is the Markdown link form used by early repositories: [label](id.md).
	Legacy = Syntax{
		Name:       "markdown",
		re:         regexp.MustCompile(`\[([^\[\]]*)\]\(\s*(?:\./)?([^()\s/]+)\.md\s*\)`),
		idGroup:    2,
		labelGroup: 1,
	}

	syntaxes = []Syntax{Current, Legacy}
)

// Match is a single marker found in content.
type Match struct {
	Syntax string
	ID     string
	Label  string
	Start  int
	End    int
}

// Find returns every non-overlapping marker in content, in document order.
// Markers with an empty id are skipped.
func Find(content string) []Match {
	var out []Match
	for _, s := range syntaxes {
		for _, loc := range s.re.FindAllStringSubmatchIndex(content, -1) {
			id := strings.TrimSpace(group(content, loc, s.idGroup))
			if id == "" {
				continue
			}
			out = append(out, Match{
				Syntax: s.Name,
				ID:     id,
				Label:  strings.TrimSpace(group(content, loc, s.labelGroup)),
				Start:  loc[0],
				End:    loc[1],
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })

	// Drop matches that overlap an earlier one.
	kept := out[:0]
	end := -1
	for _, m := range out {
		if m.Start < end {
			continue
		}
		kept = append(kept, m)
		end = m.End
	}
	return kept
}

// Extract returns the referenced ids in document order. Duplicates are kept.
func Extract(content string) []string {
	matches := Find(content)
	if len(matches) == 0 {
		return nil
	}
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return ids
}

// Unique removes duplicate ids, keeping the first occurrence.
func Unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Format renders a link to id in the current syntax.
func Format(id string) string {
	return "[[" + id + "]]"
}

// Rewrite replaces every marker in content with the result of fn.
func Rewrite(content string, fn func(Match) string) string {
	matches := Find(content)
	if len(matches) == 0 {
		return content
	}
	var b strings.Builder
	b.Grow(len(content))
	last := 0
	for _, m := range matches {
		b.WriteString(content[last:m.Start])
		b.WriteString(fn(m))
		last = m.End
	}
	b.WriteString(content[last:])
	return b.String()
}

func group(s string, loc []int, n int) string {
	if n <= 0 || 2*n+1 >= len(loc) || loc[2*n] < 0 {
		return ""
	}
	return s[loc[2*n]:loc[2*n+1]]
}
