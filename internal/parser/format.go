package parser

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/starford/slipbox/internal/models"
)

// Encode renders n in the on-disk format. Keys are always written in the same
// order; bibkey is only written for reference notes. Encode is pure: bumping
// LastUpdated and writing the file are the repository's job.
func Encode(n *models.Note) []byte {
	var b bytes.Buffer
	b.Grow(len(n.Content) + 256)

	b.WriteString(delimiter + "\n")
	writeField(&b, "id", formatID(n.ID))
	writeField(&b, "title", strconv.Quote(n.Title))
	writeField(&b, "date", formatTime(n.Date))
	writeField(&b, "updated", formatTime(n.LastUpdated))
	writeField(&b, "tags", formatList(n.Tags, strconv.Quote))
	writeField(&b, "parents", formatList(n.Parents, formatID))
	writeField(&b, "type", strconv.Quote(n.Type))
	if n.IsReference() {
		writeField(&b, "bibkey", strconv.Quote(n.Bibkey))
	}
	b.WriteString(delimiter + "\n\n")
	b.WriteString(n.Content)
	return b.Bytes()
}

// formatTime writes t as local wall-clock time, the zone Decode reads it in.
func formatTime(t time.Time) string {
	return t.In(time.Local).Format(models.TimeLayout)
}

func writeField(b *bytes.Buffer, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte('\n')
}

// formatID leaves numeric ids bare, matching how they were always written,
// and quotes anything else.
func formatID(id string) string {
	if id == "" {
		return strconv.Quote(id)
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return strconv.Quote(id)
		}
	}
	return id
}

func formatList(items []string, format func(string) string) string {
	if len(items) == 0 {
		return "[]"
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = format(item)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
