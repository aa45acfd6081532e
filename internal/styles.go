package internal

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// styles renders command output. The renderer is bound to the output
// writer, so styling disappears when it is not a terminal.
type styles struct {
	heading lipgloss.Style
	id      lipgloss.Style
	dim     lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		id:      r.NewStyle().Foreground(lipgloss.Color("81")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("244")),
		ok:      r.NewStyle().Foreground(lipgloss.Color("42")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
	}
}
