package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/starford/slipbox/internal/apperr"
	"github.com/starford/slipbox/internal/models"
)

// ParseFilename splits "<id> - <title>.md" into its id and title. Only the
// first separator counts, so titles may themselves contain " - ".
func ParseFilename(name string) (id, title string, err error) {
	base := filepath.Base(name)
	stem, ok := strings.CutSuffix(base, models.NoteExt)
	if !ok {
		return "", "", fmt.Errorf("%w: %q does not end in %s", apperr.ErrFilenameFormat, base, models.NoteExt)
	}
	id, title, ok = strings.Cut(stem, models.FilenameSeparator)
	if !ok || id == "" || title == "" {
		return "", "", fmt.Errorf("%w: %q is not of the form \"<id>%s<title>%s\"",
			apperr.ErrFilenameFormat, base, models.FilenameSeparator, models.NoteExt)
	}
	return id, title, nil
}
