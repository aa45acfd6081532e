package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/starford/slipbox/internal/models"
	"github.com/starford/slipbox/internal/storage"
)

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the command with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// PandocRenderer converts note files to PDF by running pandoc. The note file
// is only ever read.
type PandocRenderer struct {
	store      storage.Provider
	outDir     string
	binary     string
	tikzFormat string
	run        Runner
}

// NewPandocRenderer writes PDFs into outDir, relative to the store root.
// run may be nil to use ExecRunner.
func NewPandocRenderer(store storage.Provider, outDir, tikzFormat string, run Runner) *PandocRenderer {
	if run == nil {
		run = ExecRunner
	}
	return &PandocRenderer{
		store:      store,
		outDir:     outDir,
		binary:     "pandoc",
		tikzFormat: tikzFormat,
		run:        run,
	}
}

// OutputName implements Renderer.
func (r *PandocRenderer) OutputName(id string) string { return id + ".pdf" }

// Render implements Renderer.
func (r *PandocRenderer) Render(ctx context.Context, doc Document) (string, error) {
	if err := r.store.MkdirAll(r.outDir); err != nil {
		return "", err
	}
	out, err := r.store.Abs(filepath.Join(r.outDir, r.OutputName(doc.Note.ID)))
	if err != nil {
		return "", err
	}

	args := []string{
		doc.Source,
		"--from=markdown",
		"--standalone",
		"--output=" + out,
		"--metadata=title:" + doc.Note.Title,
		"--metadata=date:" + doc.Note.Date.Format(models.TimeLayout),
		"--variable=tikz_format:" + r.tikzFormat,
	}
	for _, s := range []struct {
		name  string
		notes []*models.Note
	}{
		{"links_in", doc.Refs.LinksIn},
		{"links_out", doc.Refs.LinksOut},
		{"parents", doc.Refs.Parents},
		{"children", doc.Refs.Children},
	} {
		if len(s.notes) > 0 {
			args = append(args, "--variable="+s.name+":"+refList(s.notes))
		}
	}

	if output, err := r.run(ctx, r.binary, args...); err != nil {
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			return "", fmt.Errorf("render: pandoc %s: %w", doc.Note.ID, err)
		}
		return "", fmt.Errorf("render: pandoc %s: %w: %s", doc.Note.ID, err, msg)
	}
	return out, nil
}

func refList(notes []*models.Note) string {
	parts := make([]string, len(notes))
	for i, n := range notes {
		parts[i] = fmt.Sprintf("[%s] - %s", n.ID, n.Title)
	}
	return strings.Join(parts, "; ")
}
