package internal

import (
	"io"
	"log/slog"
	"time"

	"github.com/starford/slipbox/internal/editor"
	"github.com/starford/slipbox/internal/render"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	root   string
	logger *slog.Logger
	out    io.Writer
	editor editor.Launcher
	now    func() time.Time
	pandoc render.Runner
}

// WithConfig sets the application configuration. Without it the marker
// file in the repository root is loaded.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithRoot sets the repository root. Without it the root is found from the
// working directory.
func WithRoot(root string) Option {
	return func(a *application) {
		a.root = root
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithOutput sets where command output is printed.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}

// WithEditor sets the editor used by create --edit and edit.
func WithEditor(e editor.Launcher) Option {
	return func(a *application) {
		a.editor = e
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *application) {
		a.now = now
	}
}

// WithPandocRunner replaces the pandoc process runner used by pdf.
func WithPandocRunner(run render.Runner) Option {
	return func(a *application) {
		a.pandoc = run
	}
}
