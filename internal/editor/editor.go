// Package editor hands a note file to the user's interactive editor.
package editor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Launcher opens a file and blocks until the editor exits.
type Launcher interface {
	Edit(ctx context.Context, path string) error
}

// Command runs an editor command line with the terminal attached.
type Command struct {
	// Argv is the editor command, e.g. ["vim"] or ["code", "--wait"].
	Argv   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// FromEnv picks the editor from $VISUAL, then $EDITOR, then "vi".
func FromEnv() *Command {
	line := os.Getenv("VISUAL")
	if line == "" {
		line = os.Getenv("EDITOR")
	}
	if line == "" {
		line = "vi"
	}
	return &Command{
		Argv:   strings.Fields(line),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Edit implements Launcher.
func (c *Command) Edit(ctx context.Context, path string) error {
	if len(c.Argv) == 0 {
		return fmt.Errorf("editor: no editor configured")
	}
	args := append(append([]string{}, c.Argv[1:]...), path)
	cmd := exec.CommandContext(ctx, c.Argv[0], args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = c.Stdin, c.Stdout, c.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor: %s: %w", c.Argv[0], err)
	}
	return nil
}
