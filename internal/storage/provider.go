// Package storage defines the repository file-system abstraction.
package storage

import (
	"context"
	"time"
)

// Entry describes one regular file returned by List.
type Entry struct {
	Path    string // relative to the repository root
	Name    string
	Size    int64
	ModTime time.Time
}

// Provider is the interface for repository file operations. Every path is
// relative to the repository root.
type Provider interface {
	// List returns the regular, non-hidden files directly inside dir.
	List(dir string) ([]Entry, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path with content.
	Write(path string, content []byte) error
	// Exists reports whether a file or directory exists at path.
	Exists(path string) (bool, error)
	// MkdirAll creates dir and any missing parents.
	MkdirAll(dir string) error
	// Lock takes the repository's advisory write lock. The returned function
	// releases it.
	Lock(ctx context.Context) (unlock func(), err error)
	// Abs returns the absolute path for a relative one.
	Abs(path string) (string, error)
}
