package index

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(kind, name string) {
	r.mu.Lock()
	r.events = append(r.events, kind+":"+name)
	r.mu.Unlock()
}

func (r *recorder) has(e string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.events, e)
}

func startWatcher(t *testing.T) (string, *recorder) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rec := &recorder{}
	go Watch(ctx, dir, 30*time.Millisecond, logger, rec.record)
	time.Sleep(100 * time.Millisecond)
	return dir, rec
}

func TestWatcher_NewNoteReported(t *testing.T) {
	dir, rec := startWatcher(t)

	_ = os.WriteFile(filepath.Join(dir, "1 - New.md"), []byte("---"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, ".slipbox-tmp-123"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "image.png"), []byte("x"), 0o644)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return rec.has("created:1 - New.md")
	}, "expected created:1 - New.md")

	time.Sleep(100 * time.Millisecond)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 1 {
		t.Errorf("events = %v, want only the note", rec.events)
	}
}

func TestWatcher_DeleteReported(t *testing.T) {
	dir, rec := startWatcher(t)
	path := filepath.Join(dir, "2 - Gone.md")
	_ = os.WriteFile(path, []byte("---"), 0o644)
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return rec.has("created:2 - Gone.md")
	}, "create not seen")

	_ = os.Remove(path)
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return rec.has("deleted:2 - Gone.md")
	}, "expected deleted:2 - Gone.md")
}

func TestWatcher_RenameReportsBothNames(t *testing.T) {
	dir, rec := startWatcher(t)
	oldPath := filepath.Join(dir, "3 - Old.md")
	_ = os.WriteFile(oldPath, []byte("---"), 0o644)
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return rec.has("created:3 - Old.md")
	}, "create not seen")

	_ = os.Rename(oldPath, filepath.Join(dir, "3 - New.md"))
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return rec.has("deleted:3 - Old.md") && rec.has("created:3 - New.md")
	}, "rename should report deleted old name and created new name")
}

func TestMerge(t *testing.T) {
	tests := []struct{ prev, next, want string }{
		{"", EventUpdated, EventUpdated},
		{EventCreated, EventUpdated, EventCreated},
		{EventUpdated, EventDeleted, EventDeleted},
		{EventDeleted, EventCreated, EventUpdated},
		{EventUpdated, EventUpdated, EventUpdated},
	}
	for _, tt := range tests {
		if got := merge(tt.prev, tt.next); got != tt.want {
			t.Errorf("merge(%q, %q) = %q, want %q", tt.prev, tt.next, got, tt.want)
		}
	}
	if classify(fsnotify.Chmod) != "" {
		t.Error("chmod should be ignored")
	}
}
