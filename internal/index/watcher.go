package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/slipbox/internal/models"
)

// Event kinds reported by Watch.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventCallback is called once per changed note file after a quiet period.
// name is the file's base name.
type EventCallback func(kind string, name string)

// DefaultDebounce is how long Watch waits for a burst of events to settle.
const DefaultDebounce = 150 * time.Millisecond

// Watch reports changes to note files directly inside dir until ctx is
// cancelled. Hidden files, temporary files and non-note files are ignored.
// Events for the same file within the debounce window are coalesced: a file
// created and then written reports "created", anything removed reports
// "deleted".
func Watch(ctx context.Context, dir string, debounce time.Duration, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	logger.Info("watcher: started", slog.String("dir", dir))

	pending := make(map[string]string)
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	schedule := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(debounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				logger.Debug("watcher: change", slog.String("file", name), slog.String("op", pending[name]))
				if cb != nil {
					cb(pending[name], name)
				}
			}
			clear(pending)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if !isNoteFile(name) {
				continue
			}
			kind := classify(ev.Op)
			if kind == "" {
				continue
			}
			pending[name] = merge(pending[name], kind)
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func isNoteFile(name string) bool {
	return !strings.HasPrefix(name, ".") && strings.HasSuffix(name, models.NoteExt)
}

// classify maps an fsnotify op to an event kind. fsnotify reports a rename
// on the old name only; the new name arrives as a separate create.
func classify(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return EventCreated
	case op&fsnotify.Write != 0:
		return EventUpdated
	case op&(fsnotify.Remove|fsnotify.Rename) != 0:
		return EventDeleted
	}
	return ""
}

// merge folds a new event into the one already pending for the same file.
func merge(prev, next string) string {
	switch {
	case prev == "":
		return next
	case next == EventDeleted:
		return EventDeleted
	case prev == EventCreated:
		return EventCreated
	case prev == EventDeleted:
		// removed and recreated: an atomic save
		return EventUpdated
	}
	return next
}
