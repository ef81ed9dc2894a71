// package imgsource watches a wallpaper directory for filesystem changes and
// translates raw fsnotify events into four kinds: a path appearing, a path
// being removed or renamed away, a path being renamed in, and a file being
// modified in place. Ordering beyond kind is not guaranteed.
package imgsource

import (
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/fennwick/glowwall/common"
)

// EventKind classifies a filesystem change observed in a watched directory.
type EventKind int

const (
	// Created is a new file appearing in the directory.
	Created EventKind = iota
	// RemovedRenamedAway is a file disappearing, whether deleted or renamed
	// out of the directory.
	RemovedRenamedAway
	// RenamedInto is a file appearing in the directory as the target of a
	// rename.
	RenamedInto
	// Modified is a file's contents changing in place.
	Modified
)

// Event is a single translated filesystem change.
type Event struct {
	Kind EventKind
	Path string
}

// Watcher watches one directory and emits translated Events. A Watcher on a
// directory that does not exist at construction time degrades to an idle
// watcher: it logs a warning, never emits events, and Close is a no-op. This
// matches the spec's "non-existent directory" error-handling row: the
// wallpaper becomes empty rather than the engine aborting.
type Watcher struct {
	events chan Event
	fsw    *fsnotify.Watcher
	done   chan struct{}
}

// NewWatcher starts watching dir. If dir cannot be watched (most commonly
// because it does not exist), NewWatcher logs a warning and returns an idle
// Watcher rather than an error: callers should still be able to select on
// Events() without special-casing construction failure.
func NewWatcher(dir string, logger *slog.Logger) *Watcher {
	logger = common.Coalesce(logger, slog.Default())

	if _, err := os.Stat(dir); err != nil {
		logger.Warn("imgsource: directory unavailable, watcher idle", "dir", dir, "error", err)
		return &Watcher{events: make(chan Event)}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("imgsource: failed to create watcher, watcher idle", "dir", dir, "error", err)
		return &Watcher{events: make(chan Event)}
	}

	if err := fsw.Add(dir); err != nil {
		logger.Warn("imgsource: failed to watch directory, watcher idle", "dir", dir, "error", err)
		fsw.Close()
		return &Watcher{events: make(chan Event)}
	}

	w := &Watcher{
		events: make(chan Event, 16),
		fsw:    fsw,
		done:   make(chan struct{}),
	}
	go w.run(logger)
	return w
}

// Events returns the channel of translated events. It is never closed while
// the Watcher is open; callers should stop reading after Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Close stops watching and releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	if w.fsw == nil {
		return nil
	}
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) run(logger *slog.Logger) {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if kind, ok := translate(ev.Op); ok {
				select {
				case w.events <- Event{Kind: kind, Path: ev.Name}:
				case <-w.done:
					return
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("imgsource: watcher error", "error", err)
		}
	}
}

// translate maps an fsnotify op to one of the four event kinds. fsnotify
// reports the source side of a rename as Rename (the path that vanished) and
// the destination side, when it lands inside a watched directory, as a plain
// Create; there is no distinct "rename-into" op at this layer; downstream
// consumers treat Created and RenamedInto identically anyway (both prepend
// to the image queue), so collapsing rename-target onto Created loses no
// behavior.
func translate(op fsnotify.Op) (EventKind, bool) {
	switch {
	case op&fsnotify.Remove != 0:
		return RemovedRenamedAway, true
	case op&fsnotify.Rename != 0:
		return RemovedRenamedAway, true
	case op&fsnotify.Write != 0:
		return Modified, true
	case op&fsnotify.Create != 0:
		return Created, true
	}
	return 0, false
}
