// Package watcher wraps a debounced, recursive directory-tree observer.
// It blocks on the real OS filesystem-notification primitive
// (github.com/fsnotify/fsnotify) on its own goroutine and emits a typed
// FsEvent per coalesced change: Written, Removed, or Error. Directories
// are tracked internally (so new subdirectories are watched automatically)
// but are never reported as events; only regular files are.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcher is returned by Run when the OS watch primitive itself fails
// irrecoverably (not a per-path error, which is logged and skipped).
var ErrWatcher = errors.New("watcher: fatal error")

// Kind identifies the variant of an FsEvent.
type Kind int

const (
	Written Kind = iota
	Removed
	Error
)

// FsEvent is one coalesced, debounced filesystem event.
type FsEvent struct {
	Kind    Kind
	Path    string
	Message string
}

// Watcher observes watchPath recursively, coalescing rapid events per path
// within debounceTime into a single emitted FsEvent.
type Watcher struct {
	watchPath    string
	debounceTime time.Duration
	log          *slog.Logger
	events       chan FsEvent

	fsw       *fsnotify.Watcher
	debouncer *debouncer
}

// New constructs a Watcher rooted at watchPath. Events are delivered on
// the channel returned by Events(); the channel is closed when Run
// returns.
func New(watchPath string, debounceTime time.Duration, log *slog.Logger) *Watcher {
	w := &Watcher{
		watchPath:    watchPath,
		debounceTime: debounceTime,
		log:          log,
		events:       make(chan FsEvent, 64),
	}
	w.debouncer = newDebouncer(debounceTime, w.emitCoalesced)
	return w
}

// Events returns the channel FsEvents are delivered on.
func (w *Watcher) Events() <-chan FsEvent {
	return w.events
}

// Run blocks on the OS primitive until ctx is cancelled or an
// irrecoverable error occurs. It always closes the events channel before
// returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer w.debouncer.stop()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: create watcher: %v", ErrWatcher, err)
	}
	w.fsw = fsw
	defer fsw.Close()

	if err := w.addRecursive(w.watchPath); err != nil {
		return fmt.Errorf("%w: watch %s: %v", ErrWatcher, w.watchPath, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("%w: event channel closed", ErrWatcher)
			}
			w.handle(ev)

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("%w: error channel closed", ErrWatcher)
			}
			if w.log != nil {
				w.log.Warn("fsnotify error", "error", err)
			}
			w.events <- FsEvent{Kind: Error, Message: err.Error()}
		}
	}
}

// addRecursive registers watchPath and every subdirectory beneath it with
// the underlying fsnotify watcher.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if w.log != nil {
				w.log.Warn("walk watched tree", "path", path, "error", err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if addErr := w.fsw.Add(path); addErr != nil && w.log != nil {
			w.log.Warn("watch directory", "path", path, "error", addErr)
		}
		return nil
	})
}

// handle classifies one raw fsnotify.Event and feeds it to the debouncer.
// Newly created directories are added to the watch set on the spot so
// files written into them are observed too; directory events themselves
// are never forwarded as FsEvents.
func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create) != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.addRecursive(ev.Name)
			return
		}
	}

	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.debouncer.add(ev.Name, Removed)
	case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			return
		}
		w.debouncer.add(ev.Name, Written)
	}
}

// emitCoalesced is the debouncer's callback: it pushes one coalesced
// FsEvent per path onto the output channel, non-blocking so a stalled
// consumer cannot wedge the fsnotify event loop.
func (w *Watcher) emitCoalesced(path string, kind Kind) {
	select {
	case w.events <- FsEvent{Kind: kind, Path: path}:
	default:
		if w.log != nil {
			w.log.Warn("dropping fs event, events channel full", "path", path)
		}
	}
}
