package watcher

import (
	"sync"
	"time"
)

// debouncer coalesces rapid per-path events into a single emit after the
// configured window has elapsed with no further activity for that path.
// The alphabet is just Written/Removed: a file is one or the other at any
// instant, so the latest kind observed within the window wins.
type debouncer struct {
	window time.Duration
	emit   func(path string, kind Kind)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func newDebouncer(window time.Duration, emit func(path string, kind Kind)) *debouncer {
	if window <= 0 {
		window = time.Millisecond
	}
	return &debouncer{
		window: window,
		emit:   emit,
		timers: make(map[string]*time.Timer),
	}
}

// add records the latest event kind observed for path, (re)scheduling its
// flush window to fire `window` from now. A Written immediately followed
// by a Removed (or vice versa) before the window elapses simply replaces
// the pending kind — last write wins. Renames surface as an independent
// remove of the old path plus write of the new one; each path's history
// stays independent.
func (d *debouncer) add(path string, kind Kind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if t, ok := d.timers[path]; ok {
		t.Stop()
	}
	d.timers[path] = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		delete(d.timers, path)
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			d.emit(path, kind)
		}
	})
}

// stop cancels every pending timer. Safe to call multiple times.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	for _, t := range d.timers {
		t.Stop()
	}
	d.timers = nil
}
