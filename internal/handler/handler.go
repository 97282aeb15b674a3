// Package handler serialises filesystem events and user actions against
// the Store and pushes refreshed views: one goroutine per input channel
// (fs events, undo requests, redo requests, time-frame changes), all four
// holding a single mutex for the duration of one message, publishing the
// resulting view while still holding it so views reach the UI in the same
// total order mutations occurred in.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wolfbiker1/autostash/internal/diffengine"
	"github.com/wolfbiker1/autostash/internal/store"
	"github.com/wolfbiker1/autostash/internal/watcher"
)

// UndoRequest asks the handler to move path's cursor back by N.
type UndoRequest struct {
	Path string
	N    int
}

// RedoRequest asks the handler to move path's cursor forward by N.
type RedoRequest struct {
	Path string
	N    int
}

// ErrStoreFatal wraps a Store persistence failure. Receiving one on the
// Fatal channel means the Coordinator must tear the process down.
var ErrStoreFatal = errors.New("handler: store fatal error")

// Handler owns the Store on behalf of every input channel and is the sole
// component permitted to mutate it.
type Handler struct {
	mu    sync.Mutex
	store *store.Store
	log   *slog.Logger

	views chan<- store.Snapshot
	fatal chan<- error
}

// New constructs a Handler around store, publishing views on views and
// reporting fatal persistence errors on fatal.
func New(s *store.Store, views chan<- store.Snapshot, fatal chan<- error, log *slog.Logger) *Handler {
	return &Handler{store: s, views: views, fatal: fatal, log: log}
}

// InitialView publishes the store's current snapshot once at startup,
// before any input loop has run, so the UI has something to show
// immediately.
func (h *Handler) InitialView() {
	h.mu.Lock()
	snapshot := h.store.Snapshot()
	h.mu.Unlock()
	h.views <- snapshot
}

// RunFSEvents consumes fs events until events is closed or ctx is done.
func (h *Handler) RunFSEvents(ctx context.Context, events <-chan watcher.FsEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.handleFsEvent(ev)
		}
	}
}

// RunUndo consumes undo requests until reqs is closed or ctx is done.
func (h *Handler) RunUndo(ctx context.Context, reqs <-chan UndoRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-reqs:
			if !ok {
				return
			}
			h.mutateAndPublish(func() error { return h.store.UndoBy(req.Path, req.N) })
		}
	}
}

// RunRedo consumes redo requests until reqs is closed or ctx is done.
func (h *Handler) RunRedo(ctx context.Context, reqs <-chan RedoRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-reqs:
			if !ok {
				return
			}
			h.mutateAndPublish(func() error { return h.store.RedoBy(req.Path, req.N) })
		}
	}
}

// RunTimeFrame consumes time-frame changes until changes is closed or ctx
// is done.
func (h *Handler) RunTimeFrame(ctx context.Context, changes <-chan store.TimeFrame) {
	for {
		select {
		case <-ctx.Done():
			return
		case tf, ok := <-changes:
			if !ok {
				return
			}
			h.mutateAndPublish(func() error {
				h.store.SetTimeFrame(tf)
				return nil
			})
		}
	}
}

func (h *Handler) handleFsEvent(ev watcher.FsEvent) {
	switch ev.Kind {
	case watcher.Written:
		h.onWrite(ev.Path)
	case watcher.Removed:
		h.onRemove(ev.Path)
	case watcher.Error:
		if h.log != nil {
			h.log.Warn("watcher reported error", "message", ev.Message)
		}
	}
}

// onWrite handles a Write(p) event: ensure_entry, diff against the prior
// applied content, append if non-empty, publish.
func (h *Handler) onWrite(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.EnsureEntry(path); err != nil {
		h.reportFatalLocked(err)
		return
	}
	prior := h.store.AppliedChanges(path)
	delta, err := diffengine.Diff(h.log, path, prior)
	if err != nil {
		if h.log != nil {
			h.log.Warn("diff failed, dropping event", "path", path, "error", err)
		}
		return
	}
	if len(delta) == 0 {
		return
	}
	if err := h.store.Append(path, delta); err != nil {
		h.reportFatalLocked(err)
		return
	}
	h.views <- h.store.Snapshot()
}

// onRemove handles a Remove(p) event: synthesise one deletion per
// surviving line so undo can restore the file.
func (h *Handler) onRemove(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.EnsureEntry(path); err != nil {
		h.reportFatalLocked(err)
		return
	}
	prior := h.store.AppliedChanges(path)
	lines, _ := diffengine.Materialize(prior)
	if len(lines) == 0 {
		return
	}

	// Every surviving line becomes its own deletion entry. Materialize
	// removes at a working position one entry at a time, so once the first
	// entry removes the line at position 1, the next surviving line is now
	// at position 1 too; all entries are numbered 1 for that reason (see
	// diffengine.Diff's deletedCount adjustment for the general case).
	synthetic := make([]diffengine.LineDifference, len(lines))
	now := time.Now()
	for i, line := range lines {
		synthetic[i] = diffengine.LineDifference{
			Path:       path,
			LineNumber: 1,
			Before:     line,
			After:      "",
			Timestamp:  now,
		}
	}
	if err := h.store.Append(path, synthetic); err != nil {
		h.reportFatalLocked(err)
		return
	}
	h.views <- h.store.Snapshot()
}

func (h *Handler) mutateAndPublish(mutate func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := mutate(); err != nil {
		h.reportFatalLocked(err)
		return
	}
	h.views <- h.store.Snapshot()
}

// reportFatalLocked sends a StoreFatal error while h.mu is already held by
// the caller; it does not unlock, since the caller's defer will.
func (h *Handler) reportFatalLocked(err error) {
	wrapped := fmt.Errorf("%w: %v", ErrStoreFatal, err)
	if h.log != nil {
		h.log.Error("store mutation failed", "error", wrapped)
	}
	select {
	case h.fatal <- wrapped:
	default:
	}
}
