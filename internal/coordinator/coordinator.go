// Package coordinator owns the channels connecting the UI, the Event
// Handler, and the Watcher, and drives their lifecycle: construct every
// channel, spawn the Watcher and the Handler's four input loops, run the
// UI program, and block until either the UI quits or a fatal error
// arrives, then tear everything down in order.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wolfbiker1/autostash/internal/handler"
	"github.com/wolfbiker1/autostash/internal/store"
	"github.com/wolfbiker1/autostash/internal/tui"
	"github.com/wolfbiker1/autostash/internal/watcher"
)

// ErrUIInit wraps a failure to start or run the Bubble Tea program (most
// commonly: no TTY available). cmd/autostash maps it to a distinct exit
// code so it can be told apart from an argument or storage failure.
var ErrUIInit = errors.New("coordinator: ui error")

// Config bundles the inputs Coordinator needs beyond the already-open
// Store.
type Config struct {
	WatchPath    string
	DebounceTime time.Duration
}

// Coordinator wires the pipeline together and runs it to completion.
type Coordinator struct {
	cfg   Config
	store *store.Store
	log   *slog.Logger
}

// New constructs a Coordinator around an already-open Store.
func New(cfg Config, s *store.Store, log *slog.Logger) *Coordinator {
	return &Coordinator{cfg: cfg, store: s, log: log}
}

// Run blocks until the UI is quit (keypress "q") or a fatal error is
// observed, then performs an ordered shutdown: cancel every goroutine,
// wait for them to return, flush the Store. It returns the fatal error,
// if any, or nil on a clean quit.
func (c *Coordinator) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	views := make(chan store.Snapshot, 8)
	fatal := make(chan error, 4)
	undoReqs := make(chan handler.UndoRequest, 8)
	redoReqs := make(chan handler.RedoRequest, 8)
	tfChanges := make(chan store.TimeFrame, 8)

	w := watcher.New(c.cfg.WatchPath, c.cfg.DebounceTime, c.log)
	h := handler.New(c.store, views, fatal, c.log)

	h.InitialView()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := w.Run(gctx)
		if err != nil {
			select {
			case fatal <- err:
			default:
			}
		}
		return err
	})
	g.Go(func() error { h.RunFSEvents(gctx, w.Events()); return nil })
	g.Go(func() error { h.RunUndo(gctx, undoReqs); return nil })
	g.Go(func() error { h.RunRedo(gctx, redoReqs); return nil })
	g.Go(func() error { h.RunTimeFrame(gctx, tfChanges); return nil })

	model := tui.New(tui.Intents{
		Views:            views,
		UndoRequests:     undoReqs,
		RedoRequests:     redoReqs,
		TimeFrameChanges: tfChanges,
	})
	program := tea.NewProgram(model)

	programDone := make(chan error, 1)
	go func() {
		_, err := program.Run()
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrUIInit, err)
		}
		programDone <- err
	}()

	var runErr error
	select {
	case runErr = <-programDone:
	case runErr = <-fatal:
		program.Quit()
		<-programDone
	}

	cancel()
	_ = g.Wait()

	if closeErr := c.store.Close(); closeErr != nil && runErr == nil {
		runErr = closeErr
	}

	return runErr
}
