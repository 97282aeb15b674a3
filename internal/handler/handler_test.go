package handler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wolfbiker1/autostash/internal/store"
	"github.com/wolfbiker1/autostash/internal/watcher"
)

func newTestHandler(t *testing.T) (*Handler, chan store.Snapshot, chan error) {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "db"), dir, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	views := make(chan store.Snapshot, 16)
	fatal := make(chan error, 1)
	return New(s, views, fatal, nil), views, fatal
}

func TestHandler_WritePublishesView(t *testing.T) {
	h, views, fatal := newTestHandler(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(target, []byte("a\nb\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan watcher.FsEvent, 1)
	go h.RunFSEvents(ctx, events)

	events <- watcher.FsEvent{Kind: watcher.Written, Path: target}

	select {
	case snap := <-views:
		v := snap.Versions
		if len(v) != 1 || v[0] == nil {
			t.Fatalf("view = %+v", v)
		}
		if len(v[0].Lines) != 2 || v[0].Lines[0] != "a" || v[0].Lines[1] != "b" {
			t.Fatalf("lines = %v", v[0].Lines)
		}
	case err := <-fatal:
		t.Fatalf("unexpected fatal: %v", err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for view")
	}

	cancel()
	close(events)
}

func TestHandler_NoOpWriteDoesNotPublish(t *testing.T) {
	h, views, _ := newTestHandler(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(target, []byte("a\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan watcher.FsEvent, 2)
	go h.RunFSEvents(ctx, events)

	events <- watcher.FsEvent{Kind: watcher.Written, Path: target}
	<-views // first write publishes

	// Rewriting identical content produces an empty delta: no publish.
	events <- watcher.FsEvent{Kind: watcher.Written, Path: target}

	select {
	case v := <-views:
		t.Fatalf("unexpected second publish: %+v", v)
	case <-time.After(200 * time.Millisecond):
		// expected: no publish
	}
}

func TestHandler_DistinctPathsPublishSerially(t *testing.T) {
	h, views, _ := newTestHandler(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(first, []byte("a\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.WriteFile(second, []byte("b\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan watcher.FsEvent, 2)
	go h.RunFSEvents(ctx, events)

	events <- watcher.FsEvent{Kind: watcher.Written, Path: first}
	events <- watcher.FsEvent{Kind: watcher.Written, Path: second}

	snap1 := <-views
	if len(snap1.Versions) != 1 || snap1.Versions[0] == nil || snap1.Versions[0].Path != first {
		t.Fatalf("first publish = %+v, want only %s", snap1.Versions, first)
	}
	snap2 := <-views
	if len(snap2.Versions) != 2 {
		t.Fatalf("second publish has %d versions, want 2", len(snap2.Versions))
	}
	for i, want := range []string{first, second} {
		if snap2.Versions[i] == nil || snap2.Versions[i].Path != want {
			t.Fatalf("second publish[%d] = %+v, want %s", i, snap2.Versions[i], want)
		}
	}

	select {
	case extra := <-views:
		t.Fatalf("unexpected third publish: %+v", extra.Versions)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHandler_RemoveThenUndoRestores(t *testing.T) {
	h, views, _ := newTestHandler(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(target, []byte("a\nb\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan watcher.FsEvent, 2)
	undo := make(chan UndoRequest, 1)
	go h.RunFSEvents(ctx, events)
	go h.RunUndo(ctx, undo)

	events <- watcher.FsEvent{Kind: watcher.Written, Path: target}
	<-views

	events <- watcher.FsEvent{Kind: watcher.Removed, Path: target}
	v := (<-views).Versions
	if len(v) != 1 || v[0] != nil {
		t.Fatalf("view after remove = %+v, want [nil]", v)
	}

	undo <- UndoRequest{Path: target, N: 2}
	v = (<-views).Versions
	if len(v) != 1 || v[0] == nil || len(v[0].Lines) != 2 {
		t.Fatalf("view after undo = %+v, want restored [a b]", v)
	}
	if v[0].Lines[0] != "a" || v[0].Lines[1] != "b" {
		t.Fatalf("lines = %v", v[0].Lines)
	}
}
