// Package store implements the durable, append-only change log at the
// heart of AutoStash: one ChangeLog + UndoCursor per watched file path,
// materialised into FileVersion views filtered by a TimeFrame.
//
// Store performs no locking of its own; serialised access is the caller's
// responsibility. In this codebase that caller is internal/handler.Handler,
// which holds a single mutex across every Store method call it makes. This
// keeps Store a plain, directly testable value type.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/wolfbiker1/autostash/internal/diffengine"
)

// ErrStoreOpen is returned by Open when the durable artifact cannot be
// created or read.
var ErrStoreOpen = errors.New("store: open error")

// ErrStoreWrite is returned when a mutation cannot be persisted. This is
// fatal — the caller should tear the process down.
var ErrStoreWrite = errors.New("store: write error")

// TimeFrame selects which applied log entries participate in view
// materialisation.
type TimeFrame int

const (
	LastHour TimeFrame = iota
	LastDay
	LastWeek
)

// String renders the TimeFrame the way the UI's tab strip labels it.
func (tf TimeFrame) String() string {
	switch tf {
	case LastHour:
		return "Last hour"
	case LastDay:
		return "Last day"
	case LastWeek:
		return "Last week"
	default:
		return "unknown"
	}
}

// Next cycles LastHour -> LastDay -> LastWeek -> LastHour.
func (tf TimeFrame) Next() TimeFrame {
	switch tf {
	case LastHour:
		return LastDay
	case LastDay:
		return LastWeek
	default:
		return LastHour
	}
}

// cutoff returns the earliest timestamp, relative to now, that still
// participates in materialisation under tf.
func (tf TimeFrame) cutoff(now time.Time) time.Time {
	switch tf {
	case LastHour:
		return now.Add(-1 * time.Hour)
	case LastWeek:
		return now.Add(-7 * 24 * time.Hour)
	default: // LastDay
		return now.Add(-24 * time.Hour)
	}
}

// FileVersion is the materialised content of one file under the current
// cursor and time frame. A nil *FileVersion means the file is currently
// empty or deleted.
type FileVersion struct {
	Path  string
	Lines []string
}

// Stats summarises the Store for display in the UI footer.
type Stats struct {
	Entries       int
	TotalLogLen   int
	DegradedViews int
}

// Snapshot bundles everything the UI needs to redraw after a mutation: the
// materialised view per registered path (in registration order, same order
// as Paths), the registered paths themselves (so a nil FileVersion can
// still be labelled with the path it belongs to), the time frame the view
// was materialised under, and the footer's telemetry counters.
type Snapshot struct {
	Versions  []*FileVersion
	Paths     []string
	TimeFrame TimeFrame
	Stats     Stats
}

// Snapshot produces the full Snapshot the Event Handler publishes after
// every mutation.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Versions:  s.View(),
		Paths:     s.Paths(),
		TimeFrame: s.TimeFrame(),
		Stats:     s.Stats(),
	}
}

// record is the persisted unit for one registered path: its full ordered
// ChangeLog and its UndoCursor.
type record struct {
	Path   string                      `json:"path"`
	Log    []diffengine.LineDifference `json:"log"`
	Cursor int                         `json:"cursor"`
}

// Store is the mapping from path to (ChangeLog, UndoCursor), backed by an
// embedded key-value database opened at a caller-supplied path.
type Store struct {
	db        *leveldb.DB
	log       *slog.Logger
	order     []string
	records   map[string]*record
	timeFrame TimeFrame
	degraded  int
}

// Open opens or creates the durable log rooted at storePath. watchPath is
// recorded for diagnostic purposes only; the store itself is keyed purely
// by file path. The initial time frame is LastDay.
func Open(storePath, watchPath string, log *slog.Logger) (*Store, error) {
	db, err := leveldb.OpenFile(storePath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreOpen, storePath, err)
	}

	s := &Store{
		db:        db,
		log:       log,
		records:   make(map[string]*record),
		timeFrame: LastDay,
	}

	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreOpen, storePath, err)
	}

	if log != nil {
		log.Info("opened store", "path", storePath, "watch_path", watchPath, "entries", len(s.order))
	}
	return s, nil
}

// Close flushes and releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureEntry idempotently registers path. A no-op if already present.
func (s *Store) EnsureEntry(path string) error {
	if _, ok := s.records[path]; ok {
		return nil
	}
	s.records[path] = &record{Path: path}
	s.order = append(s.order, path)
	if err := s.persistRecord(path); err != nil {
		return err
	}
	return s.persistOrder()
}

// AppliedChanges returns the prefix [0, cursor) of path's log, filtered by
// the current time frame.
func (s *Store) AppliedChanges(path string) []diffengine.LineDifference {
	rec, ok := s.records[path]
	if !ok {
		return nil
	}
	return s.filterByTimeFrame(rec.Log[:rec.Cursor])
}

func (s *Store) filterByTimeFrame(entries []diffengine.LineDifference) []diffengine.LineDifference {
	cutoff := s.timeFrame.cutoff(time.Now())
	out := make([]diffengine.LineDifference, 0, len(entries))
	for _, e := range entries {
		if e.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Append truncates any undone suffix of path's log, appends changes, and
// advances the cursor by len(changes). A no-op when changes is empty.
func (s *Store) Append(path string, changes []diffengine.LineDifference) error {
	if len(changes) == 0 {
		return nil
	}
	rec, ok := s.records[path]
	if !ok {
		return fmt.Errorf("store: append: unregistered path %q", path)
	}
	rec.Log = append(rec.Log[:rec.Cursor:rec.Cursor], changes...)
	rec.Cursor += len(changes)
	return s.persistRecord(path)
}

// UndoBy decreases path's cursor by min(n, cursor).
func (s *Store) UndoBy(path string, n int) error {
	rec, ok := s.records[path]
	if !ok {
		return nil
	}
	if n > rec.Cursor {
		n = rec.Cursor
	}
	rec.Cursor -= n
	return s.persistRecord(path)
}

// RedoBy increases path's cursor by min(n, len(log) - cursor).
func (s *Store) RedoBy(path string, n int) error {
	rec, ok := s.records[path]
	if !ok {
		return nil
	}
	remaining := len(rec.Log) - rec.Cursor
	if n > remaining {
		n = remaining
	}
	rec.Cursor += n
	return s.persistRecord(path)
}

// SetTimeFrame atomically swaps the active time-frame filter. It is not
// part of the durable representation — reopening the store always starts
// from the default time frame.
func (s *Store) SetTimeFrame(tf TimeFrame) {
	s.timeFrame = tf
}

// TimeFrame reports the currently active time-frame filter.
func (s *Store) TimeFrame() TimeFrame {
	return s.timeFrame
}

// View produces one FileVersion per registered path, in registration
// order, under the current cursor and time frame.
func (s *Store) View() []*FileVersion {
	views := make([]*FileVersion, 0, len(s.order))
	for _, path := range s.order {
		applied := s.AppliedChanges(path)
		lines, degraded := diffengine.Materialize(applied)
		if degraded {
			s.degraded++
			if s.log != nil {
				s.log.Warn("degraded view", "path", path)
			}
		}
		if len(lines) == 0 {
			views = append(views, nil)
			continue
		}
		views = append(views, &FileVersion{Path: path, Lines: lines})
	}
	return views
}

// Paths returns the registered paths in registration order.
func (s *Store) Paths() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Stats summarises the store's current size for UI display.
func (s *Store) Stats() Stats {
	total := 0
	for _, rec := range s.records {
		total += len(rec.Log)
	}
	return Stats{Entries: len(s.order), TotalLogLen: total, DegradedViews: s.degraded}
}

// --- persistence ---

const orderKey = "order"

func recordKey(path string) []byte {
	return append([]byte("record\x00"), []byte(path)...)
}

func (s *Store) load() error {
	iter := s.db.NewIterator(util.BytesPrefix([]byte("record\x00")), nil)
	defer iter.Release()
	for iter.Next() {
		var rec record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		cp := rec
		s.records[cp.Path] = &cp
	}
	if err := iter.Error(); err != nil {
		return err
	}

	raw, err := s.db.Get([]byte(orderKey), nil)
	switch {
	case err == nil:
		var order []string
		if err := json.Unmarshal(raw, &order); err != nil {
			return fmt.Errorf("decode order: %w", err)
		}
		s.order = order
	case errors.Is(err, leveldb.ErrNotFound):
		s.order = nil
	default:
		return err
	}
	return nil
}

var writeSync = &opt.WriteOptions{Sync: true}

func (s *Store) persistRecord(path string) error {
	rec := s.records[path]
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrStoreWrite, path, err)
	}
	if err := s.db.Put(recordKey(path), data, writeSync); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStoreWrite, path, err)
	}
	return nil
}

func (s *Store) persistOrder() error {
	data, err := json.Marshal(s.order)
	if err != nil {
		return fmt.Errorf("%w: encode order: %v", ErrStoreWrite, err)
	}
	if err := s.db.Put([]byte(orderKey), data, writeSync); err != nil {
		return fmt.Errorf("%w: order: %v", ErrStoreWrite, err)
	}
	return nil
}
