// Package diffengine computes line-level differences between the last
// known version of a text file and its current on-disk contents, and
// replays an ordered sequence of those differences back into lines.
//
// Both directions share one algorithm: Diff reconstructs the "before"
// picture by calling Materialize over the already-applied log entries,
// then walks the reconstructed lines against the file's current lines
// index by index, emitting a record wherever they disagree.
package diffengine

import (
	"errors"
	"time"
)

// ErrRead is returned when the target file cannot be opened or read.
var ErrRead = errors.New("diffengine: read error")

// ErrEncoding is returned when a file's contents are not valid UTF-8 text.
var ErrEncoding = errors.New("diffengine: invalid encoding")

// LineDifference is the atomic record identifying one changed line at one
// point in time. Before is empty for an insertion, After is empty for a
// deletion; both are populated for a modification. LineNumber is 1-based
// and refers to the post-change file. A deletion carries the position the
// line occupies when the entry is replayed: its pre-removal line number,
// less the number of deletions that precede it in the same batch.
type LineDifference struct {
	Path       string
	LineNumber int
	Before     string
	After      string
	Timestamp  time.Time
}

// IsInsertion reports whether d represents a line that did not exist
// before the change.
func (d LineDifference) IsInsertion() bool { return d.Before == "" && d.After != "" }

// IsDeletion reports whether d represents a line that was removed.
func (d LineDifference) IsDeletion() bool { return d.After == "" && d.Before != "" }
