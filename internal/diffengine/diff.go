package diffengine

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

// Diff computes the delta between the previously-applied content of path
// (reconstructed by replaying prior) and the file's current on-disk
// contents. It returns zero or more LineDifference records in line order
// (consecutive deletions share a line number, see deletedCount below), or a
// wrapped ErrRead / ErrEncoding on failure.
//
// Neither error is fatal to the daemon; callers should log and drop the
// triggering event.
func Diff(log *slog.Logger, path string, prior []LineDifference) ([]LineDifference, error) {
	priorLines, degraded := Materialize(prior)
	if degraded && log != nil {
		log.Warn("degraded view while reconstructing prior content", "path", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRead, path, err)
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: %s", ErrEncoding, path)
	}

	currentLines := splitLines(string(raw))
	now := time.Now()

	max := len(priorLines)
	if len(currentLines) > max {
		max = len(currentLines)
	}

	// deletedCount tracks deletions already emitted in this pass: Materialize
	// removes lines at their working position one at a time, so the Nth
	// deletion in a trailing run must be numbered as if the previous N-1 had
	// already shifted the list, not by its original pre-change index.
	diffs := make([]LineDifference, 0)
	deletedCount := 0
	for i := 0; i < max; i++ {
		var before, after string
		if i < len(priorLines) {
			before = priorLines[i]
		}
		if i < len(currentLines) {
			after = currentLines[i]
		}
		if before == after {
			continue
		}
		lineNumber := i + 1 - deletedCount
		if after == "" {
			deletedCount++
		}
		diffs = append(diffs, LineDifference{
			Path:       path,
			LineNumber: lineNumber,
			Before:     before,
			After:      after,
			Timestamp:  now,
		})
	}

	return diffs, nil
}

// splitLines splits text on "\n" the way a text editor would: a trailing
// newline does not produce a trailing empty line, but an empty file
// produces zero lines.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{""}
	}
	return strings.Split(text, "\n")
}
