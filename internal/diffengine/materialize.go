package diffengine

// Materialize replays an ordered sequence of LineDifference entries
// starting from an empty file and returns the resulting lines.
//
// Replay rule per entry, keyed on e.LineNumber (1-based):
//   - Before == "": insertion — insert After at that position.
//   - After == "": deletion — remove the line at that position.
//   - otherwise: modification — replace the line at that position.
//
// An entry whose LineNumber falls outside the current bounds is clamped to
// a trailing append (insertion, modification) or ignored as a no-op
// (deletion); the second return value reports whether any entry required
// clamping, so callers can surface degraded-view telemetry without this
// ever becoming an error.
func Materialize(entries []LineDifference) ([]string, bool) {
	lines := make([]string, 0, len(entries))
	degraded := false

	for _, e := range entries {
		idx := e.LineNumber - 1
		if idx < 0 {
			idx = 0
		}

		switch {
		case e.Before == "":
			if idx > len(lines) {
				degraded = true
				idx = len(lines)
			}
			lines = append(lines, "")
			copy(lines[idx+1:], lines[idx:])
			lines[idx] = e.After

		case e.After == "":
			if idx >= len(lines) {
				degraded = true
				continue
			}
			lines = append(lines[:idx], lines[idx+1:]...)

		default:
			if idx >= len(lines) {
				degraded = true
				lines = append(lines, e.After)
				continue
			}
			lines[idx] = e.After
		}
	}

	return lines, degraded
}
