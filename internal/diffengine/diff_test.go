package diffengine

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

func TestDiff_Insertion(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "f.txt", "a\nb\n")

	diffs, err := Diff(nil, path, nil)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(diffs) != 2 {
		t.Fatalf("want 2 diffs, got %d: %+v", len(diffs), diffs)
	}
	if diffs[0].LineNumber != 1 || diffs[0].Before != "" || diffs[0].After != "a" {
		t.Errorf("diffs[0] = %+v", diffs[0])
	}
	if diffs[1].LineNumber != 2 || diffs[1].Before != "" || diffs[1].After != "b" {
		t.Errorf("diffs[1] = %+v", diffs[1])
	}

	lines, degraded := Materialize(diffs)
	if degraded {
		t.Errorf("unexpected degraded view")
	}
	if !reflect.DeepEqual(lines, []string{"a", "b"}) {
		t.Errorf("materialize = %v", lines)
	}
}

func TestDiff_Modification(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "f.txt", "a\nc\n")

	prior := []LineDifference{
		{Path: path, LineNumber: 1, After: "a"},
		{Path: path, LineNumber: 2, After: "b"},
	}

	diffs, err := Diff(nil, path, prior)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(diffs) != 1 {
		t.Fatalf("want 1 diff, got %d: %+v", len(diffs), diffs)
	}
	if diffs[0].LineNumber != 2 || diffs[0].Before != "b" || diffs[0].After != "c" {
		t.Errorf("diffs[0] = %+v", diffs[0])
	}
}

func TestDiff_MultiLineDeletion(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "f.txt", "a\n")

	prior := []LineDifference{
		{Path: path, LineNumber: 1, After: "a"},
		{Path: path, LineNumber: 2, After: "b"},
		{Path: path, LineNumber: 3, After: "c"},
	}

	diffs, err := Diff(nil, path, prior)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(diffs) != 2 {
		t.Fatalf("want 2 diffs, got %d: %+v", len(diffs), diffs)
	}
	// Both trailing deletions collapse to line 2: once the first removes
	// "b" from position 2, "c" is also at position 2.
	if diffs[0].LineNumber != 2 || diffs[0].Before != "b" || diffs[0].After != "" {
		t.Errorf("diffs[0] = %+v", diffs[0])
	}
	if diffs[1].LineNumber != 2 || diffs[1].Before != "c" || diffs[1].After != "" {
		t.Errorf("diffs[1] = %+v", diffs[1])
	}

	full := append(append([]LineDifference{}, prior...), diffs...)
	lines, degraded := Materialize(full)
	if degraded {
		t.Errorf("unexpected degraded view")
	}
	if !reflect.DeepEqual(lines, []string{"a"}) {
		t.Errorf("materialize = %v", lines)
	}
}

func TestDiff_EncodingError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bin.dat")
	if err := os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0x81}, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := Diff(nil, path, nil)
	if err == nil {
		t.Fatal("want encoding error, got nil")
	}
}

func TestDiff_ReadError(t *testing.T) {
	_, err := Diff(nil, filepath.Join(t.TempDir(), "missing.txt"), nil)
	if err == nil {
		t.Fatal("want read error, got nil")
	}
}

func TestMaterialize_Deletion(t *testing.T) {
	entries := []LineDifference{
		{LineNumber: 1, After: "a"},
		{LineNumber: 2, After: "b"},
		{LineNumber: 1, Before: "a"},
	}
	lines, degraded := Materialize(entries)
	if degraded {
		t.Errorf("unexpected degraded view")
	}
	if !reflect.DeepEqual(lines, []string{"b"}) {
		t.Errorf("materialize = %v", lines)
	}
}

func TestMaterialize_OutOfRangeClamps(t *testing.T) {
	entries := []LineDifference{
		{LineNumber: 5, Before: "x", After: "y"}, // modification past end -> clamped append
	}
	lines, degraded := Materialize(entries)
	if !degraded {
		t.Errorf("want degraded=true")
	}
	if !reflect.DeepEqual(lines, []string{"y"}) {
		t.Errorf("materialize = %v", lines)
	}
}
