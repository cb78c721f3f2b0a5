package logbook

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestLevelOfAndMessage(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "journal.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.Warn("No selected objects")
	book.Error("bake: reference modifier missing")
	lines, total := book.Tail(10)
	if total != 2 {
		t.Fatalf("total = %d", total)
	}
	if LevelOf(lines[0]) != LevelWarn || Message(lines[0]) != "No selected objects" {
		t.Fatalf("line 0 = %q", lines[0])
	}
	if LevelOf(lines[1]) != LevelError {
		t.Fatalf("line 1 level = %s", LevelOf(lines[1]))
	}
}
