package undo

import (
	"testing"

	"github.com/kobzarvs/qvim/internal/textbuf"
)

func pos(line, col int) textbuf.Position {
	return textbuf.Position{Line: line, Col: col}
}

func TestGroupedInsertIsOneEntry(t *testing.T) {
	buf := textbuf.New("")
	h := New(0)
	h.Begin(pos(0, 0))
	for i, r := range "abc" {
		h.Record(buf.Insert(pos(0, i), string(r)), pos(0, i+1))
	}
	h.Commit(pos(0, 2))
	if h.Len() != 1 {
		t.Fatalf("Len = %d, want 1", h.Len())
	}
	at, ok := h.Undo(buf)
	if !ok {
		t.Fatalf("Undo ok = false")
	}
	if got := buf.String(); got != "" {
		t.Fatalf("after undo = %q, want empty", got)
	}
	if at != pos(0, 0) {
		t.Fatalf("cursor = %+v, want 0:0", at)
	}
	at, ok = h.Redo(buf)
	if !ok || buf.String() != "abc" {
		t.Fatalf("redo = %q ok=%v", buf.String(), ok)
	}
	if at != pos(0, 2) {
		t.Fatalf("redo cursor = %+v, want 0:2", at)
	}
}

func TestNewEditClearsRedo(t *testing.T) {
	buf := textbuf.New("x")
	h := New(0)
	h.Record(buf.Insert(pos(0, 1), "y"), pos(0, 1))
	h.Undo(buf)
	if !h.CanRedo() {
		t.Fatalf("CanRedo = false after undo")
	}
	h.Record(buf.Insert(pos(0, 0), "z"), pos(0, 0))
	if h.CanRedo() {
		t.Fatalf("CanRedo = true after new edit")
	}
	if _, ok := h.Redo(buf); ok {
		t.Fatalf("Redo succeeded with empty stack")
	}
	if got := buf.String(); got != "zx" {
		t.Fatalf("buffer = %q, want %q", got, "zx")
	}
}

func TestEmptyGroupDiscarded(t *testing.T) {
	h := New(0)
	h.Begin(pos(0, 0))
	h.Commit(pos(0, 0))
	if h.CanUndo() {
		t.Fatalf("empty group was pushed")
	}
}

func TestModifiedFollowsSavePoint(t *testing.T) {
	buf := textbuf.New("a")
	h := New(0)
	if h.Modified() {
		t.Fatalf("fresh history modified")
	}
	h.Record(buf.Insert(pos(0, 0), "b"), pos(0, 0))
	if !h.Modified() {
		t.Fatalf("Modified = false after edit")
	}
	h.MarkSaved()
	if h.Modified() {
		t.Fatalf("Modified = true after save")
	}
	h.Undo(buf)
	if !h.Modified() {
		t.Fatalf("Modified = false after undoing past save")
	}
	h.Redo(buf)
	if h.Modified() {
		t.Fatalf("Modified = true after redo back to save")
	}
}

func TestLimitDropsOldest(t *testing.T) {
	buf := textbuf.New("")
	h := New(2)
	for i := 0; i < 3; i++ {
		h.Record(buf.Insert(pos(0, i), "x"), pos(0, i))
	}
	if h.Len() != 2 {
		t.Fatalf("Len = %d, want 2", h.Len())
	}
	h.Undo(buf)
	h.Undo(buf)
	if _, ok := h.Undo(buf); ok {
		t.Fatalf("third undo succeeded past limit")
	}
	if got := buf.String(); got != "x" {
		t.Fatalf("buffer = %q, want %q", got, "x")
	}
}

func TestLineSnapshotSwap(t *testing.T) {
	var s LineSnapshot
	s.Track(3, "before")
	s.Track(3, "ignored")
	if s.Text != "before" {
		t.Fatalf("Text = %q, want %q", s.Text, "before")
	}
	if got := s.Swap("after"); got != "before" {
		t.Fatalf("Swap = %q", got)
	}
	s.Leave(3)
	if !s.Valid {
		t.Fatalf("Leave on same line invalidated")
	}
	s.Leave(4)
	if s.Valid {
		t.Fatalf("Leave on other line kept snapshot")
	}
}
