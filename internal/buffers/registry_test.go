package buffers

import (
	"errors"
	"testing"

	"github.com/kobzarvs/qvim/internal/textbuf"
)

func newRegistry() *Registry {
	return NewRegistry(Options{TabWidth: 4, ShiftWidth: 4}, 0)
}

func TestCreateAndFind(t *testing.T) {
	r := newRegistry()
	a := r.Create("a.txt", "one\ntwo\n")
	b := r.Create("", "")
	if a.ID == b.ID {
		t.Fatalf("IDs collide: %d", a.ID)
	}
	if got := a.Text.LineCount(); got != 2 {
		t.Fatalf("LineCount = %d, want 2", got)
	}
	if a.Dirty() {
		t.Fatalf("fresh buffer is dirty")
	}
	if st, ok := r.FindByPath("./a.txt"); !ok || st != a {
		t.Fatalf("FindByPath = %v, %v", st, ok)
	}
	if b.Name() != "[No Name]" {
		t.Fatalf("Name = %q", b.Name())
	}
}

func TestDeleteKeepsOrder(t *testing.T) {
	r := newRegistry()
	a := r.Create("a", "")
	b := r.Create("b", "")
	c := r.Create("c", "")
	if err := r.Delete(b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list := r.List()
	if len(list) != 2 || list[0] != a || list[1] != c {
		t.Fatalf("List = %v", list)
	}
	if err := r.Delete(b.ID); !errors.Is(err, ErrNoBuffer) {
		t.Fatalf("second Delete err = %v", err)
	}
	if next, _ := r.Cycle(c.ID, 1); next != a.ID {
		t.Fatalf("Cycle wraps to %d, want %d", next, a.ID)
	}
	if prev, _ := r.Cycle(a.ID, -1); prev != c.ID {
		t.Fatalf("Cycle back to %d, want %d", prev, c.ID)
	}
}

func TestApplyRecordsUndoAndShiftsMarks(t *testing.T) {
	r := newRegistry()
	st := r.Create("", "a\nb\nc\nd")
	st.Marks['x'] = textbuf.Position{Line: 3, Col: 0}
	st.Marks['y'] = textbuf.Position{Line: 2, Col: 0}

	st.Apply(textbuf.Edit{Start: textbuf.Position{Line: 1}, End: textbuf.Position{Line: 2}}, textbuf.Position{Line: 1})
	if got := st.Text.String(); got != "a\nc\nd" {
		t.Fatalf("text = %q", got)
	}
	if st.Marks['x'].Line != 2 {
		t.Fatalf("mark x line = %d, want 2", st.Marks['x'].Line)
	}
	if st.Marks['y'].Line != 1 {
		t.Fatalf("mark y line = %d, want 1", st.Marks['y'].Line)
	}
	if !st.Dirty() {
		t.Fatalf("buffer not dirty after edit")
	}
	if _, ok := st.History.Undo(st.Text); !ok || st.Text.String() != "a\nb\nc\nd" {
		t.Fatalf("undo = %q", st.Text.String())
	}
}

func TestReplaceContentIsOneUndoStep(t *testing.T) {
	r := newRegistry()
	st := r.Create("f", "old")
	if err := r.ReplaceContent(st.ID, "new\ntext\n", textbuf.Position{}); err != nil {
		t.Fatalf("ReplaceContent: %v", err)
	}
	if st.Text.String() != "new\ntext" || st.Dirty() {
		t.Fatalf("after reload text=%q dirty=%v", st.Text.String(), st.Dirty())
	}
	st.History.Undo(st.Text)
	if st.Text.String() != "old" {
		t.Fatalf("after undo = %q, want %q", st.Text.String(), "old")
	}
	if err := r.ReplaceContent(99, "", textbuf.Position{}); !errors.Is(err, ErrNoBuffer) {
		t.Fatalf("err = %v, want ErrNoBuffer", err)
	}
}
