package view

import (
	"testing"

	"github.com/kobzarvs/qvim/internal/textbuf"
)

func lines(n int) *textbuf.Buffer {
	out := make([]string, n)
	for i := range out {
		out[i] = "line"
	}
	return textbuf.New(out...)
}

func TestClampNormalAndInsert(t *testing.T) {
	buf := textbuf.New("abc", "")
	v := New(1)
	v.Cursor = textbuf.Position{Line: 0, Col: 9}
	v.Clamp(buf, false)
	if v.Cursor.Col != 2 {
		t.Fatalf("normal col = %d, want 2", v.Cursor.Col)
	}
	v.Cursor.Col = 9
	v.Clamp(buf, true)
	if v.Cursor.Col != 3 {
		t.Fatalf("insert col = %d, want 3", v.Cursor.Col)
	}
	v.Cursor = textbuf.Position{Line: 5, Col: 4}
	v.Clamp(buf, false)
	if v.Cursor != (textbuf.Position{Line: 1, Col: 0}) {
		t.Fatalf("cursor = %+v, want 1:0", v.Cursor)
	}
}

func TestMoveToLineKeepsWant(t *testing.T) {
	buf := textbuf.New("abcdef", "ab", "abcdef")
	v := New(1)
	v.SetCursor(buf, textbuf.Position{Line: 0, Col: 4}, false, 4)
	v.MoveToLine(buf, 1, false, 4)
	if v.Cursor.Col != 1 {
		t.Fatalf("short line col = %d, want 1", v.Cursor.Col)
	}
	v.MoveToLine(buf, 2, false, 4)
	if v.Cursor.Col != 4 {
		t.Fatalf("restored col = %d, want 4", v.Cursor.Col)
	}
	v.Want = WantEnd
	v.MoveToLine(buf, 1, false, 4)
	if v.Cursor.Col != 1 {
		t.Fatalf("$ col = %d, want 1", v.Cursor.Col)
	}
}

func TestDisplayColumn(t *testing.T) {
	if got := DisplayColumn([]rune("\tx"), 1, 4); got != 4 {
		t.Fatalf("tab width = %d, want 4", got)
	}
	if got := DisplayColumn([]rune("ab\tx"), 3, 4); got != 4 {
		t.Fatalf("tab stop = %d, want 4", got)
	}
	if got := DisplayColumn([]rune("日本x"), 2, 4); got != 4 {
		t.Fatalf("wide = %d, want 4", got)
	}
	if got := ColumnForDisplay([]rune("日本x"), 3, 4); got != 1 {
		t.Fatalf("ColumnForDisplay = %d, want 1", got)
	}
	if got := StringWidth("a\tb", 8); got != 9 {
		t.Fatalf("StringWidth = %d, want 9", got)
	}
}

func TestEnsureVisibleScrolls(t *testing.T) {
	buf := lines(100)
	v := New(1)
	v.Cursor.Line = 50
	v.EnsureVisible(buf, 10, 80, 2, 4)
	if v.Top != 43 {
		t.Fatalf("Top = %d, want 43", v.Top)
	}
	v.Cursor.Line = 44
	v.EnsureVisible(buf, 10, 80, 2, 4)
	if v.Top != 42 {
		t.Fatalf("Top = %d, want 42", v.Top)
	}
}

func TestEnsureVisibleHorizontal(t *testing.T) {
	buf := textbuf.New("0123456789abcdef")
	v := New(1)
	v.Cursor.Col = 12
	v.EnsureVisible(buf, 5, 10, 0, 4)
	if v.Left != 3 {
		t.Fatalf("Left = %d, want 3", v.Left)
	}
	v.Cursor.Col = 1
	v.EnsureVisible(buf, 5, 10, 0, 4)
	if v.Left != 1 {
		t.Fatalf("Left = %d, want 1", v.Left)
	}
}

func TestFoldsHideRows(t *testing.T) {
	buf := lines(10)
	v := New(1)
	v.CreateFold(2, 5)
	rows := v.Rows(buf, 5)
	want := []int{0, 1, 2, 6, 7}
	for i, r := range rows {
		if r.Line != want[i] {
			t.Fatalf("row %d line = %d, want %d", i, r.Line, want[i])
		}
	}
	if rows[2].Folded != 4 {
		t.Fatalf("folded = %d, want 4", rows[2].Folded)
	}
	if next := v.NextVisible(2, buf.LineCount()); next != 6 {
		t.Fatalf("NextVisible = %d, want 6", next)
	}
	if prev := v.PrevVisible(6); prev != 2 {
		t.Fatalf("PrevVisible = %d, want 2", prev)
	}
	if !v.ToggleFold(3) {
		t.Fatalf("ToggleFold opened nothing")
	}
	if _, ok := v.ClosedFoldAt(3); ok {
		t.Fatalf("fold still closed")
	}
	v.CloseAll()
	if !v.DeleteFold(4) || len(v.Folds) != 0 {
		t.Fatalf("DeleteFold left %v", v.Folds)
	}
}

func TestNestedFolds(t *testing.T) {
	v := New(1)
	v.CreateFold(0, 9)
	v.CreateFold(2, 4)
	f, _ := v.ClosedFoldAt(3)
	if f.Start != 0 || f.End != 9 {
		t.Fatalf("outer fold = %+v", f)
	}
	v.OpenFold(3)
	f, _ = v.ClosedFoldAt(3)
	if f.Start != 2 {
		t.Fatalf("inner fold = %+v", f)
	}
}

func TestAdjustFolds(t *testing.T) {
	v := New(1)
	v.CreateFold(5, 7)
	v.AdjustFolds(1, 3, 0)
	if v.Folds[0].Start != 3 || v.Folds[0].End != 5 {
		t.Fatalf("fold = %+v, want 3..5", v.Folds[0])
	}
}
