package app

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/qvim/internal/clipboard"
	"github.com/kobzarvs/qvim/internal/textbuf"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func newTestApp(t *testing.T, files ...string) (*App, tcell.SimulationScreen) {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	t.Cleanup(s.Fini)
	s.SetSize(40, 10)
	a := New(Options{Files: files, NoSession: true})
	a.setup(&clipboard.Memory{}, s.Size)
	return a, s
}

func cellAt(s tcell.SimulationScreen, x, y int) tcell.SimCell {
	cells, w, _ := s.GetContents()
	return cells[y*w+x]
}

func runeAt(s tcell.SimulationScreen, x, y int) rune {
	c := cellAt(s, x, y)
	if len(c.Runes) == 0 {
		return 0
	}
	return c.Runes[0]
}

func TestHeadlessPrintsBuffer(t *testing.T) {
	path := writeTemp(t, "f.txt", "a\nb\n")
	var out bytes.Buffer
	if err := New(Options{Files: []string{path}, Keys: "ddp"}).Headless(&out); err != nil {
		t.Fatalf("headless: %v", err)
	}
	if got := out.String(); got != "b\na\n" {
		t.Fatalf("output = %q, want %q", got, "b\na\n")
	}
	if got := readFile(t, path); got != "a\nb\n" {
		t.Fatalf("file = %q, want it untouched", got)
	}
}

func TestHeadlessWrite(t *testing.T) {
	path := writeTemp(t, "f.txt", "a\nb\n")
	var out bytes.Buffer
	if err := New(Options{Files: []string{path}, Keys: "A!<Esc>", Write: true}).Headless(&out); err != nil {
		t.Fatalf("headless: %v", err)
	}
	if got := readFile(t, path); got != "a!\nb\n" {
		t.Fatalf("file = %q, want %q", got, "a!\nb\n")
	}
	if out.Len() != 0 {
		t.Fatalf("output = %q, want nothing", out.String())
	}
}

func TestHeadlessNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.txt")
	if err := New(Options{Files: []string{path}, Keys: "ihello<Esc>", Write: true}).Headless(&bytes.Buffer{}); err != nil {
		t.Fatalf("headless: %v", err)
	}
	if got := readFile(t, path); got != "hello\n" {
		t.Fatalf("file = %q, want %q", got, "hello\n")
	}
}

func TestHeadlessReportsError(t *testing.T) {
	path := writeTemp(t, "f.txt", "a\n")
	err := New(Options{Files: []string{path}, Keys: ":bogus<CR>"}).Headless(&bytes.Buffer{})
	if !errors.Is(err, ErrKeys) {
		t.Fatalf("err = %v, want ErrKeys", err)
	}
}

func TestWriteQuit(t *testing.T) {
	path := writeTemp(t, "f.txt", "ab\n")
	a, _ := newTestApp(t, path)
	a.execute(a.eng.HandleKeys("x:wq<CR>"))
	if !a.done {
		t.Fatalf("app still running after :wq")
	}
	if got := readFile(t, path); got != "b\n" {
		t.Fatalf("file = %q, want %q", got, "b\n")
	}
	if a.eng.Dirty() {
		t.Fatalf("buffer still dirty after write")
	}
}

func TestFailedWriteDoesNotQuit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "f.txt")
	a, _ := newTestApp(t, path)
	a.execute(a.eng.HandleKeys("ix<Esc>:wq<CR>"))
	if a.done {
		t.Fatalf("app quit after a failed write")
	}
	msg, isErr := a.eng.Message()
	if !isErr || msg != "E212: Can't open file for writing: "+path {
		t.Fatalf("message = %q (error %v)", msg, isErr)
	}
}

func TestJumpExternalOpensFile(t *testing.T) {
	other := writeTemp(t, "other.txt", "one\n  two\n")
	path := writeTemp(t, "f.txt", fmt.Sprintf("%s:2:3\n", other))
	a, _ := newTestApp(t, path)
	a.execute(a.eng.HandleKeys("gF"))
	if got, want := a.eng.Cursor(), (textbuf.Position{Line: 1, Col: 2}); got != want {
		t.Fatalf("cursor = %v, want %v", got, want)
	}
	if n := len(a.eng.Buffers()); n != 2 {
		t.Fatalf("buffers = %d, want 2", n)
	}
}

func TestRenderWindow(t *testing.T) {
	path := writeTemp(t, "f.txt", "hello\nworld\n")
	a, s := newTestApp(t, path)
	a.Render(s)

	if r := runeAt(s, 4, 0); r != 'h' {
		t.Fatalf("first text cell = %q, want 'h'", r)
	}
	if r := runeAt(s, 2, 1); r != '2' {
		t.Fatalf("line number cell = %q, want '2'", r)
	}
	if r := runeAt(s, 0, 2); r != '~' {
		t.Fatalf("filler cell = %q, want '~'", r)
	}
	if r := runeAt(s, 1, 8); r != 'N' {
		t.Fatalf("status line starts with %q, want NORMAL", r)
	}
	x, y, visible := s.GetCursor()
	if !visible || x != 4 || y != 0 {
		t.Fatalf("cursor = (%d,%d) visible %v, want (4,0)", x, y, visible)
	}
}

func TestRenderSplitAndCommandLine(t *testing.T) {
	path := writeTemp(t, "f.txt", "hello\n")
	a, s := newTestApp(t, path)
	a.execute(a.eng.HandleKeys("<C-w>v"))
	a.Render(s)
	if r := runeAt(s, 20, 0); r != tcell.RuneVLine {
		t.Fatalf("separator cell = %q, want %q", r, tcell.RuneVLine)
	}

	a.execute(a.eng.HandleKeys(":"))
	a.Render(s)
	if r := runeAt(s, 0, 9); r != ':' {
		t.Fatalf("command line first rune = %q, want ':'", r)
	}
	x, y, _ := s.GetCursor()
	if x != 1 || y != 9 {
		t.Fatalf("cursor = (%d,%d), want (1,9)", x, y)
	}
}

func TestRenderSearchMatch(t *testing.T) {
	path := writeTemp(t, "f.txt", "hello\nworld\n")
	a, s := newTestApp(t, path)
	a.execute(a.eng.HandleKeys("/wor<CR>"))
	a.Render(s)
	if st := cellAt(s, 4, 1).Style; st != a.styles.search {
		t.Fatalf("match cell style = %v, want search style", st)
	}
	if st := cellAt(s, 7, 1).Style; st != a.styles.main {
		t.Fatalf("cell after match style = %v, want main style", st)
	}
}

func TestRenderErrorMessage(t *testing.T) {
	path := writeTemp(t, "f.txt", "hello\n")
	a, s := newTestApp(t, path)
	a.execute(a.eng.HandleKeys(":bogus<CR>"))
	a.Render(s)
	c := cellAt(s, 0, 9)
	if len(c.Runes) == 0 || c.Runes[0] != 'E' || c.Style != a.styles.errorText {
		t.Fatalf("message cell = %q, want an error 'E'", c.Runes)
	}
}

func TestServeQuits(t *testing.T) {
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	defer s.Fini()
	s.SetSize(40, 10)

	a := New(Options{NoSession: true})
	done := make(chan error, 1)
	go func() { done <- a.Serve(s) }()
	for _, r := range ":q" {
		s.InjectKey(tcell.KeyRune, r, tcell.ModNone)
	}
	s.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not return after :q")
	}
}

func TestParseColor(t *testing.T) {
	if got := parseColor("#FF0000", tcell.ColorDefault); got != tcell.NewHexColor(0xff0000) {
		t.Fatalf("parseColor(#FF0000) = %v", got)
	}
	if got := parseColor("", tcell.ColorBlue); got != tcell.ColorBlue {
		t.Fatalf("empty color = %v, want fallback", got)
	}
	if got := parseColor("#zzzzzz", tcell.ColorGreen); got != tcell.ColorGreen {
		t.Fatalf("bad hex = %v, want fallback", got)
	}
}
