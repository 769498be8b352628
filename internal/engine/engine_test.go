package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobzarvs/qvim/internal/config"
	"github.com/kobzarvs/qvim/internal/register"
	"github.com/kobzarvs/qvim/internal/textbuf"
)

// load opens lines as test.txt in a fresh 80x24 engine.
func load(lines ...string) *Engine {
	e := New(config.Default(), WithSize(80, 24))
	e.LoadFile("test.txt", strings.Join(lines, "\n")+"\n")
	return e
}

func bufLines(e *Engine) []string {
	return e.text().Lines()
}

type helperT interface {
	require.TestingT
	Helper()
}

func reg(t helperT, e *Engine, name rune) register.Register {
	t.Helper()
	r, err := e.Register(name)
	require.NoError(t, err)
	return r
}

func pos(line, col int) textbuf.Position {
	return textbuf.Position{Line: line, Col: col}
}

func TestNewStartsWithEmptyBuffer(t *testing.T) {
	e := New(config.Default())
	assert.Equal(t, ModeNormal, e.Mode())
	assert.Equal(t, []string{""}, bufLines(e))
	require.Len(t, e.Buffers(), 1)
	assert.Equal(t, "[No Name]", e.Buffers()[0].Name)
}

func TestLoadFileReplacesScratchBuffer(t *testing.T) {
	e := load("abc")
	bufs := e.Buffers()
	require.Len(t, bufs, 1)
	assert.Equal(t, "test.txt", bufs[0].Path)
	assert.False(t, bufs[0].Dirty)
	msg, isErr := e.Message()
	assert.Equal(t, `"test.txt" 1L, 4B`, msg)
	assert.False(t, isErr)
}

func TestDeleteWordAtLineEnd(t *testing.T) {
	e := load("abc", "def", "")
	e.HandleKeys("dw")

	assert.Equal(t, []string{"", "def", ""}, bufLines(e))
	r := reg(t, e, register.Unnamed)
	assert.Equal(t, "abc", r.Text)
	assert.Equal(t, register.Charwise, r.Kind)
}

func TestDeleteCountLines(t *testing.T) {
	e := load("one", "two", "three")
	e.HandleKeys("3dd")

	assert.Equal(t, []string{""}, bufLines(e))
	r := reg(t, e, register.Unnamed)
	assert.Equal(t, "one\ntwo\nthree\n", r.Text)
	assert.Equal(t, register.Linewise, r.Kind)
	assert.Equal(t, pos(0, 0), e.Cursor())
	msg, _ := e.Message()
	assert.Equal(t, "3 fewer lines", msg)
}

func TestCountedMotionClampsToLastColumn(t *testing.T) {
	e := load("abc")
	e.HandleKeys("5l")
	assert.Equal(t, pos(0, 2), e.Cursor())
}

func TestMacroRecordAndReplay(t *testing.T) {
	e := load("abcdef", "xyz")
	e.HandleKeys("qaxxq")

	assert.Equal(t, "cdef", e.text().Line(0))
	assert.Equal(t, "xx", reg(t, e, 'a').Text)
	_, recording := e.Recording()
	assert.False(t, recording)

	e.HandleKeys("j0@a")
	assert.Equal(t, []string{"cdef", "z"}, bufLines(e))

	e.HandleKeys("k0@@")
	assert.Equal(t, []string{"ef", "z"}, bufLines(e))
}

func TestRecursiveMacroStopsAtDepthLimit(t *testing.T) {
	e := load("abcde")
	require.NoError(t, e.regs.Set('a', register.Register{Text: "x@a"}))
	e.HandleKeys("@a")

	assert.Equal(t, []string{""}, bufLines(e))
	msg, isErr := e.Message()
	assert.Equal(t, "E169: Command too recursive", msg)
	assert.True(t, isErr)
}

func TestChangeInnerWord(t *testing.T) {
	e := load("hello world")
	e.HandleKeys("lciw")

	assert.Equal(t, ModeInsert, e.Mode())
	assert.Equal(t, []string{" world"}, bufLines(e))
	assert.Equal(t, pos(0, 0), e.Cursor())
	assert.Equal(t, "hello", reg(t, e, register.Unnamed).Text)

	e.HandleKeys("bye<Esc>")
	assert.Equal(t, ModeNormal, e.Mode())
	assert.Equal(t, []string{"bye world"}, bufLines(e))
	assert.Equal(t, pos(0, 2), e.Cursor())
	assert.Equal(t, "bye", reg(t, e, register.LastInsert).Text)
}

func TestUndoRedo(t *testing.T) {
	e := load("abc")
	e.HandleKeys("x")
	require.Equal(t, []string{"bc"}, bufLines(e))
	assert.True(t, e.Dirty())

	e.HandleKeys("u")
	assert.Equal(t, []string{"abc"}, bufLines(e))
	assert.False(t, e.Dirty())

	e.HandleKeys("<C-r>")
	assert.Equal(t, []string{"bc"}, bufLines(e))

	e.HandleKeys("<C-r>")
	msg, _ := e.Message()
	assert.Equal(t, "Already at newest change", msg)
}

func TestUndoGroupsWholeInsert(t *testing.T) {
	e := load("x")
	e.HandleKeys("ione<CR>two<Esc>")
	require.Equal(t, []string{"one", "twox"}, bufLines(e))

	e.HandleKeys("u")
	assert.Equal(t, []string{"x"}, bufLines(e))
}

func TestNewEditClearsRedo(t *testing.T) {
	e := load("abc")
	e.HandleKeys("xu")
	e.HandleKeys("$x")
	require.Equal(t, []string{"ab"}, bufLines(e))

	e.HandleKeys("<C-r>")
	assert.Equal(t, []string{"ab"}, bufLines(e))
}

func TestUndoLine(t *testing.T) {
	e := load("abc", "def")
	e.HandleKeys("xx")
	require.Equal(t, "c", e.text().Line(0))
	e.HandleKeys("U")
	assert.Equal(t, []string{"abc", "def"}, bufLines(e))
}

func TestDotRepeat(t *testing.T) {
	e := load("abcdefgh")
	e.HandleKeys("x.")
	assert.Equal(t, "cdefgh", e.text().Line(0))

	e.HandleKeys("2x.")
	assert.Equal(t, "gh", e.text().Line(0))

	e = load("a b c d")
	e.HandleKeys("dw.")
	assert.Equal(t, "c d", e.text().Line(0))

	e.HandleKeys("A!<Esc>.")
	assert.Equal(t, "c d!!", e.text().Line(0))
}

func TestDotRepeatWithNewCount(t *testing.T) {
	e := load("1", "2", "3", "4", "5")
	e.HandleKeys("dd3.")
	assert.Equal(t, []string{"5"}, bufLines(e))
}

func TestCountedInsert(t *testing.T) {
	e := load("x")
	e.HandleKeys("3ia<Esc>")
	assert.Equal(t, []string{"aaax"}, bufLines(e))
	assert.Equal(t, pos(0, 2), e.Cursor())
}

func TestOpenLineKeepsIndent(t *testing.T) {
	e := load("\tfoo")
	e.HandleKeys("obar<Esc>")
	assert.Equal(t, []string{"\tfoo", "\tbar"}, bufLines(e))

	e.HandleKeys("o<Esc>")
	assert.Equal(t, []string{"\tfoo", "\tbar", ""}, bufLines(e))
}

func TestNamedRegisters(t *testing.T) {
	e := load("foo bar")
	e.HandleKeys(`"ayw`)
	assert.Equal(t, "foo ", reg(t, e, 'a').Text)
	assert.Equal(t, "foo ", reg(t, e, register.Unnamed).Text)
	assert.Equal(t, []string{"foo bar"}, bufLines(e))

	e.HandleKeys(`w"Ayw`)
	assert.Equal(t, "foo bar", reg(t, e, 'a').Text)

	e.HandleKeys(`"add`)
	r := reg(t, e, 'a')
	assert.Equal(t, "foo bar\n", r.Text)
	assert.Equal(t, register.Linewise, r.Kind)
	assert.Equal(t, r, reg(t, e, register.Unnamed))
}

func TestNumberedDeleteHistory(t *testing.T) {
	e := load("one", "two", "three")
	e.HandleKeys("dddd")
	assert.Equal(t, "two\n", reg(t, e, '1').Text)
	assert.Equal(t, "one\n", reg(t, e, '2').Text)

	e.HandleKeys("x")
	assert.Equal(t, "t", reg(t, e, register.SmallDel).Text)
	assert.Equal(t, "two\n", reg(t, e, '1').Text)
}

func TestBlackHoleKeepsUnnamed(t *testing.T) {
	e := load("abc")
	e.HandleKeys("yl")
	e.HandleKeys(`"_x`)
	assert.Equal(t, "bc", e.text().Line(0))
	assert.Equal(t, "a", reg(t, e, register.Unnamed).Text)
}

func TestPut(t *testing.T) {
	e := load("one", "two")
	e.HandleKeys("yyjp")
	assert.Equal(t, []string{"one", "two", "one"}, bufLines(e))
	assert.Equal(t, pos(2, 0), e.Cursor())

	e = load("ab")
	e.HandleKeys("ylp")
	assert.Equal(t, []string{"aab"}, bufLines(e))

	e = load("ab")
	e.HandleKeys(`"zp`)
	msg, isErr := e.Message()
	assert.Equal(t, "E353: Nothing in register z", msg)
	assert.True(t, isErr)
}

func TestVisualDelete(t *testing.T) {
	e := load("abcdef")
	e.HandleKeys("vll")
	assert.Equal(t, ModeVisual, e.Mode())
	e.HandleKeys("d")
	assert.Equal(t, ModeNormal, e.Mode())
	assert.Equal(t, []string{"def"}, bufLines(e))

	e = load("a", "b", "c")
	e.HandleKeys("Vjd")
	assert.Equal(t, []string{"c"}, bufLines(e))
	assert.Equal(t, register.Linewise, reg(t, e, register.Unnamed).Kind)
}

func TestVisualBlockDelete(t *testing.T) {
	e := load("abc", "def")
	e.HandleKeys("<C-v>jld")
	assert.Equal(t, []string{"c", "f"}, bufLines(e))
	r := reg(t, e, register.Unnamed)
	assert.Equal(t, register.Blockwise, r.Kind)
	assert.Equal(t, "ab\nde", r.Text)
}

func TestVisualBlockInsert(t *testing.T) {
	e := load("abc", "def", "ghi")
	e.HandleKeys("l<C-v>jjI-<Esc>")
	assert.Equal(t, []string{"a-bc", "d-ef", "g-hi"}, bufLines(e))
}

func TestTextObjects(t *testing.T) {
	e := load("f(a, b)")
	e.HandleKeys("3ldi(")
	assert.Equal(t, []string{"f()"}, bufLines(e))

	e = load(`say "hi there" now`)
	e.HandleKeys(`6lda"`)
	assert.Equal(t, []string{"say now"}, bufLines(e))
}

func TestOperatorTakesCountBothSides(t *testing.T) {
	e := load("a b c d e f g")
	e.HandleKeys("2d2w")
	assert.Equal(t, "e f g", e.text().Line(0))
}

func TestFindAndRepeat(t *testing.T) {
	e := load("a,b,c,d")
	e.HandleKeys("f,")
	assert.Equal(t, pos(0, 1), e.Cursor())
	e.HandleKeys(";;")
	assert.Equal(t, pos(0, 5), e.Cursor())
	e.HandleKeys(",")
	assert.Equal(t, pos(0, 3), e.Cursor())
	e.HandleKeys("dt,")
	assert.Equal(t, "a,b,d", e.text().Line(0))
}

func TestMarks(t *testing.T) {
	e := load("abc", "  def", "ghi")
	e.HandleKeys("jllmaG'a")
	assert.Equal(t, pos(1, 2), e.Cursor())

	e.HandleKeys("gg`a")
	assert.Equal(t, pos(1, 2), e.Cursor())

	e.HandleKeys("'z")
	msg, isErr := e.Message()
	assert.Equal(t, "E20: Mark not set", msg)
	assert.True(t, isErr)
}

func TestSearch(t *testing.T) {
	e := load("abc", "def", "abc")
	e.HandleKeys("/abc<CR>")
	assert.Equal(t, ModeNormal, e.Mode())
	assert.Equal(t, pos(2, 0), e.Cursor())

	e.HandleKeys("n")
	assert.Equal(t, pos(0, 0), e.Cursor())

	e.HandleKeys("/nope<CR>")
	msg, isErr := e.Message()
	assert.Equal(t, "E486: Pattern not found: nope", msg)
	assert.True(t, isErr)
	assert.Equal(t, pos(0, 0), e.Cursor())
}

func TestJoinLines(t *testing.T) {
	e := load("one", "  two", "three")
	e.HandleKeys("3J")
	assert.Equal(t, []string{"one two three"}, bufLines(e))
}

func TestIncrement(t *testing.T) {
	e := load("x 41 y")
	e.HandleKeys("<C-a>")
	assert.Equal(t, "x 42 y", e.text().Line(0))
	e.HandleKeys("5<C-x>")
	assert.Equal(t, "x 37 y", e.text().Line(0))
}

func TestCaseOperators(t *testing.T) {
	e := load("hello world")
	e.HandleKeys("gUiw")
	assert.Equal(t, "HELLO world", e.text().Line(0))
	e.HandleKeys("w~")
	assert.Equal(t, "HELLO World", e.text().Line(0))
	e.HandleKeys("g??")
	assert.Equal(t, "URYYB Jbeyq", e.text().Line(0))
}

func TestShiftLines(t *testing.T) {
	e := load("a", "b")
	e.HandleKeys(">j")
	assert.Equal(t, []string{"\ta", "\tb"}, bufLines(e))
	e.HandleKeys("<<")
	assert.Equal(t, []string{"a", "\tb"}, bufLines(e))
}

func TestEscapeCancelsPending(t *testing.T) {
	e := load("abc")
	e.HandleKeys("2d")
	assert.Equal(t, "2d", e.PendingKeys())
	e.HandleKeys("<Esc>x")
	assert.Equal(t, "", e.PendingKeys())
	assert.Equal(t, []string{"bc"}, bufLines(e))
}

func TestKeymap(t *testing.T) {
	cfg := config.Default()
	cfg.Keymap.Normal["Q"] = "dd"
	e := New(cfg)
	e.LoadFile("test.txt", "one\ntwo\n")
	e.HandleKeys("Q")
	assert.Equal(t, []string{"two"}, bufLines(e))
}

func TestFailedCommandAbortsMacro(t *testing.T) {
	e := load("abc", "def")
	require.NoError(t, e.regs.Set('q', register.Register{Text: "kx"}))
	e.HandleKeys("@q")
	assert.Equal(t, []string{"abc", "def"}, bufLines(e))
}

func TestReplaceMode(t *testing.T) {
	e := load("abcd")
	e.HandleKeys("Rxy")
	assert.Equal(t, ModeReplace, e.Mode())
	assert.Equal(t, "xycd", e.text().Line(0))
	e.HandleKeys("<BS><Esc>")
	assert.Equal(t, "xbcd", e.text().Line(0))
	assert.Equal(t, ModeNormal, e.Mode())
}

func TestCommandLineState(t *testing.T) {
	e := load("abc")
	e.HandleKeys(":set")
	cl := e.CommandLine()
	assert.True(t, cl.Active)
	assert.Equal(t, ':', cl.Prefix)
	assert.Equal(t, "set", cl.Text)
	assert.Equal(t, 3, cl.Cursor)

	e.HandleKeys("<Esc>")
	assert.False(t, e.CommandLine().Active)
	assert.Equal(t, ModeNormal, e.Mode())
}
