package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobzarvs/qvim/internal/register"
)

func saves(actions []Action) []SaveBuffer {
	var out []SaveBuffer
	for _, a := range actions {
		if s, ok := a.(SaveBuffer); ok {
			out = append(out, s)
		}
	}
	return out
}

func lastMessage(t *testing.T, e *Engine, wantErr bool) string {
	t.Helper()
	msg, isErr := e.Message()
	require.Equal(t, wantErr, isErr, "message %q", msg)
	return msg
}

func TestSubstitute(t *testing.T) {
	e := load("foo boo", "xo")
	e.HandleKeys(":%s/o/0/g<CR>")
	assert.Equal(t, []string{"f00 b00", "x0"}, bufLines(e))
	assert.Equal(t, "5 substitutions on 2 lines", lastMessage(t, e, false))
	assert.Equal(t, pos(1, 0), e.Cursor())

	e.HandleKeys("u")
	assert.Equal(t, []string{"foo boo", "xo"}, bufLines(e))
}

func TestSubstituteFirstMatchOnly(t *testing.T) {
	e := load("a a", "a a")
	e.HandleKeys(":s/a/b/<CR>")
	assert.Equal(t, []string{"b a", "a a"}, bufLines(e))

	e.HandleKeys("j&")
	assert.Equal(t, []string{"b a", "b a"}, bufLines(e))
}

func TestSubstituteGroupsAndCase(t *testing.T) {
	e := load("hello world")
	e.HandleKeys(`:s/\(\w\+\) \(\w\+\)/\2 \1/<CR>`)
	assert.Equal(t, []string{"world hello"}, bufLines(e))

	e.HandleKeys(`:s/\w\+/\u&/g<CR>`)
	assert.Equal(t, []string{"World Hello"}, bufLines(e))

	e.HandleKeys(`:s/ /\r/<CR>`)
	assert.Equal(t, []string{"World", "Hello"}, bufLines(e))
}

func TestSubstituteCountOnly(t *testing.T) {
	e := load("a a", "a")
	e.HandleKeys(":%s/a//gn<CR>")
	assert.Equal(t, []string{"a a", "a"}, bufLines(e))
	assert.Equal(t, "3 matches on 2 lines", lastMessage(t, e, false))
}

func TestSubstituteNotFound(t *testing.T) {
	e := load("abc")
	e.HandleKeys(":s/x/y/<CR>")
	assert.Equal(t, "E486: Pattern not found: x", lastMessage(t, e, true))

	e = load("abc")
	e.HandleKeys(":s/x/y/e<CR>")
	_, isErr := e.Message()
	assert.False(t, isErr)
}

func TestExDeleteAndYank(t *testing.T) {
	e := load("a", "b", "c", "d")
	e.HandleKeys(":2,3d<CR>")
	assert.Equal(t, []string{"a", "d"}, bufLines(e))
	assert.Equal(t, "b\nc\n", reg(t, e, register.Unnamed).Text)

	e.HandleKeys(":%y x<CR>")
	assert.Equal(t, "a\nd\n", reg(t, e, 'x').Text)
	assert.Equal(t, []string{"a", "d"}, bufLines(e))
}

func TestExMoveAndCopy(t *testing.T) {
	e := load("a", "b", "c", "d")
	e.HandleKeys(":2,3m0<CR>")
	assert.Equal(t, []string{"b", "c", "a", "d"}, bufLines(e))
	assert.Equal(t, pos(1, 0), e.Cursor())

	e.HandleKeys(":1t$<CR>")
	assert.Equal(t, []string{"b", "c", "a", "d", "b"}, bufLines(e))

	e.HandleKeys(":1,3m2<CR>")
	assert.Equal(t, "E134: Cannot move a range of lines into itself", lastMessage(t, e, true))
}

func TestExNormal(t *testing.T) {
	e := load("one", "two", "three")
	e.HandleKeys(":%normal A;<CR>")
	assert.Equal(t, []string{"one;", "two;", "three;"}, bufLines(e))
	assert.Equal(t, ModeNormal, e.Mode())

	e.HandleKeys("u")
	assert.Equal(t, []string{"one", "two", "three"}, bufLines(e))
}

func TestExShiftAndJoin(t *testing.T) {
	e := load("a", "b", "c")
	e.HandleKeys(":%><CR>")
	assert.Equal(t, []string{"\ta", "\tb", "\tc"}, bufLines(e))

	e.HandleKeys(":1,2j<CR>")
	assert.Equal(t, []string{"\ta b", "\tc"}, bufLines(e))
}

func TestExGotoLine(t *testing.T) {
	e := load("a", "  b", "c")
	e.HandleKeys(":2<CR>")
	assert.Equal(t, pos(1, 2), e.Cursor())
	e.HandleKeys(":$<CR>")
	assert.Equal(t, pos(2, 0), e.Cursor())
	e.HandleKeys(":9<CR>")
	assert.Equal(t, "E16: Invalid range", lastMessage(t, e, true))
}

func TestExPatternAddress(t *testing.T) {
	e := load("a", "b", "c", "d")
	e.HandleKeys(":/c/d<CR>")
	assert.Equal(t, []string{"a", "b", "d"}, bufLines(e))
}

func TestExRepeatLastCommand(t *testing.T) {
	e := load("a", "b", "c")
	e.HandleKeys(":d<CR>")
	e.HandleKeys("@:")
	assert.Equal(t, []string{"c"}, bufLines(e))
	assert.Equal(t, "d", reg(t, e, register.LastCmd).Text)
}

func TestExSet(t *testing.T) {
	e := load("a")
	e.HandleKeys(":set sw=4 et<CR>")
	assert.Equal(t, 4, e.Options().ShiftWidth)
	assert.True(t, e.Options().ExpandTab)

	e.HandleKeys(">>")
	assert.Equal(t, []string{"    a"}, bufLines(e))

	e.HandleKeys(":set sw?<CR>")
	assert.Contains(t, lastMessage(t, e, false), "shiftwidth=4")

	e.HandleKeys(":set bogus<CR>")
	assert.Equal(t, "E518: Unknown option: bogus", lastMessage(t, e, true))

	e.HandleKeys(":set sw=x<CR>")
	assert.Equal(t, "E521: Number required after =: sw=x", lastMessage(t, e, true))
}

func TestExWrite(t *testing.T) {
	e := load("a", "b")
	out := saves(e.HandleKeys(":w<CR>"))
	require.Len(t, out, 1)
	assert.Equal(t, SaveBuffer{Buffer: e.ActiveBuffer(), Path: "test.txt", Content: "a\nb\n"}, out[0])

	out = saves(e.HandleKeys(":w copy.txt<CR>"))
	require.Len(t, out, 1)
	assert.True(t, out[0].Copy)
	assert.Equal(t, "copy.txt", out[0].Path)

	out = saves(e.HandleKeys(":2w part.txt<CR>"))
	require.Len(t, out, 1)
	assert.Equal(t, "b\n", out[0].Content)
	assert.True(t, out[0].Copy)

	e.HandleKeys(":2w<CR>")
	assert.Equal(t, "E140: Use ! to write partial buffer", lastMessage(t, e, true))
}

func TestWriteUnnamedBuffer(t *testing.T) {
	e := load("a")
	e.HandleKeys(":enew<CR>")
	e.HandleKeys(":w<CR>")
	assert.Equal(t, "E32: No file name", lastMessage(t, e, true))

	out := saves(e.HandleKeys(":w new.txt<CR>"))
	require.Len(t, out, 1)
	assert.False(t, out[0].Copy)
	assert.Equal(t, "", out[0].Content)
	assert.Equal(t, "new.txt", reg(t, e, register.FileName).Text)
}

func TestMarkSavedClearsDirty(t *testing.T) {
	e := load("abc")
	e.HandleKeys("x")
	require.True(t, e.Dirty())
	e.HandleKeys(":w<CR>")
	e.MarkSaved(e.ActiveBuffer())
	assert.False(t, e.Dirty())
	assert.Equal(t, `"test.txt" 1L, 3B written`, lastMessage(t, e, false))
}

func TestQuit(t *testing.T) {
	e := load("abc")
	assert.Equal(t, []Action{Quit{}}, e.HandleKeys(":q<CR>"))

	e = load("abc")
	e.HandleKeys("x")
	actions := e.HandleKeys(":q<CR>")
	assert.NotContains(t, actions, Quit{})
	assert.Equal(t, "E37: No write since last change (add ! to override)", lastMessage(t, e, true))

	assert.Contains(t, e.HandleKeys(":q!<CR>"), Quit{})
}

func TestWriteQuit(t *testing.T) {
	e := load("abc")
	e.HandleKeys("x")
	actions := e.HandleKeys(":wq<CR>")
	require.Len(t, actions, 2)
	assert.IsType(t, SaveBuffer{}, actions[0])
	assert.Equal(t, Quit{}, actions[1])

	e = load("abc")
	assert.Equal(t, []Action{Quit{}}, e.HandleKeys("ZZ"))
}

func TestQuitAll(t *testing.T) {
	e := load("abc")
	e.HandleKeys("x")
	e.HandleKeys(":qa<CR>")
	assert.Equal(t, `E162: No write since last change for buffer "test.txt"`, lastMessage(t, e, true))
	assert.Contains(t, e.HandleKeys(":qa!<CR>"), QuitAll{})
}

func TestUnknownCommand(t *testing.T) {
	e := load("abc")
	e.HandleKeys(":frobnicate<CR>")
	assert.Equal(t, "E492: Not an editor command: frobnicate", lastMessage(t, e, true))

	e.HandleKeys(":2,1d<CR>")
	assert.Equal(t, "E16: Invalid range", lastMessage(t, e, true))
}

func TestExMarks(t *testing.T) {
	e := load("a", "b", "c")
	e.HandleKeys(":3mark x<CR>")
	e.HandleKeys("'x")
	assert.Equal(t, pos(2, 0), e.Cursor())

	e.HandleKeys(":delmarks x<CR>")
	e.HandleKeys("gg'x")
	assert.Equal(t, "E20: Mark not set", lastMessage(t, e, true))
	assert.Equal(t, pos(0, 0), e.Cursor())
}

func TestExPut(t *testing.T) {
	e := load("a", "b")
	e.HandleKeys("yl")
	e.HandleKeys(":$put<CR>")
	assert.Equal(t, []string{"a", "b", "a"}, bufLines(e))

	e.HandleKeys(":0put<CR>")
	assert.Equal(t, []string{"a", "a", "b", "a"}, bufLines(e))
}

func TestExRegistersListing(t *testing.T) {
	e := load("abc")
	e.HandleKeys(`"qyl`)
	e.HandleKeys(":registers<CR>")
	msg := lastMessage(t, e, false)
	assert.Contains(t, msg, "Type Name Content")
	assert.Contains(t, msg, `"q   a`)
}
