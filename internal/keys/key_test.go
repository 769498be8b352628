package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestFromEventNormalizes(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want Key
	}{
		{"rune", tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone), Rune('a')},
		{"shifted rune", tcell.NewEventKey(tcell.KeyRune, 'A', tcell.ModShift), Rune('A')},
		{"ctrl code", tcell.NewEventKey(tcell.KeyCtrlV, 0, tcell.ModCtrl), Ctrl('v')},
		{"ctrl code w", tcell.NewEventKey(tcell.KeyCtrlW, 0, tcell.ModCtrl), Ctrl('w')},
		{"ctrl shift code", tcell.NewEventKey(tcell.KeyCtrlR, 0, tcell.ModCtrl|tcell.ModShift), Ctrl('r')},
		{"ctrl rune", tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModCtrl), Ctrl('r')},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), Esc},
		{"arrow", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), Left},
		{"del backspace", tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone), Backspace},
		{"ctrl-h backspace", tcell.NewEventKey(tcell.KeyBackspace, 0, tcell.ModNone), Backspace},
	}
	for _, tt := range tests {
		if got := FromEvent(tt.ev); got != tt.want {
			t.Fatalf("%s: FromEvent = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestFromEventCtrlLetters(t *testing.T) {
	for code := tcell.KeyCtrlA; code <= tcell.KeyCtrlZ; code++ {
		letter := 'a' + rune(code-tcell.KeyCtrlA)
		got := FromEvent(tcell.NewEventKey(code, 0, tcell.ModCtrl))
		if !got.IsCtrl(letter) {
			t.Fatalf("FromEvent(ctrl %c) = %+v, not <C-%c>", letter, got, letter)
		}
	}
}

func TestFromEventBackspaceFormats(t *testing.T) {
	k := FromEvent(tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone))
	if got := Format([]Key{k}); got != "<BS>" {
		t.Fatalf("Format(live backspace) = %q, want <BS>", got)
	}
}

func TestPredicates(t *testing.T) {
	if !Rune('x').Is('x') || Ctrl('x').Is('x') {
		t.Fatalf("Is mismatch")
	}
	if !Ctrl('w').IsCtrl('W') {
		t.Fatalf("IsCtrl should ignore letter case")
	}
	if !(Key{Code: tcell.KeyLF}).IsEnter() {
		t.Fatalf("LF should count as enter")
	}
	if !(Key{Code: tcell.KeyBackspace}).IsBackspace() {
		t.Fatalf("^H should count as backspace")
	}
	if d, ok := Rune('7').Digit(); !ok || d != 7 {
		t.Fatalf("Digit = %d, %v", d, ok)
	}
	if _, ok := Rune('x').Digit(); ok {
		t.Fatalf("Digit accepted a letter")
	}
}

func TestStringNotation(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{Rune('a'), "a"},
		{Rune('<'), "<lt>"},
		{Esc, "<Esc>"},
		{Enter, "<CR>"},
		{Backspace, "<BS>"},
		{Ctrl('v'), "<C-v>"},
		{Key{Code: tcell.KeyRune, Rune: 'x', Mod: tcell.ModAlt}, "<A-x>"},
		{Key{Code: tcell.KeyLeft, Mod: tcell.ModShift}, "<S-Left>"},
		{Key{Code: tcell.KeyBacktab}, "<S-Tab>"},
		{Key{Code: tcell.KeyF5}, "<F5>"},
	}
	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Fatalf("String(%+v) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	seq := []Key{
		Rune('q'), Rune('a'), Rune('i'), Rune('<'), Rune('>'), Esc, Ctrl('w'),
		Enter, Up, Key{Code: tcell.KeyRune, Rune: 'j', Mod: tcell.ModAlt}, Rune(' '),
	}
	text := Format(seq)
	got := Parse(text)
	if len(got) != len(seq) {
		t.Fatalf("Parse(%q) len = %d, want %d", text, len(got), len(seq))
	}
	for i := range seq {
		if got[i] != seq[i] {
			t.Fatalf("key %d = %+v, want %+v", i, got[i], seq[i])
		}
	}
}

func TestParseAliasesAndLiterals(t *testing.T) {
	got := Parse("<esc><Enter><c-R>a<foo>")
	want := []Key{Esc, Enter, Ctrl('r'), Rune('a'), Rune('<'), Rune('f'), Rune('o'), Rune('o'), Rune('>')}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("key %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseOne(t *testing.T) {
	k, err := ParseOne("<S-Tab>")
	if err != nil || k.Code != tcell.KeyBacktab {
		t.Fatalf("ParseOne(<S-Tab>) = %+v, %v", k, err)
	}
	k, err = ParseOne("<C-[>")
	if err != nil || k != Esc {
		t.Fatalf("ParseOne(<C-[>) = %+v, %v", k, err)
	}
	if _, err := ParseOne("<Nope>"); err == nil {
		t.Fatalf("ParseOne(<Nope>) succeeded")
	}
	if _, err := ParseOne("ab"); err == nil {
		t.Fatalf("ParseOne(ab) succeeded")
	}
}
