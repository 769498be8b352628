package engine

import "github.com/kobzarvs/qvim/internal/keys"

// prefix is the multi-key state waiting for its next key.
type prefix uint8

const (
	prefixNone prefix = iota
	prefixG
	prefixZ
	prefixBigZ
	prefixOpenBracket
	prefixCloseBracket
	prefixWindow
	prefixRegister
	prefixFind
	prefixReplace
	prefixMark
	prefixJump
	prefixRecord
	prefixPlay
	prefixObject
)

type operator uint8

const (
	opNone operator = iota
	opDelete
	opChange
	opYank
	opIndent
	opDedent
	opToggleCase
	opLower
	opUpper
	opRot13
	opFold
)

// opKeys maps the key that starts an operator. The g-prefixed operators are
// looked up in gOpKeys.
var opKeys = map[rune]operator{
	'd': opDelete,
	'c': opChange,
	'y': opYank,
	'>': opIndent,
	'<': opDedent,
}

var gOpKeys = map[rune]operator{
	'~': opToggleCase,
	'u': opLower,
	'U': opUpper,
	'?': opRot13,
}

// doubles reports whether r repeats op as its linewise shorthand, like the
// second d of dd or the last ~ of g~~.
func (op operator) doubles(r rune) bool {
	switch op {
	case opDelete:
		return r == 'd'
	case opChange:
		return r == 'c'
	case opYank:
		return r == 'y'
	case opIndent:
		return r == '>'
	case opDedent:
		return r == '<'
	case opToggleCase:
		return r == '~'
	case opLower:
		return r == 'u'
	case opUpper:
		return r == 'U'
	case opRot13:
		return r == '?'
	}
	return false
}

// pending is the Normal and Visual mode state between keys of one command.
type pending struct {
	count   int
	opCount int
	reg     rune
	op      operator
	prefix  prefix
	// arg is the key that opened the prefix: f/F/t/T, ` or ', i or a.
	arg   rune
	shown []keys.Key
}

func (p *pending) idle() bool {
	return p.count == 0 && p.opCount == 0 && p.reg == 0 && p.op == opNone && p.prefix == prefixNone
}

// counting reports whether a digit extends a count already started, which
// makes 0 a digit rather than a motion.
func (p *pending) counting() bool {
	if p.op != opNone {
		return p.opCount > 0
	}
	return p.count > 0
}

// total is the product of the counts typed before and after an operator, 0
// when none was typed.
func (p *pending) total() int {
	if p.count == 0 && p.opCount == 0 {
		return 0
	}
	return min(max(p.count, 1)*max(p.opCount, 1), maxCount)
}

func (p *pending) n() int {
	return max(p.total(), 1)
}

func (e *Engine) addDigit(d int) {
	c := &e.pend.count
	if e.pend.op != opNone {
		c = &e.pend.opCount
	}
	*c = min(*c*10+d, maxCount)
	if e.mode == ModeNormal {
		e.dropKey()
	}
}

// endPending consumes the pending state for a command that is about to run.
// In Normal mode the count and register are remembered for dot repeat.
func (e *Engine) endPending() (reg rune, count int, has bool) {
	reg, count, has = e.pend.reg, e.pend.n(), e.pend.total() > 0
	if e.mode == ModeNormal {
		if has {
			e.cur.count = e.pend.total()
		}
		e.cur.reg = reg
	}
	e.pend = pending{}
	return reg, count, has
}

// charOf returns the character a key types for r, f and friends.
func charOf(k keys.Key) (rune, bool) {
	switch {
	case k.IsRune():
		return k.Rune, true
	case k == keys.Tab:
		return '\t', true
	case k.IsEnter():
		return '\r', true
	}
	return 0, false
}
