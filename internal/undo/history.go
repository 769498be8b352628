package undo

import "github.com/kobzarvs/qvim/internal/textbuf"

// Entry is one logical user action. Edits holds the inverse edits in the
// order they were recorded; undo applies them back to front.
type Entry struct {
	Edits  []textbuf.Edit
	Before textbuf.Position
	After  textbuf.Position
	Seq    uint64
}

// History is a linear undo/redo stack for one buffer.
type History struct {
	undo  []Entry
	redo  []Entry
	open  *Entry
	seq   uint64
	saved uint64
	limit int
}

func New(limit int) *History {
	return &History{limit: limit}
}

// Begin opens a group. Nested calls join the group that is already open.
func (h *History) Begin(cursor textbuf.Position) {
	if h.open != nil {
		return
	}
	h.open = &Entry{Before: cursor}
}

func (h *History) InGroup() bool {
	return h.open != nil
}

// Record appends an inverse edit. Outside of a group it forms an entry of
// its own.
func (h *History) Record(inv textbuf.Edit, cursor textbuf.Position) {
	if h.open == nil {
		h.Begin(cursor)
		h.open.Edits = append(h.open.Edits, inv)
		h.Commit(cursor)
		return
	}
	h.open.Edits = append(h.open.Edits, inv)
}

// Commit closes the open group. Empty groups leave the stacks untouched.
func (h *History) Commit(after textbuf.Position) {
	if h.open == nil {
		return
	}
	entry := h.open
	h.open = nil
	if len(entry.Edits) == 0 {
		return
	}
	h.seq++
	entry.Seq = h.seq
	entry.After = after
	h.undo = append(h.undo, *entry)
	h.redo = h.redo[:0]
	if h.limit > 0 && len(h.undo) > h.limit {
		drop := len(h.undo) - h.limit
		h.undo = append(h.undo[:0:0], h.undo[drop:]...)
	}
}

func (h *History) CanUndo() bool {
	return len(h.undo) > 0
}

func (h *History) CanRedo() bool {
	return len(h.redo) > 0
}

func (h *History) Len() int {
	return len(h.undo)
}

// Undo reverts the newest entry and returns the cursor to restore.
func (h *History) Undo(buf *textbuf.Buffer) (textbuf.Position, bool) {
	h.Commit(textbuf.Position{})
	if len(h.undo) == 0 {
		return textbuf.Position{}, false
	}
	entry := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, replay(buf, entry))
	return entry.Before, true
}

// Redo reapplies the newest undone entry.
func (h *History) Redo(buf *textbuf.Buffer) (textbuf.Position, bool) {
	if len(h.redo) == 0 {
		return textbuf.Position{}, false
	}
	entry := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, replay(buf, entry))
	return entry.After, true
}

// replay applies entry.Edits back to front and collects their inverses in
// production order, so the result can be replayed the same way.
func replay(buf *textbuf.Buffer, entry Entry) Entry {
	out := Entry{
		Edits:  make([]textbuf.Edit, 0, len(entry.Edits)),
		Before: entry.Before,
		After:  entry.After,
		Seq:    entry.Seq,
	}
	for i := len(entry.Edits) - 1; i >= 0; i-- {
		out.Edits = append(out.Edits, buf.Apply(entry.Edits[i]))
	}
	return out
}

// MarkSaved records the current state as the one on disk.
func (h *History) MarkSaved() {
	h.saved = h.top()
}

// Modified reports whether the buffer differs from the last saved state.
func (h *History) Modified() bool {
	if h.open != nil && len(h.open.Edits) > 0 {
		return true
	}
	return h.top() != h.saved
}

// Reset drops all history, for a freshly loaded buffer.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
	h.open = nil
	h.saved = 0
	h.seq = 0
}

func (h *History) top() uint64 {
	if len(h.undo) == 0 {
		return 0
	}
	return h.undo[len(h.undo)-1].Seq
}
