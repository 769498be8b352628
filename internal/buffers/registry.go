// Package buffers owns every open text buffer together with its path, undo
// history, marks and buffer-local options.
package buffers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kobzarvs/qvim/internal/textbuf"
	"github.com/kobzarvs/qvim/internal/undo"
)

var ErrNoBuffer = errors.New("no such buffer")

// ID identifies a buffer for its whole lifetime. IDs are never reused.
type ID int

// Options are the settings a buffer keeps for itself.
type Options struct {
	TabWidth   int
	ShiftWidth int
	ExpandTab  bool
	AutoIndent bool
}

// State is one open buffer.
type State struct {
	ID       ID
	Text     *textbuf.Buffer
	Path     string
	History  *undo.History
	Marks    map[rune]textbuf.Position
	Options  Options
	LineUndo undo.LineSnapshot
}

// Name is the display name used by :ls and the status line.
func (s *State) Name() string {
	if s.Path == "" {
		return "[No Name]"
	}
	return s.Path
}

// Dirty reports unsaved changes.
func (s *State) Dirty() bool {
	return s.History.Modified()
}

func (s *State) MarkSaved() {
	s.History.MarkSaved()
}

// Apply performs e, records its inverse in the undo history and keeps marks
// on their lines. It returns the inverse edit, whose End is where the new
// text stops.
func (s *State) Apply(e textbuf.Edit, cursor textbuf.Position) textbuf.Edit {
	start, end := textbuf.Order(s.Text.Clamp(e.Start), s.Text.Clamp(e.End))
	inv := s.Text.Apply(e)
	s.History.Record(inv, cursor)
	s.shiftMarks(start.Line, end.Line, strings.Count(e.Text, "\n"))
	return inv
}

func (s *State) shiftMarks(startLine, endLine, added int) {
	removed := endLine - startLine
	delta := added - removed
	if delta == 0 {
		return
	}
	for name, p := range s.Marks {
		switch {
		case p.Line > endLine:
			p.Line += delta
		case p.Line > startLine+added:
			p.Line = startLine + added
		default:
			continue
		}
		s.Marks[name] = s.Text.Clamp(p)
	}
}

// Registry is the arena of open buffers.
type Registry struct {
	next      ID
	states    map[ID]*State
	order     []ID
	Defaults  Options
	UndoLimit int
}

func NewRegistry(defaults Options, undoLimit int) *Registry {
	return &Registry{states: make(map[ID]*State), Defaults: defaults, UndoLimit: undoLimit}
}

// Create opens a buffer over content. A fresh buffer is not dirty.
func (r *Registry) Create(path, content string) *State {
	r.next++
	st := &State{
		ID:      r.next,
		Text:    textbuf.FromString(content),
		Path:    path,
		History: undo.New(r.UndoLimit),
		Marks:   make(map[rune]textbuf.Position),
		Options: r.Defaults,
	}
	r.states[st.ID] = st
	r.order = append(r.order, st.ID)
	return st
}

func (r *Registry) Get(id ID) (*State, bool) {
	st, ok := r.states[id]
	return st, ok
}

func (r *Registry) Delete(id ID) error {
	if _, ok := r.states[id]; !ok {
		return fmt.Errorf("%w: %d", ErrNoBuffer, id)
	}
	delete(r.states, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns the buffers in the order they were opened.
func (r *Registry) List() []*State {
	out := make([]*State, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.states[id])
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.order)
}

// FindByPath matches cleaned paths.
func (r *Registry) FindByPath(path string) (*State, bool) {
	if path == "" {
		return nil, false
	}
	want := filepath.Clean(path)
	for _, id := range r.order {
		st := r.states[id]
		if st.Path != "" && filepath.Clean(st.Path) == want {
			return st, true
		}
	}
	return nil, false
}

// Cycle returns the buffer delta steps away from id in list order, wrapping.
func (r *Registry) Cycle(id ID, delta int) (ID, bool) {
	n := len(r.order)
	if n == 0 {
		return 0, false
	}
	idx := 0
	for i, v := range r.order {
		if v == id {
			idx = i
			break
		}
	}
	idx = ((idx+delta)%n + n) % n
	return r.order[idx], true
}

// ReplaceContent swaps a buffer's text in one undoable step and marks the
// result as saved, as when the file is reloaded from disk.
func (r *Registry) ReplaceContent(id ID, content string, cursor textbuf.Position) error {
	st, ok := r.states[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoBuffer, id)
	}
	content = strings.TrimSuffix(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if content != st.Text.String() {
		st.History.Commit(cursor)
		st.History.Begin(cursor)
		st.Apply(textbuf.Edit{Start: textbuf.Position{}, End: st.Text.EndOfBuffer(), Text: content}, cursor)
		st.History.Commit(st.Text.Clamp(cursor))
	}
	st.LineUndo.Invalidate()
	st.MarkSaved()
	return nil
}
