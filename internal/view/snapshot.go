package view

import (
	"github.com/kobzarvs/qvim/internal/buffers"
	"github.com/kobzarvs/qvim/internal/textbuf"
)

type SelectionKind uint8

const (
	SelectNone SelectionKind = iota
	SelectChar
	SelectLine
	SelectBlock
)

// Selection is an inclusive visual range, Start before End.
type Selection struct {
	Kind  SelectionKind
	Start textbuf.Position
	End   textbuf.Position
}

// Snapshot is the read-only picture of one window handed to a renderer.
type Snapshot struct {
	Window    int
	Buffer    buffers.ID
	Name      string
	Rows      []Row
	LineCount int
	Top       int
	Left      int
	Cursor    textbuf.Position
	// CursorColumn is the cursor's display column.
	CursorColumn int
	Selection    Selection
	// Matches are the highlighted search matches on the rows shown.
	Matches []textbuf.Range
	Folds   []Fold
	// Gutter is the width of the line number column, zero when hidden.
	// Relative numbers count from the cursor line.
	Gutter   int
	Relative bool
	TabWidth int
	Dirty    bool
	Active   bool
}
