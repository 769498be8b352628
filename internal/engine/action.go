package engine

import "github.com/kobzarvs/qvim/internal/buffers"

// Action is a request the engine cannot carry out itself. The front end
// executes the actions returned by HandleKey in order and stops at the first
// SaveBuffer that fails.
type Action interface {
	isAction()
}

// Quit ends the program: the last window was closed.
type Quit struct{}

type QuitAll struct{}

// SaveBuffer asks for Content to be written to Path. Unless Copy is set the
// front end reports success with MarkSaved.
type SaveBuffer struct {
	Buffer  buffers.ID
	Path    string
	Content string
	Copy    bool
}

// OpenFile asks for Path to be read and handed back through LoadFile.
type OpenFile struct {
	Path string
}

type ShowMessage struct {
	Text  string
	Error bool
}

// JumpExternal asks the front end to open Path and call JumpTo. Line and Col
// are 1-based; zero means unspecified.
type JumpExternal struct {
	Path string
	Line int
	Col  int
}

func (Quit) isAction()         {}
func (QuitAll) isAction()      {}
func (SaveBuffer) isAction()   {}
func (OpenFile) isAction()     {}
func (ShowMessage) isAction()  {}
func (JumpExternal) isAction() {}
