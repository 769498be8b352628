package undo

// LineSnapshot remembers a line as it was before the first change made since
// the cursor moved onto it. It backs the U command.
type LineSnapshot struct {
	Line  int
	Text  string
	Valid bool
}

// Track snapshots text for line unless that line is already tracked.
func (s *LineSnapshot) Track(line int, text string) {
	if s.Valid && s.Line == line {
		return
	}
	s.Line = line
	s.Text = text
	s.Valid = true
}

// Leave forgets the snapshot once the cursor is on another line.
func (s *LineSnapshot) Leave(line int) {
	if s.Valid && s.Line != line {
		s.Valid = false
	}
}

// Swap returns the stored text and keeps current in its place, so a second U
// undoes the first.
func (s *LineSnapshot) Swap(current string) string {
	prev := s.Text
	s.Text = current
	return prev
}

func (s *LineSnapshot) Invalidate() {
	s.Valid = false
}
