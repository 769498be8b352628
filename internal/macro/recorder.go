// Package macro records key sequences into registers and queues them for
// replay through the dispatcher.
package macro

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/kobzarvs/qvim/internal/keys"
)

var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrRecursive        = errors.New("macro register is being recorded")
	ErrInvalidRegister  = errors.New("invalid macro register")
	ErrTooDeep          = errors.New("macro nesting too deep")
	ErrTooMany          = errors.New("macro replay too long")
)

// IsValidRegister reports whether name can hold a recording.
func IsValidRegister(name rune) bool {
	switch {
	case name >= 'a' && name <= 'z', name >= 'A' && name <= 'Z', name >= '0' && name <= '9':
		return true
	case name == '"':
		return true
	}
	return false
}

// Recorder captures live keys while a q{reg} recording is active.
type Recorder struct {
	recording  bool
	register   rune
	events     []keys.Key
	lastPlayed rune
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Start(register rune) error {
	if !IsValidRegister(register) {
		return fmt.Errorf("%w: %q", ErrInvalidRegister, register)
	}
	if r.recording {
		return fmt.Errorf("%w: %c", ErrAlreadyRecording, r.register)
	}
	r.recording = true
	r.register = register
	r.events = nil
	return nil
}

// Stop ends the recording. The key that stopped it was recorded last and is
// dropped from the result.
func (r *Recorder) Stop() (rune, []keys.Key) {
	if !r.recording {
		return 0, nil
	}
	events := r.events
	if len(events) > 0 {
		events = events[:len(events)-1]
	}
	reg := r.register
	r.recording = false
	r.register = 0
	r.events = nil
	return reg, events
}

func (r *Recorder) Record(k keys.Key) {
	if r.recording {
		r.events = append(r.events, k)
	}
}

// Recording returns the active register.
func (r *Recorder) Recording() (rune, bool) {
	return r.register, r.recording
}

// Guard refuses to play the register that is currently being recorded.
func (r *Recorder) Guard(register rune) error {
	if r.recording && unicode.ToLower(register) == unicode.ToLower(r.register) {
		return fmt.Errorf("%w: %c", ErrRecursive, register)
	}
	return nil
}

func (r *Recorder) SetLastPlayed(register rune) {
	r.lastPlayed = register
}

// LastPlayed backs @@. It is 0 before any playback.
func (r *Recorder) LastPlayed() rune {
	return r.lastPlayed
}
