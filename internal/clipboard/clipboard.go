// Package clipboard provides the backends for the + and * registers.
package clipboard

import (
	"errors"
	"sync"

	"github.com/atotto/clipboard"
)

var ErrUnsupported = errors.New("system clipboard unavailable")

type Provider interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// System talks to the desktop clipboard through xclip, xsel, pbcopy or the
// Windows API, whichever atotto/clipboard finds.
type System struct{}

func (System) ReadAll() (string, error) {
	if clipboard.Unsupported {
		return "", ErrUnsupported
	}
	return clipboard.ReadAll()
}

func (System) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}

// Available reports whether a system clipboard tool was found.
func Available() bool {
	return !clipboard.Unsupported
}

// Memory is an in-process clipboard for headless runs and tests.
type Memory struct {
	mu   sync.Mutex
	text string
}

func (m *Memory) ReadAll() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *Memory) WriteAll(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

// Default picks System when it works and Memory otherwise.
func Default() Provider {
	if Available() {
		return System{}
	}
	return &Memory{}
}
