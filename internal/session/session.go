package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileState is the remembered view of one file.
type FileState struct {
	Path       string `json:"path"`
	CursorLine int    `json:"cursor_line"`
	CursorCol  int    `json:"cursor_col"`
	TopLine    int    `json:"top_line"`
	LeftCol    int    `json:"left_col"`
}

// Session is what the engine exposes for persistence. Files keeps the
// order buffers were opened in; Active indexes into it or is -1.
type Session struct {
	Files          []FileState `json:"files"`
	Active         int         `json:"active"`
	CommandHistory []string    `json:"command_history,omitempty"`
	SearchHistory  []string    `json:"search_history,omitempty"`
	LastSaved      time.Time   `json:"last_saved"`
}

// File returns the state stored for path.
func (s Session) File(path string) (FileState, bool) {
	for _, f := range s.Files {
		if f.Path == path {
			return f, true
		}
	}
	return FileState{}, false
}

// Store persists a Session as JSON.
type Store struct {
	mu      sync.RWMutex
	session Session
	path    string
	dirty   bool
}

func DefaultPath() (string, error) {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "qvim", "session.json"), nil
}

// Open loads the store at path. A missing or unreadable file starts empty.
func Open(path string) *Store {
	s := &Store{session: Session{Active: -1}, path: path}
	s.load()
	return s
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return
	}
	if sess.Active >= len(sess.Files) {
		sess.Active = -1
	}
	s.session = sess
}

func (s *Store) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.session
	out.Files = append([]FileState(nil), s.session.Files...)
	out.CommandHistory = append([]string(nil), s.session.CommandHistory...)
	out.SearchHistory = append([]string(nil), s.session.SearchHistory...)
	return out
}

// Update replaces the stored session. Nothing is written until Save.
func (s *Store) Update(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
	s.dirty = true
}

// Save writes the session if it changed since the last save.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	s.session.LastSaved = time.Now()
	data, err := json.MarshalIndent(s.session, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("session dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Join(err, os.Remove(tmp))
	}
	s.dirty = false
	return nil
}
