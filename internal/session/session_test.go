package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.json")
	s := Open(path)
	if got := s.Get(); got.Active != -1 || len(got.Files) != 0 {
		t.Fatalf("fresh store = %+v", got)
	}
	s.Update(Session{
		Files:          []FileState{{Path: "/a.txt", CursorLine: 3, CursorCol: 1}, {Path: "/b.txt"}},
		Active:         1,
		CommandHistory: []string{"w"},
	})
	if err := s.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got := Open(path).Get()
	if got.Active != 1 || len(got.Files) != 2 {
		t.Fatalf("reopened = %+v", got)
	}
	f, ok := got.File("/a.txt")
	if !ok || f.CursorLine != 3 {
		t.Fatalf("File(/a.txt) = %+v, %v", f, ok)
	}
	if len(got.CommandHistory) != 1 || got.CommandHistory[0] != "w" {
		t.Fatalf("CommandHistory = %v", got.CommandHistory)
	}
}

func TestSaveSkipsWhenClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := Open(path)
	if err := s.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("clean store wrote %s", path)
	}
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Open(path).Get(); got.Active != -1 {
		t.Fatalf("Active = %d, want -1", got.Active)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "s.json"))
	s.Update(Session{Files: []FileState{{Path: "/x"}}})
	got := s.Get()
	got.Files[0].Path = "/changed"
	if s.Get().Files[0].Path != "/x" {
		t.Fatalf("Get shares its slice with the store")
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	p, err := DefaultPath()
	if err != nil || p != "/tmp/state/qvim/session.json" {
		t.Fatalf("DefaultPath = %q, %v", p, err)
	}
}
