package clipboard

import "testing"

func TestMemoryRoundTrip(t *testing.T) {
	var m Memory
	if err := m.WriteAll("hello\n"); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	got, err := m.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if got != "hello\n" {
		t.Fatalf("ReadAll = %q, want %q", got, "hello\n")
	}
}

func TestDefaultIsUsable(t *testing.T) {
	if Default() == nil {
		t.Fatalf("Default returned nil")
	}
}
