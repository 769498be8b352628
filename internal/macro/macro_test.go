package macro

import (
	"errors"
	"testing"

	"github.com/kobzarvs/qvim/internal/keys"
)

func TestIsValidRegister(t *testing.T) {
	tests := []struct {
		input rune
		want  bool
	}{
		{'a', true},
		{'Z', true},
		{'5', true},
		{'"', true},
		{'!', false},
		{' ', false},
		{0, false},
	}
	for _, tt := range tests {
		if got := IsValidRegister(tt.input); got != tt.want {
			t.Errorf("IsValidRegister(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestRecorderDropsStopKey(t *testing.T) {
	r := NewRecorder()
	if err := r.Start('a'); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start('b'); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("second Start err = %v, want ErrAlreadyRecording", err)
	}
	for _, k := range keys.Parse("xxq") {
		r.Record(k)
	}
	reg, got := r.Stop()
	if reg != 'a' {
		t.Fatalf("register = %q, want 'a'", reg)
	}
	if keys.Format(got) != "xx" {
		t.Fatalf("recorded = %q, want %q", keys.Format(got), "xx")
	}
	if _, on := r.Recording(); on {
		t.Fatalf("still recording after Stop")
	}
}

func TestRecorderGuard(t *testing.T) {
	r := NewRecorder()
	if err := r.Start('q'); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Guard('Q'); !errors.Is(err, ErrRecursive) {
		t.Fatalf("Guard err = %v, want ErrRecursive", err)
	}
	if err := r.Guard('w'); err != nil {
		t.Fatalf("Guard(w) = %v", err)
	}
	if err := r.Start('!'); err == nil {
		t.Fatalf("Start accepted invalid register")
	}
}

func TestQueueNestsAtFront(t *testing.T) {
	q := NewQueue(10, 100)
	if err := q.Push(keys.Parse("ab"), 1, 1); err != nil {
		t.Fatalf("Push: %v", err)
	}
	k, depth, _ := q.Pop()
	if !k.Is('a') || depth != 1 {
		t.Fatalf("Pop = %v depth %d", k, depth)
	}
	if err := q.Push(keys.Parse("xy"), 2, 2); err != nil {
		t.Fatalf("Push nested: %v", err)
	}
	var got []keys.Key
	for {
		k, _, ok := q.Pop()
		if !ok {
			break
		}
		got = append(got, k)
	}
	if keys.Format(got) != "xyxyb" {
		t.Fatalf("order = %q, want %q", keys.Format(got), "xyxyb")
	}
}

func TestQueueCaps(t *testing.T) {
	q := NewQueue(2, 10)
	if err := q.Push(keys.Parse("a"), 1, 3); !errors.Is(err, ErrTooDeep) {
		t.Fatalf("deep push err = %v, want ErrTooDeep", err)
	}
	err := q.Push(keys.Parse("abc"), 5, 1)
	if !errors.Is(err, ErrTooMany) {
		t.Fatalf("long push err = %v, want ErrTooMany", err)
	}
	if q.Len() != 9 {
		t.Fatalf("Len = %d, want 9 (three whole copies)", q.Len())
	}
	q.Reset()
	if q.Len() != 0 {
		t.Fatalf("Len after Reset = %d", q.Len())
	}
	if err := q.Push(keys.Parse("abc"), 3, 1); err != nil {
		t.Fatalf("Push after Reset: %v", err)
	}
}
