package auxstore

import (
	"errors"
	"testing"
)

func TestInMemoryGetMissingKey(t *testing.T) {
	s := NewInMemory()
	_, err := s.Get("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryPutThenGet(t *testing.T) {
	s := NewInMemory()
	if err := s.Put("k", []byte("v")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := s.Get("k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(v) != "v" {
		t.Fatalf("got %q want %q", v, "v")
	}
}

func TestInMemoryHas(t *testing.T) {
	s := NewInMemory()
	if ok, _ := s.Has("k"); ok {
		t.Fatal("expected Has to be false before Put")
	}
	_ = s.Put("k", []byte("v"))
	if ok, _ := s.Has("k"); !ok {
		t.Fatal("expected Has to be true after Put")
	}
}

func TestInMemoryGetReturnsACopy(t *testing.T) {
	s := NewInMemory()
	_ = s.Put("k", []byte{1, 2, 3})
	v, _ := s.Get("k")
	v[0] = 9
	v2, _ := s.Get("k")
	if v2[0] != 1 {
		t.Fatal("expected Get to return an isolated copy")
	}
}
