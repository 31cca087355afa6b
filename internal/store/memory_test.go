package store

import (
	"errors"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()

	if _, ok, _ := m.Get(KeyToken); ok {
		t.Fatal("fresh store should not contain token")
	}

	if err := m.Set(KeyToken, "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := m.Get(KeyToken)
	if err != nil || !ok || v != "abc" {
		t.Fatalf("Get = (%q, %v, %v)", v, ok, err)
	}

	if err := m.Delete(KeyToken); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := m.Get(KeyToken); ok {
		t.Fatal("token survived delete")
	}
	// deleting twice is fine
	if err := m.Delete(KeyToken); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestMemoryClosedRejectsOperations(t *testing.T) {
	m := NewMemory()
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Set(KeyUser, "{}"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Set after close = %v, want ErrClosed", err)
	}
	if _, _, err := m.Get(KeyUser); !errors.Is(err, ErrClosed) {
		t.Fatalf("Get after close = %v, want ErrClosed", err)
	}
}
