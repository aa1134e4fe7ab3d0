package protocol

import "testing"

func TestCaptureRefRegistrySetGet(t *testing.T) {
	r := NewCaptureRefRegistry()
	if _, ok := r.Get(1); ok {
		t.Fatal("Get on an empty registry should report not-found")
	}
	r.Set(1, "socket-one-handle")
	got, ok := r.Get(1)
	if !ok || got != "socket-one-handle" {
		t.Fatalf("Get(1) = %v, %v, want %q, true", got, ok, "socket-one-handle")
	}
	if _, ok := r.Get(2); ok {
		t.Fatal("Get(2) should report not-found for a socket id never Set")
	}
}
