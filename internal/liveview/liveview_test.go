package liveview

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stfc-aeg/odin-orca-quest/internal/bufferpool"
	"github.com/stfc-aeg/odin-orca-quest/internal/protocol"
	"github.com/stfc-aeg/odin-orca-quest/internal/ring"
)

func TestServeFrameBeforeDrainReturnsServiceUnavailable(t *testing.T) {
	pool, err := bufferpool.New(2, protocol.FrameBufferSize())
	if err != nil {
		t.Fatalf("bufferpool.New: %v", err)
	}
	defer pool.Close()
	reg := ring.NewRegistry()

	v := New(0, 0, pool, reg, nil)
	srv := httptest.NewServer(v.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/frame.jpg")
	if err != nil {
		t.Fatalf("GET /frame.jpg: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 before any frame has been drained", resp.StatusCode)
	}
}

func TestDrainEncodesNewestFrameAndRecyclesBuffers(t *testing.T) {
	pool, err := bufferpool.New(4, protocol.FrameBufferSize())
	if err != nil {
		t.Fatalf("bufferpool.New: %v", err)
	}
	defer pool.Close()
	reg := ring.NewRegistry()

	clear := reg.LookupOrCreate(ring.ClearRingName(0), pool.NumBuffers())
	downstream := reg.LookupOrCreate(ring.DownstreamRingName("capture", 0, 0), pool.NumBuffers())

	for i := uintptr(0); i < 2; i++ {
		if !downstream.TryEnqueue(i) {
			t.Fatalf("seed downstream buffer %d", i)
		}
	}

	v := New(0, 0, pool, reg, nil)
	v.Drain()

	v.mu.RLock()
	encoded := v.latest
	v.mu.RUnlock()
	if len(encoded) == 0 {
		t.Fatal("Drain should have populated an encoded JPEG frame")
	}

	// Both buffers pulled off downstream should have been recycled to CLEAR.
	seen := 0
	for {
		if _, ok := clear.TryDequeue(); !ok {
			break
		}
		seen++
	}
	if seen != 2 {
		t.Fatalf("CLEAR received %d recycled buffers, want 2", seen)
	}
}

func TestRoutesServeFrameAfterDrain(t *testing.T) {
	pool, err := bufferpool.New(2, protocol.FrameBufferSize())
	if err != nil {
		t.Fatalf("bufferpool.New: %v", err)
	}
	defer pool.Close()
	reg := ring.NewRegistry()
	downstream := reg.LookupOrCreate(ring.DownstreamRingName("capture", 0, 0), pool.NumBuffers())
	downstream.TryEnqueue(0)

	v := New(0, 0, pool, reg, nil)
	v.Drain()

	srv := httptest.NewServer(v.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/frame.jpg")
	if err != nil {
		t.Fatalf("GET /frame.jpg: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", ct)
	}
}
