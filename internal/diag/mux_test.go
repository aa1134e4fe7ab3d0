package diag

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/astrogo/fitsio"

	"github.com/stfc-aeg/odin-orca-quest/internal/protocol"
)

type fakeSnapshotter struct {
	buf []byte
	ok  bool
}

func (f fakeSnapshotter) Snapshot() ([]byte, bool) { return f.buf, f.ok }

func newFrameBuffer() []byte {
	buf := make([]byte, protocol.FrameBufferSize())
	hdr := protocol.GetFrameHeader(buf, 0)
	protocol.SetFrameNumber(hdr, 7)
	return buf
}

func TestHandleSnapshotWritesFITS(t *testing.T) {
	refs := protocol.NewCaptureRefRegistry()
	refs.Set(0, fakeSnapshotter{buf: newFrameBuffer(), ok: true})
	core := New(refs)

	req := httptest.NewRequest(http.MethodGet, "/snapshot/0", nil)
	rec := httptest.NewRecorder()
	core.Mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/fits" {
		t.Fatalf("Content-Type = %q, want application/fits", ct)
	}
	if _, err := fitsio.Open(rec.Body); err != nil {
		t.Fatalf("response body is not a readable FITS file: %v", err)
	}
}

func TestHandleSnapshotUnknownSocketNotFound(t *testing.T) {
	refs := protocol.NewCaptureRefRegistry()
	core := New(refs)

	req := httptest.NewRequest(http.MethodGet, "/snapshot/9", nil)
	rec := httptest.NewRecorder()
	core.Mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleSnapshotNoFrameYetServiceUnavailable(t *testing.T) {
	refs := protocol.NewCaptureRefRegistry()
	refs.Set(0, fakeSnapshotter{ok: false})
	core := New(refs)

	req := httptest.NewRequest(http.MethodGet, "/snapshot/0", nil)
	rec := httptest.NewRecorder()
	core.Mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
