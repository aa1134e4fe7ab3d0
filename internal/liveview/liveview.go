// Package liveview implements an optional operator preview surface: a
// downstream-ring consumer that decodes the most recent frame to a JPEG
// and serves it over HTTP, recycling its buffer back to CLEAR once
// decoded, using the standard image/jpeg encoder rather than an external
// image codec dependency.
package liveview

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/jpeg"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi"

	"github.com/stfc-aeg/odin-orca-quest/internal/bufferpool"
	"github.com/stfc-aeg/odin-orca-quest/internal/protocol"
	"github.com/stfc-aeg/odin-orca-quest/internal/ring"
)

var byteOrder = binary.NativeEndian

// Viewer consumes one downstream ring and serves its most recent frame as
// a JPEG snapshot.
type Viewer struct {
	SocketID int
	Index    int

	Pool     *bufferpool.Pool
	Registry *ring.Registry
	Logger   *log.Logger

	mu     sync.RWMutex
	latest []byte // encoded JPEG bytes
}

// New returns a viewer bound to downstream ring `index` on socketID.
func New(socketID, index int, pool *bufferpool.Pool, reg *ring.Registry, logger *log.Logger) *Viewer {
	if logger == nil {
		logger = log.Default()
	}
	return &Viewer{SocketID: socketID, Index: index, Pool: pool, Registry: reg, Logger: logger}
}

// Drain pulls every buffer currently waiting on this viewer's downstream
// ring, decodes the newest one to a JPEG, and recycles all of them back to
// CLEAR. It is meant to be called on a short poll tick by the owning
// process, the same consumer role a worker core plays against a downstream
// ring.
func (v *Viewer) Drain() {
	downstream := v.Registry.LookupOrCreate(ring.DownstreamRingName("capture", v.SocketID, v.Index), v.Pool.NumBuffers())
	clear := v.Registry.LookupOrCreate(ring.ClearRingName(v.SocketID), v.Pool.NumBuffers())

	var newest uintptr
	got := false
	for {
		idx, ok := downstream.TryDequeue()
		if !ok {
			break
		}
		if got {
			clear.TryEnqueue(newest)
		}
		newest = idx
		got = true
	}
	if !got {
		return
	}

	buf := v.Pool.Buffer(newest)
	encoded, err := encodeJPEG(buf)
	clear.TryEnqueue(newest)
	if err != nil {
		v.Logger.Printf("liveview[%d/%d]: encode failed: %v", v.SocketID, v.Index, err)
		return
	}

	v.mu.Lock()
	v.latest = encoded
	v.mu.Unlock()
}

// encodeJPEG renders the 16-bit payload in buf's frame 0 down to an 8-bit
// grayscale JPEG, taking the high byte of each host-order pixel the same
// way the simulated camera's generator stamps its bright-on-dark label.
func encodeJPEG(buf []byte) ([]byte, error) {
	data := protocol.GetFrameData(buf, 0)
	img := image.NewGray(image.Rect(0, 0, protocol.XResolution, protocol.YResolution))
	for i := range img.Pix {
		px := byteOrder.Uint16(data[2*i:])
		img.Pix[i] = byte(px >> 8)
	}
	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Routes returns this viewer's HTTP surface as a go-chi router; the
// process's other HTTP surfaces (status, feature, diag) use goji.io.
func (v *Viewer) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/frame.jpg", v.serveFrame)
	return r
}

func (v *Viewer) serveFrame(w http.ResponseWriter, r *http.Request) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.latest == nil {
		http.Error(w, "no frame captured yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(v.latest)
}
