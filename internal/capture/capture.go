// Package capture implements the capture core the loop
// that pulls frames out of the camera, stamps a pool buffer with the
// super-frame header, and hands it off to downstream rings by frame number.
package capture

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/brandondube/pctl"

	"github.com/stfc-aeg/odin-orca-quest/internal/bufferpool"
	"github.com/stfc-aeg/odin-orca-quest/internal/camerror"
	"github.com/stfc-aeg/odin-orca-quest/internal/controller"
	"github.com/stfc-aeg/odin-orca-quest/internal/diag"
	"github.com/stfc-aeg/odin-orca-quest/internal/protocol"
	"github.com/stfc-aeg/odin-orca-quest/internal/ring"
)

// Core is one capture core instance, bound to a single socket ID and a
// fixed number of downstream rings, selected by frame_number mod N.
type Core struct {
	SocketID      int
	NumDownstream int

	Controller *controller.Controller
	Pool       *bufferpool.Pool
	Registry   *ring.Registry

	// PL holds the polling cadence (pctl.PhaseLock): only Interval is
	// read here, but an HTTP route can retarget it at runtime.
	PL pctl.PhaseLock

	Logger *log.Logger

	snapshotMu  sync.RWMutex
	snapshotBuf []byte // copy of the last dispatched frame's pool buffer, for on-demand FITS dumps
}

// New returns a capture core polling at the given interval.
func New(socketID, numDownstream int, ctrl *controller.Controller, pool *bufferpool.Pool, reg *ring.Registry, interval time.Duration, logger *log.Logger) *Core {
	if logger == nil {
		logger = log.Default()
	}
	return &Core{
		SocketID:      socketID,
		NumDownstream: numDownstream,
		Controller:    ctrl,
		Pool:          pool,
		Registry:      reg,
		PL:            pctl.PhaseLock{Interval: interval},
		Logger:        logger,
	}
}

// Run drives the capture loop until ctx is cancelled.
func (c *Core) Run(ctx context.Context) error {
	clear := c.Registry.LookupOrCreate(ring.ClearRingName(c.SocketID), c.Pool.NumBuffers())
	downstream := make([]*ring.Ring, c.NumDownstream)
	for i := range downstream {
		downstream[i] = c.Registry.LookupOrCreate(ring.DownstreamRingName("capture", c.SocketID, i), c.Pool.NumBuffers())
	}

	// A plain sleep-and-poll loop, not a ticker, so a runtime interval
	// change (statusapi's /capture/interval route) takes effect on the
	// very next iteration rather than waiting for a ticker reset -- the
	// same immediacy cmd/lowfssrv/main.go's Loop gets by reading pl.Interval
	// directly on every pass instead of pre-arming a timer.
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := c.tick(clear, downstream); err != nil {
			c.Logger.Printf("capture[%d]: aborting: %v", c.SocketID, err)
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.PL.Interval):
		}
	}
}

// tick runs one poll of the capture loop. It is split out of Run so tests
// can drive it directly without racing Run's sleep. A non-nil error is a
// fatal invariant violation; the caller must stop the core.
func (c *Core) tick(clear *ring.Ring, downstream []*ring.Ring) error {
	if !c.Controller.GetRecording() {
		return nil
	}

	status := c.Controller.Status()
	cfg := c.Controller.Config()
	if cfg.NumFrames != 0 && status.FrameNumber() >= uint64(cfg.NumFrames) {
		// Capture limit reached; production pauses here and waits for a
		// control-plane-issued end_capture. The state machine is not
		// touched.
		return nil
	}

	start := time.Now()
	payload, ok := c.Controller.GetFrame()
	if !ok {
		// No frame was ready this tick; frame_number is untouched so the
		// next successful capture still lands on the right sequence number.
		return nil
	}
	frameNumber := status.IncrementFrameNumber()

	idx, ok := clear.TryDequeue()
	if !ok {
		status.IncrementDroppedFrames()
		c.Logger.Printf("capture[%d]: CLEAR ring exhausted, dropping frame %d (crc=%04x)", c.SocketID, frameNumber, diag.TagDrop(payload))
		return nil
	}

	buf := c.Pool.Buffer(idx)
	for i := range buf {
		buf[i] = 0
	}

	complete := time.Now()
	protocol.SetSuperFrameNumber(buf, frameNumber)
	protocol.SetSuperFrameStartTime(buf, uint64(start.UnixNano()))
	protocol.SetSuperFrameCompleteTime(buf, uint64(complete.UnixNano()))
	protocol.SetSuperFrameTimeDelta(buf, uint64(complete.Sub(start)))
	protocol.SetSuperFrameImageSize(buf, uint64(len(payload)))

	hdr := protocol.GetFrameHeader(buf, 0)
	protocol.SetFrameNumber(hdr, frameNumber)
	protocol.SetFrameStartTime(hdr, uint64(start.UnixNano()))
	protocol.SetFrameCompleteTime(hdr, uint64(complete.UnixNano()))
	protocol.SetImageSize(hdr, uint64(len(payload)))
	protocol.SetPacketReceived(hdr, 0)
	protocol.IncrementFramesReceived(buf, 0)

	copy(protocol.GetFrameData(buf, 0), payload)
	status.RecordFrameLatency(complete.Sub(start))

	targetIndex := int(frameNumber % uint64(len(downstream)))
	if !downstream[targetIndex].TryEnqueue(idx) {
		return camerror.RingSizingViolation{SocketID: c.SocketID, Downstream: targetIndex, FrameNumber: frameNumber}
	}

	c.snapshotMu.Lock()
	if cap(c.snapshotBuf) < len(buf) {
		c.snapshotBuf = make([]byte, len(buf))
	}
	c.snapshotBuf = c.snapshotBuf[:len(buf)]
	copy(c.snapshotBuf, buf)
	c.snapshotMu.Unlock()

	return nil
}

// Snapshot returns a copy of the last frame this core dispatched
// downstream, for an operator debug route to dump as a FITS file. ok is
// false until the first frame is captured.
func (c *Core) Snapshot() ([]byte, bool) {
	c.snapshotMu.RLock()
	defer c.snapshotMu.RUnlock()
	if c.snapshotBuf == nil {
		return nil, false
	}
	out := make([]byte, len(c.snapshotBuf))
	copy(out, c.snapshotBuf)
	return out, true
}
