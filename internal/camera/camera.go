// Package camera implements the polymorphic camera capability: a small
// closed variant set (real hardware, simulated), represented as a shared
// interface rather than an object hierarchy. Dynamic dispatch is fine
// here because the call rate (once per frame) is modest next to the
// multi-megabyte memcpy that dominates each iteration.
package camera

import "time"

// Camera is the capability every variant implements. All operations are
// synchronous; CaptureFrame is the only one that may block, up to the
// armed timeout.
type Camera interface {
	// APIInit performs one-shot, idempotent global initialisation.
	APIInit() error

	// Connect opens device index and must succeed before any capture
	// operation is attempted.
	Connect(index int) error

	// Disconnect reverses Connect.
	Disconnect() error

	// AttachBuffer allocates the camera's internal circular buffer for
	// nFrames frames.
	AttachBuffer(nFrames int) error

	// PrepareCapture arms the device with the given per-frame timeout.
	PrepareCapture(timeout time.Duration) error

	// CaptureFrame blocks up to the armed timeout for the next frame. The
	// returned slice is owned by the camera and is only valid until the
	// next CaptureFrame call or Disarm. ok is false on timeout or when the
	// camera is not armed.
	CaptureFrame() (payload []byte, ok bool)

	// AbortCapture, Disarm, RemoveBuffer and Close are teardown stages, in
	// that order.
	AbortCapture() error
	Disarm() error
	RemoveBuffer() error
	Close() error

	// SetProperty sets a controller-level symbolic property (e.g.
	// "exposure_time", "trigger_source"). It returns false if the camera
	// rejects the value.
	SetProperty(name string, value interface{}) bool

	// GetProperty reads back a property by vendor-specific numeric ID.
	GetProperty(id int32) float64

	// GetDeviceCount reports how many devices of this variant are visible.
	GetDeviceCount() int
}
