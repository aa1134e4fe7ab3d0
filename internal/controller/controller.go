// Package controller implements the camera controller: the single mutator
// of configuration and status, owning the camera variant instance and
// driving the state machine.
package controller

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/mitchellh/mapstructure"

	"github.com/stfc-aeg/odin-orca-quest/internal/camera"
	"github.com/stfc-aeg/odin-orca-quest/internal/camerror"
	"github.com/stfc-aeg/odin-orca-quest/internal/config"
	"github.com/stfc-aeg/odin-orca-quest/internal/ipc"
	"github.com/stfc-aeg/odin-orca-quest/internal/statemachine"
)

// Status is the controller's read-mostly status record, supplemented with
// dropped_frames and last frame latency the way OrcaQuestCameraStatus.h
// carries richer timing fields than a minimal status struct would.
type Status struct {
	statusMu     sync.RWMutex
	cameraStatus string

	frameNumber      atomic.Uint64
	droppedFrames    atomic.Uint64
	lastFrameLatency atomic.Int64 // nanoseconds
}

func (s *Status) setCameraStatus(v string) {
	s.statusMu.Lock()
	s.cameraStatus = v
	s.statusMu.Unlock()
}

// CameraStatus returns the current state name, as last set by a
// successful command execution.
func (s *Status) CameraStatus() string {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.cameraStatus
}

// FrameNumber returns the current frame counter.
func (s *Status) FrameNumber() uint64 { return s.frameNumber.Load() }

// DroppedFrames returns the CLEAR-exhaustion drop counter.
func (s *Status) DroppedFrames() uint64 { return s.droppedFrames.Load() }

// LastFrameLatency returns the last observed start-to-complete delta.
func (s *Status) LastFrameLatency() time.Duration {
	return time.Duration(s.lastFrameLatency.Load())
}

// IncrementFrameNumber is called by the capture loop exactly once per
// dequeued-from-camera frame, whether or not the buffer acquire succeeded
// (frame_number invariant).
func (s *Status) IncrementFrameNumber() uint64 {
	return s.frameNumber.Add(1) - 1
}

// ResetFrameNumber is called on every capture command.
func (s *Status) ResetFrameNumber() { s.frameNumber.Store(0) }

// IncrementDroppedFrames accounts a CLEAR-ring-exhaustion drop.
func (s *Status) IncrementDroppedFrames() { s.droppedFrames.Add(1) }

// RecordFrameLatency records the most recent frame's start-to-complete delta.
func (s *Status) RecordFrameLatency(d time.Duration) { s.lastFrameLatency.Store(int64(d)) }

// Controller owns the camera variant, configuration and status, and drives
// the state machine. It is the single mutator of config and status; the
// capture loop only reads them.
type Controller struct {
	mu  sync.Mutex
	cam camera.Camera
	cfg config.Camera

	vid, pid uint16

	sm     *statemachine.StateMachine
	status Status

	recording atomic.Bool

	logger *log.Logger
}

// New returns a controller constructed in the Off state, with cfg as its
// initial configuration. The camera variant is not constructed until the
// first connect command (lazy-construction lifecycle); it is kept even if
// that command's handshake fails.
func New(cfg config.Camera, vid, pid uint16, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	c := &Controller{cfg: cfg, vid: vid, pid: pid, logger: logger}
	c.sm = statemachine.New(c)
	c.status.setCameraStatus(c.sm.CurrentName())
	return c
}

// --- statemachine.Hooks ---

// Connect is the Off->Connected hook: it lazily constructs the camera
// variant, retries the hardware handshake with backoff , and
// pushes the full current configuration to the camera on success.
func (c *Controller) Connect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cam == nil {
		cam, err := camera.New(c.cfg.SimulatedCamera, c.vid, c.pid)
		if err != nil {
			c.logger.Printf("controller: cannot construct camera variant: %v", err)
			return false
		}
		c.cam = cam
	}

	retry := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	err := backoff.Retry(func() error {
		if err := c.cam.APIInit(); err != nil {
			return err
		}
		return c.cam.Connect(int(c.cfg.CameraNumber))
	}, retry)
	if err != nil {
		c.logger.Printf("controller: connect failed after retries: %v", err)
		return false
	}

	c.applyConfigurationLocked()
	return true
}

// Disconnect is the Connected->Off hook.
func (c *Controller) Disconnect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cam == nil {
		return true
	}
	if err := c.cam.Disconnect(); err != nil {
		c.logger.Printf("controller: disconnect failed: %v", err)
		return false
	}
	return true
}

// StartCapture is the Connected->Capturing hook.
func (c *Controller) StartCapture() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cam == nil {
		return false
	}
	if err := c.cam.AttachBuffer(10); err != nil {
		c.logger.Printf("controller: attach buffer failed: %v", err)
		return false
	}
	timeout := time.Duration(c.cfg.ImageTimeout * float64(time.Second))
	if err := c.cam.PrepareCapture(timeout); err != nil {
		c.logger.Printf("controller: prepare capture failed: %v", err)
		return false
	}
	c.status.ResetFrameNumber()
	c.recording.Store(true)
	return true
}

// EndCapture is the Capturing->Connected hook.
func (c *Controller) EndCapture() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recording.Store(false)
	if c.cam != nil {
		_ = c.cam.AbortCapture()
		_ = c.cam.Disarm()
	}
	return true
}

// applyConfigurationLocked pushes the entire current configuration to the
// camera, apply_configuration, called once on successful
// connect. Caller must hold c.mu.
func (c *Controller) applyConfigurationLocked() {
	for _, field := range config.CameraOwnedFields {
		c.cam.SetProperty(field, c.cfg.FieldValue(field))
	}
}

// --- controller operations ---

// ExecuteCommand forwards command to the state machine and, on success,
// refreshes status.camera_status to the new state name.
func (c *Controller) ExecuteCommand(command string) error {
	if err := c.sm.ExecuteCommand(command); err != nil {
		return err
	}
	c.status.setCameraStatus(c.sm.CurrentName())
	return nil
}

// UpdateConfiguration computes a per-field diff between diff and the
// current configuration and, for each changed field the camera can be
// asked to honour, calls Camera.SetProperty before committing it. On the
// first rejected field it stops without committing the remainder; this
// commit-as-you-go policy is pinned by this package's tests.
func (c *Controller) UpdateConfiguration(diff map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.cfg
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &next,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(diff); err != nil {
		return fmt.Errorf("controller: decode configuration diff: %w", err)
	}

	if next.CameraNumber != c.cfg.CameraNumber {
		v := next.CameraNumber
		if err := commitField(c, "camera_number", v, func() { c.cfg.CameraNumber = v }); err != nil {
			return err
		}
	}
	if next.ImageTimeout != c.cfg.ImageTimeout {
		c.cfg.ImageTimeout = next.ImageTimeout
	}
	if next.NumFrames != c.cfg.NumFrames {
		c.cfg.NumFrames = next.NumFrames
	}
	if next.ExposureTime != c.cfg.ExposureTime {
		v := next.ExposureTime
		if err := commitField(c, "exposure_time", v, func() { c.cfg.ExposureTime = v }); err != nil {
			return err
		}
	}
	if next.FrameRate != c.cfg.FrameRate {
		v := next.FrameRate
		if err := commitField(c, "frame_rate", v, func() { c.cfg.FrameRate = v }); err != nil {
			return err
		}
	}
	if next.TriggerSource != c.cfg.TriggerSource {
		v := next.TriggerSource
		if err := commitField(c, "trigger_source", v, func() { c.cfg.TriggerSource = v }); err != nil {
			return err
		}
	}
	if next.TriggerActive != c.cfg.TriggerActive {
		v := next.TriggerActive
		if err := commitField(c, "trigger_active", v, func() { c.cfg.TriggerActive = v }); err != nil {
			return err
		}
	}
	if next.TriggerMode != c.cfg.TriggerMode {
		v := next.TriggerMode
		if err := commitField(c, "trigger_mode", v, func() { c.cfg.TriggerMode = v }); err != nil {
			return err
		}
	}
	if next.TriggerPolarity != c.cfg.TriggerPolarity {
		v := next.TriggerPolarity
		if err := commitField(c, "trigger_polarity", v, func() { c.cfg.TriggerPolarity = v }); err != nil {
			return err
		}
	}
	if next.TriggerConnector != c.cfg.TriggerConnector {
		v := next.TriggerConnector
		if err := commitField(c, "trigger_connector", v, func() { c.cfg.TriggerConnector = v }); err != nil {
			return err
		}
	}
	if next.SimulatedCamera != c.cfg.SimulatedCamera {
		c.cfg.SimulatedCamera = next.SimulatedCamera
	}
	return nil
}

// commitField pushes a single camera-owned field to the camera (if one is
// attached) and applies it locally only on success.
func commitField(c *Controller, name string, value interface{}, apply func()) error {
	if c.cam != nil {
		if !c.cam.SetProperty(name, value) {
			return camerror.PropertyRejected{Property: name, Value: value}
		}
	}
	apply()
	return nil
}

// Configure applies a configuration diff first, then a command: the reply
// is populated with an ack (the zero value from msg.Reply()) unless
// either step fails, in which case the reply becomes a nack carrying the
// failure reason. If the configuration diff is rejected, the command (if
// any) is not attempted, so a failure partway through does not continue
// on to mutate state-machine state from a half-applied configuration.
func (c *Controller) Configure(msg ipc.Message, reply *ipc.Message) {
	if cameraParams, ok := msg.CameraParams(); ok {
		if err := c.UpdateConfiguration(cameraParams); err != nil {
			reply.SetNack(fmt.Sprintf("camera configuration update failed: %v", err))
			return
		}
	}
	if command, ok := msg.Command(); ok {
		if err := c.ExecuteCommand(command); err != nil {
			reply.SetNack(fmt.Sprintf("camera %s command failed: %v", command, err))
		}
	}
}

// RequestConfiguration serialises the current configuration into reply's
// params under "camera".
func (c *Controller) RequestConfiguration(reply *ipc.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := map[string]interface{}{}
	_ = mapstructure.Decode(c.cfg, &m)
	reply.Params["camera"] = m
}

// GetStatus serialises the current status into reply's params under "status".
func (c *Controller) GetStatus(reply *ipc.Message) {
	reply.Params["status"] = map[string]interface{}{
		"camera_status":      c.status.CameraStatus(),
		"frame_number":       c.status.FrameNumber(),
		"dropped_frames":     c.status.DroppedFrames(),
		"last_frame_latency": c.status.LastFrameLatency().String(),
	}
}

// GetFrame forwards to the camera's CaptureFrame.
func (c *Controller) GetFrame() ([]byte, bool) {
	c.mu.Lock()
	cam := c.cam
	c.mu.Unlock()
	if cam == nil {
		return nil, false
	}
	return cam.CaptureFrame()
}

// GetRecording reports whether the controller is currently in the
// Capturing state.
func (c *Controller) GetRecording() bool {
	return c.recording.Load()
}

// Config returns a copy of the current configuration.
func (c *Controller) Config() config.Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Camera returns the controller's camera instance, or nil before the first
// connect command.
func (c *Controller) Camera() camera.Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cam
}

// Status returns the controller's status record for direct read access by
// the capture loop ("capture loop only reads them" asymmetry).
func (c *Controller) Status() *Status {
	return &c.status
}

// StateName returns the camera state machine's current state name.
func (c *Controller) StateName() string {
	return c.sm.CurrentName()
}
