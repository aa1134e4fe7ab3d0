package controller

import (
	"errors"
	"testing"

	"github.com/stfc-aeg/odin-orca-quest/internal/camerror"
	"github.com/stfc-aeg/odin-orca-quest/internal/config"
	"github.com/stfc-aeg/odin-orca-quest/internal/ipc"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	cfg := config.Camera{SimulatedCamera: true, ExposureTime: 0.01, FrameRate: 60, ImageTimeout: 1}
	return New(cfg, 0, 0, nil)
}

func TestConnectCaptureEndCaptureDisconnectLifecycle(t *testing.T) {
	c := newTestController(t)

	if err := c.ExecuteCommand(ipc.CommandConnect); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if c.StateName() != "connected" {
		t.Fatalf("state = %q, want connected", c.StateName())
	}

	if err := c.ExecuteCommand(ipc.CommandCapture); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if !c.GetRecording() {
		t.Fatal("GetRecording() should be true after a successful capture command")
	}

	if err := c.ExecuteCommand(ipc.CommandEndCapture); err != nil {
		t.Fatalf("end_capture: %v", err)
	}
	if c.GetRecording() {
		t.Fatal("GetRecording() should be false after end_capture")
	}

	if err := c.ExecuteCommand(ipc.CommandDisconnect); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if c.StateName() != "disconnected" {
		t.Fatalf("state = %q, want disconnected", c.StateName())
	}
}

func TestStartCaptureResetsFrameNumber(t *testing.T) {
	c := newTestController(t)
	_ = c.ExecuteCommand(ipc.CommandConnect)
	c.status.frameNumber.Store(42)

	if err := c.ExecuteCommand(ipc.CommandCapture); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if got := c.Status().FrameNumber(); got != 0 {
		t.Fatalf("FrameNumber after capture start = %d, want 0", got)
	}
}

func TestUpdateConfigurationCommitsInDeclarationOrderAndStopsOnFirstRejection(t *testing.T) {
	c := newTestController(t)
	_ = c.ExecuteCommand(ipc.CommandConnect)

	// exposure_time precedes frame_rate in CameraOwnedFields; an invalid
	// exposure_time must stop the diff before frame_rate is ever committed.
	err := c.UpdateConfiguration(map[string]interface{}{
		"exposure_time": -1.0,
		"frame_rate":    30.0,
	})
	if err == nil {
		t.Fatal("UpdateConfiguration with a rejected exposure_time should fail")
	}
	var rejected camerror.PropertyRejected
	if !errors.As(err, &rejected) {
		t.Fatalf("err = %v, want a camerror.PropertyRejected", err)
	}
	if rejected.Property != "exposure_time" {
		t.Fatalf("PropertyRejected.Property = %q, want exposure_time", rejected.Property)
	}

	if got := c.Config().FrameRate; got != 60 {
		t.Fatalf("FrameRate = %v, want unchanged 60 (commit should have stopped before reaching it)", got)
	}
	if got := c.Config().ExposureTime; got != 0.01 {
		t.Fatalf("ExposureTime = %v, want unchanged 0.01", got)
	}
}

func TestUpdateConfigurationCommitsAcceptedFields(t *testing.T) {
	c := newTestController(t)
	_ = c.ExecuteCommand(ipc.CommandConnect)

	if err := c.UpdateConfiguration(map[string]interface{}{
		"exposure_time": 0.05,
		"num_frames":    100,
	}); err != nil {
		t.Fatalf("UpdateConfiguration: %v", err)
	}
	if got := c.Config().ExposureTime; got != 0.05 {
		t.Errorf("ExposureTime = %v, want 0.05", got)
	}
	if got := c.Config().NumFrames; got != 100 {
		t.Errorf("NumFrames = %v, want 100", got)
	}
}

func TestUpdateConfigurationBeforeConnectCommitsWithoutTouchingCamera(t *testing.T) {
	c := newTestController(t)
	if err := c.UpdateConfiguration(map[string]interface{}{"camera_number": 3}); err != nil {
		t.Fatalf("UpdateConfiguration before connect: %v", err)
	}
	if got := c.Config().CameraNumber; got != 3 {
		t.Fatalf("CameraNumber = %d, want 3", got)
	}
}

func TestConfigureAppliesCameraThenCommand(t *testing.T) {
	c := newTestController(t)
	msg := ipc.Message{Params: map[string]interface{}{
		"camera":  map[string]interface{}{"exposure_time": 0.05},
		"command": "connect",
	}}
	reply := msg.Reply()
	c.Configure(msg, &reply)
	if reply.Type != ipc.MsgTypeAck {
		t.Fatalf("reply = %+v, want ack", reply)
	}
	if got := c.Config().ExposureTime; got != 0.05 {
		t.Fatalf("ExposureTime = %v, want 0.05 from the camera diff", got)
	}
	if c.StateName() != "connected" {
		t.Fatalf("state = %q, want connected", c.StateName())
	}
}

func TestConfigureNacksOnRejectedCameraDiffAndSkipsCommand(t *testing.T) {
	c := newTestController(t)
	_ = c.ExecuteCommand(ipc.CommandConnect)

	msg := ipc.Message{Params: map[string]interface{}{
		"camera":  map[string]interface{}{"exposure_time": -5.0},
		"command": "capture",
	}}
	reply := msg.Reply()
	c.Configure(msg, &reply)
	if reply.Type != ipc.MsgTypeNack {
		t.Fatalf("reply.Type = %v, want nack", reply.Type)
	}
	if c.GetRecording() {
		t.Fatal("command should not have been attempted after the camera diff was rejected")
	}
}
