// Package camerror names the camera/controller error taxonomy. Names are
// abstract rather than tied to a specific source or vendor, as plain
// structs implementing error rather than sentinel values.
package camerror

import "fmt"

// CameraNotReady is returned when an operation is attempted while the
// camera is not in an armed state.
type CameraNotReady struct {
	Op string
}

func (e CameraNotReady) Error() string {
	return fmt.Sprintf("camera not ready for operation %q", e.Op)
}

// PropertyRejected is returned when Camera.SetProperty refuses a value.
type PropertyRejected struct {
	Property string
	Value    interface{}
}

func (e PropertyRejected) Error() string {
	return fmt.Sprintf("camera rejected property %q = %v", e.Property, e.Value)
}

// IllegalTransition is returned when a state-machine event is not legal in
// the current state.
type IllegalTransition struct {
	Event string
	State string
}

func (e IllegalTransition) Error() string {
	return fmt.Sprintf("%s is not valid in %s state", e.Event, e.State)
}

// CommandRejected is returned when a legal state transition's controller
// hook (connect/disconnect/start_capture/end_capture) returns false; the
// event is discarded and the state does not change.
type CommandRejected struct {
	Command string
}

func (e CommandRejected) Error() string {
	return fmt.Sprintf("%s command rejected by controller", e.Command)
}

// UnknownCommand is returned when a command string is not in the
// command/event bimap.
type UnknownCommand struct {
	Command string
}

func (e UnknownCommand) Error() string {
	return fmt.Sprintf("unknown camera state transition command: %s", e.Command)
}

// MessageDecodeFailure is returned when a control-channel request could
// not be parsed.
type MessageDecodeFailure struct {
	Reason string
}

func (e MessageDecodeFailure) Error() string {
	return e.Reason
}

// RingSizingViolation is returned when a downstream ring enqueue fails.
// Downstream rings are sized so this enqueue cannot fail; if it does, the
// sizing guarantee has been violated and the capture core must abort
// rather than silently drop the frame.
type RingSizingViolation struct {
	SocketID    int
	Downstream  int
	FrameNumber uint64
}

func (e RingSizingViolation) Error() string {
	return fmt.Sprintf("capture[%d]: downstream ring %d full at frame %d, sizing guarantee violated", e.SocketID, e.Downstream, e.FrameNumber)
}
