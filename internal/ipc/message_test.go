package ipc

import "testing"

func TestDecodeRoundTrip(t *testing.T) {
	raw := []byte(`{"msg_id":5,"msg_type":"cmd","msg_val":"configure","params":{"command":"connect","camera":{"camera_number":1}}}`)
	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.MsgID != 5 || msg.Type != MsgTypeCmd || msg.Val != MsgValConfigure {
		t.Fatalf("Decode produced %+v", msg)
	}
	cmd, ok := msg.Command()
	if !ok || cmd != "connect" {
		t.Fatalf("Command() = %q, %v, want connect, true", cmd, ok)
	}
	camParams, ok := msg.CameraParams()
	if !ok {
		t.Fatal("CameraParams() missing")
	}
	if camParams["camera_number"] != float64(1) {
		t.Errorf("camera_number = %v, want 1", camParams["camera_number"])
	}
}

func TestDecodeInvalidJSON(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Fatal("Decode of invalid JSON should fail")
	}
}

func TestReplyPrePopulatesIDAndVal(t *testing.T) {
	msg := Message{MsgID: 9, Type: MsgTypeCmd, Val: MsgValStatus}
	reply := msg.Reply()
	if reply.MsgID != 9 || reply.Val != MsgValStatus || reply.Type != MsgTypeAck {
		t.Fatalf("Reply() = %+v", reply)
	}
}

func TestSetNack(t *testing.T) {
	reply := Message{MsgID: 1, Type: MsgTypeAck, Val: MsgValStatus, Params: map[string]interface{}{}}
	reply.SetNack("camera rejected property")
	if reply.Type != MsgTypeNack {
		t.Fatalf("Type = %v, want nack", reply.Type)
	}
	if reply.Params["error"] != "camera rejected property" {
		t.Errorf("Params[error] = %v", reply.Params["error"])
	}
}

func TestCameraParamsAbsent(t *testing.T) {
	msg := Message{Params: map[string]interface{}{}}
	if _, ok := msg.CameraParams(); ok {
		t.Fatal("CameraParams() should report false when params.camera is absent")
	}
	if _, ok := msg.Command(); ok {
		t.Fatal("Command() should report false when params.command is absent")
	}
}
