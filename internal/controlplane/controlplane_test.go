package controlplane

import (
	"encoding/json"
	"testing"

	"github.com/stfc-aeg/odin-orca-quest/internal/config"
	"github.com/stfc-aeg/odin-orca-quest/internal/controller"
	"github.com/stfc-aeg/odin-orca-quest/internal/ipc"
)

func newTestCoreForHandle(t *testing.T) *Core {
	t.Helper()
	ctrl := controller.New(config.Camera{SimulatedCamera: true}, 0, 0, nil)
	return New(ctrl, "", nil)
}

func TestHandleConnectConfigureRequest(t *testing.T) {
	c := newTestCoreForHandle(t)
	req, _ := json.Marshal(map[string]interface{}{
		"msg_id":  1,
		"msg_type": "cmd",
		"msg_val":  "configure",
		"params":   map[string]interface{}{"command": "connect"},
	})
	reply := c.handle(req)
	if reply.Type != ipc.MsgTypeAck {
		t.Fatalf("reply = %+v, want ack", reply)
	}
	if reply.MsgID != 1 {
		t.Errorf("reply.MsgID = %d, want 1", reply.MsgID)
	}
}

func TestHandleInvalidJSONNacks(t *testing.T) {
	c := newTestCoreForHandle(t)
	reply := c.handle([]byte("not json"))
	if reply.Type != ipc.MsgTypeNack {
		t.Fatalf("reply.Type = %v, want nack", reply.Type)
	}
}

func TestHandleUnknownMsgValNacks(t *testing.T) {
	c := newTestCoreForHandle(t)
	req, _ := json.Marshal(map[string]interface{}{"msg_id": 2, "msg_type": "cmd", "msg_val": "bogus"})
	reply := c.handle(req)
	if reply.Type != ipc.MsgTypeNack {
		t.Fatalf("reply.Type = %v, want nack", reply.Type)
	}
}

func TestHandleNonCommandMsgTypeNacks(t *testing.T) {
	c := newTestCoreForHandle(t)
	req, _ := json.Marshal(map[string]interface{}{"msg_id": 4, "msg_type": "ack", "msg_val": "status"})
	reply := c.handle(req)
	if reply.Type != ipc.MsgTypeNack {
		t.Fatalf("reply.Type = %v, want nack", reply.Type)
	}
	if reason, _ := reply.Params["error"].(string); reason != "illegal command request type" {
		t.Fatalf("reply error = %q, want %q", reason, "illegal command request type")
	}
}

func TestHandleStatusRequest(t *testing.T) {
	c := newTestCoreForHandle(t)
	req, _ := json.Marshal(map[string]interface{}{"msg_id": 3, "msg_type": "cmd", "msg_val": "status"})
	reply := c.handle(req)
	if reply.Type != ipc.MsgTypeAck {
		t.Fatalf("reply.Type = %v, want ack", reply.Type)
	}
	if _, ok := reply.Params["status"]; !ok {
		t.Fatal("status reply should carry a status param")
	}
}
