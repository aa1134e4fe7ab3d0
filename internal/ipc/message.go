// Package ipc defines the request/reply message shape the control plane
// speaks: msg_id, msg_type, msg_val, params. Wire bytes are JSON
// (a natural self-describing-record encoding over a zmq4.REP socket); the
// JSON document is first decoded into a generic map so that unrecognised
// top-level keys and all of params survive untouched, then
// github.com/mitchellh/mapstructure promotes the recognised top-level
// fields onto a typed Message, the same "decode into a map, then
// selectively bind" shape configuration updates use.
package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// MsgType is the top-level message kind.
type MsgType string

const (
	MsgTypeCmd  MsgType = "cmd"
	MsgTypeAck  MsgType = "ack"
	MsgTypeNack MsgType = "nack"
)

// MsgVal is the command request being made, for MsgTypeCmd messages, or
// being acknowledged, for replies.
type MsgVal string

const (
	MsgValConfigure            MsgVal = "configure"
	MsgValRequestConfiguration MsgVal = "request_configuration"
	MsgValStatus               MsgVal = "status"
)

// CameraCommand names, under params.command
const (
	CommandConnect     = "connect"
	CommandDisconnect  = "disconnect"
	CommandCapture     = "capture"
	CommandEndCapture  = "end_capture"
)

// Message is one request or reply on the control channel.
type Message struct {
	MsgID  int                    `mapstructure:"msg_id" json:"msg_id"`
	Type   MsgType                `mapstructure:"msg_type" json:"msg_type"`
	Val    MsgVal                 `mapstructure:"msg_val" json:"msg_val"`
	Params map[string]interface{} `mapstructure:"params" json:"params"`
}

// Decode parses raw wire bytes into a Message.
func Decode(raw []byte) (Message, error) {
	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return Message{}, fmt.Errorf("ipc: invalid json: %w", err)
	}
	var msg Message
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &msg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Message{}, err
	}
	if err := dec.Decode(generic); err != nil {
		return Message{}, fmt.Errorf("ipc: %w", err)
	}
	if msg.Params == nil {
		msg.Params = map[string]interface{}{}
	}
	return msg, nil
}

// Encode serialises a Message to wire bytes.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Reply builds an ACK reply pre-populated with m's msg_id and msg_val,
// and type ACK.
func (m Message) Reply() Message {
	return Message{
		MsgID:  m.MsgID,
		Type:   MsgTypeAck,
		Val:    m.Val,
		Params: map[string]interface{}{},
	}
}

// SetNack turns a reply into a NACK carrying the given error reason.
func (m *Message) SetNack(reason string) {
	m.Type = MsgTypeNack
	if m.Params == nil {
		m.Params = map[string]interface{}{}
	}
	m.Params["error"] = reason
}

// CameraParams returns the params.camera sub-document, if present.
func (m Message) CameraParams() (map[string]interface{}, bool) {
	raw, ok := m.Params["camera"]
	if !ok {
		return nil, false
	}
	asMap, ok := raw.(map[string]interface{})
	return asMap, ok
}

// Command returns params.command, if present.
func (m Message) Command() (string, bool) {
	raw, ok := m.Params["command"]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}
