// Package controlplane implements the control core: a request/reply
// endpoint that decodes configure/status requests and dispatches them
// onto a controller.
package controlplane

import (
	"context"
	"errors"
	"log"
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/stfc-aeg/odin-orca-quest/internal/controller"
	"github.com/stfc-aeg/odin-orca-quest/internal/ipc"
)

// DefaultEndpoint is the control channel's default bind address.
const DefaultEndpoint = "tcp://0.0.0.0:9001"

// pollTimeout bounds each receive attempt so Run can observe ctx
// cancellation between requests instead of blocking forever in Recv.
const pollTimeout = 250 * time.Millisecond

// Core is one control-plane endpoint, bound to a single controller.
// Multiple sockets each get their own controller; one Core per socket is
// how a process-level main wires that up.
type Core struct {
	Controller *controller.Controller
	Endpoint   string
	Logger     *log.Logger
}

// New returns a control-plane core for ctrl, bound at endpoint.
func New(ctrl *controller.Controller, endpoint string, logger *log.Logger) *Core {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Core{Controller: ctrl, Endpoint: endpoint, Logger: logger}
}

// Run binds a REP socket at c.Endpoint and serves requests until ctx is
// cancelled. Each iteration polls with a bounded timeout rather than
// blocking in Recv so cancellation is observed promptly instead of
// stalling until the next request arrives.
func (c *Core) Run(ctx context.Context) error {
	sock, err := zmq.NewSocket(zmq.REP)
	if err != nil {
		return err
	}
	defer sock.Close()

	if err := sock.Bind(c.Endpoint); err != nil {
		return err
	}
	if err := sock.SetRcvtimeo(pollTimeout); err != nil {
		c.Logger.Printf("controlplane: SetRcvtimeo failed, falling back to blocking recv: %v", err)
	}

	poller := zmq.NewPoller()
	poller.Add(sock, zmq.POLLIN)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		polled, err := poller.Poll(pollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.Logger.Printf("controlplane: poll error: %v", err)
			continue
		}
		if len(polled) == 0 {
			continue
		}

		raw, err := sock.RecvBytes(0)
		if err != nil {
			c.Logger.Printf("controlplane: recv error: %v", err)
			continue
		}

		reply := c.handle(raw)
		out, err := reply.Encode()
		if err != nil {
			c.Logger.Printf("controlplane: encode reply failed: %v", err)
			continue
		}
		if _, err := sock.SendBytes(out, 0); err != nil {
			c.Logger.Printf("controlplane: send error: %v", err)
		}
	}
}

// handle decodes one request and dispatches it, returning the reply to send.
func (c *Core) handle(raw []byte) ipc.Message {
	msg, err := ipc.Decode(raw)
	if err != nil {
		nack := ipc.Message{Type: ipc.MsgTypeNack, Params: map[string]interface{}{}}
		nack.SetNack(err.Error())
		return nack
	}

	reply := msg.Reply()
	if msg.Type != ipc.MsgTypeCmd {
		reply.SetNack("illegal command request type")
		return reply
	}
	switch msg.Val {
	case ipc.MsgValConfigure:
		c.Controller.Configure(msg, &reply)
	case ipc.MsgValRequestConfiguration:
		c.Controller.RequestConfiguration(&reply)
	case ipc.MsgValStatus:
		c.Controller.GetStatus(&reply)
	default:
		reply.SetNack("unrecognised msg_val: " + string(msg.Val))
	}
	return reply
}
