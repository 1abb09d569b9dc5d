package errf

import (
	"github.com/cooolgamer/CustomLuma3DS/ipc"
	"github.com/cooolgamer/CustomLuma3DS/kernel"
)

// Client is the throwing side of the err:f protocol.
type Client struct {
	session *ipc.ClientSession
}

// Connect binds a new client session to the err:f port.
func Connect(ports *ipc.Registry) (*Client, kernel.Result) {
	s, res := ports.Connect(PortName)
	if res.Failed() {
		return nil, res
	}

	return &Client{session: s}, kernel.ResultSuccess
}

// Throw submits an error record and blocks until the server has
// handled it.
func (c *Client) Throw(info *FatalErrInfo) kernel.Result {
	var cmd ipc.CmdBuf

	cmd[0] = ipc.MakeHeader(CmdThrow, InfoWords, 0)
	if err := info.encode(&cmd); err != nil {
		return kernel.ResultInvalidAddress
	}

	if res := c.session.SendSyncRequest(&cmd, nil); res.Failed() {
		return res
	}

	return kernel.Result(cmd[1])
}

// ThrowFailure is the convenience form used from assertion sites: a
// result code plus a short reason.
func (c *Client) ThrowFailure(code uint32, reason string) kernel.Result {
	info := FatalErrInfo{
		Type:    ErrTypeFailure,
		ResCode: code,
	}
	info.SetFailureMessage(reason)

	return c.Throw(&info)
}

// SetUserString installs a custom banner line on the server.
func (c *Client) SetUserString(s string) kernel.Result {
	raw := []byte(s)
	if len(raw) > UserStringMax {
		raw = raw[:UserStringMax]
	}

	var cmd ipc.CmdBuf
	cmd[0] = ipc.MakeHeader(CmdSetUserString, 1, 2)
	cmd[1] = uint32(len(raw))
	cmd[2] = ipc.StaticBufferDesc(uint32(len(raw)), 0)

	if res := c.session.SendSyncRequest(&cmd, raw); res.Failed() {
		return res
	}

	return kernel.Result(cmd[1])
}

func (c *Client) Close() {
	c.session.Close()
}
