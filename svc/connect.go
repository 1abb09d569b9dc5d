package svc

import (
	"context"

	"github.com/cooolgamer/CustomLuma3DS/ipc"
	"github.com/cooolgamer/CustomLuma3DS/kernel"
	hclog "github.com/hashicorp/go-hclog"
)

// ConnectToPort: port name in Str; client session handle in R1. The
// hook serves extension ports from the same namespace as factory
// ones, so callers cannot tell them apart.
func (h *HookSet) ConnectToPort(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	session, res := h.Ports.Connect(args.Str)
	if res.Failed() {
		l.Trace("connect-to-port failed", "port", args.Str, "result", res)
		return res
	}

	args.R1 = uint32(t.Process.Handles().Add(session))

	return kernel.ResultSuccess
}

// SendSyncRequest: R0 = session handle; the command buffer travels in
// Cmd. Handles that are not sessions keep the factory behavior.
func (h *HookSet) SendSyncRequest(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	obj, ok := t.Process.Handles().Get(kernel.Handle(args.R0))
	if !ok {
		return kernel.ResultInvalidHandle
	}

	session, ok := obj.(*ipc.ClientSession)
	if !ok {
		return h.Official.Handler(SendSyncRequestID)(ctx, l, t, args)
	}

	if args.Cmd == nil {
		return kernel.ResultInvalidAddress
	}

	return session.SendSyncRequest(args.Cmd, args.Payload)
}
