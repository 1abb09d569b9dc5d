package svc

import (
	"context"

	"github.com/cooolgamer/CustomLuma3DS/kernel"
	hclog "github.com/hashicorp/go-hclog"
)

// ControlService operations.
const (
	ServiceOpStealClientSession uint32 = 0
	ServiceOpGetName            uint32 = 1
)

// ControlService: service/port control extensions. Op 0 opens a
// client session to a named port on behalf of the caller; op 1
// recovers the name behind a port handle.
func (h *HookSet) ControlService(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	switch args.R0 {
	case ServiceOpStealClientSession:
		session, res := h.Ports.Connect(args.Str)
		if res.Failed() {
			return res
		}

		args.R1 = uint32(t.Process.Handles().Add(session))
		return kernel.ResultSuccess

	case ServiceOpGetName:
		obj, ok := t.Process.Handles().Get(kernel.Handle(args.R1))
		if !ok {
			return kernel.ResultInvalidHandle
		}

		port, ok := obj.(interface{ PortName() string })
		if !ok {
			return kernel.ResultInvalidHandle
		}

		put64(args, nameWord(port.PortName()))
		return kernel.ResultSuccess
	}

	return kernel.ResultNotImplemented
}

// CopyHandle: R1 = destination process handle, R2 = source handle,
// R3 = source process handle. New handle in R1.
func (h *HookSet) CopyHandle(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	dst := t.Process.Handles().ToProcess(kernel.Handle(args.R1), t.Process)
	if dst == nil {
		return kernel.ResultInvalidHandle
	}
	defer dst.Release()

	src := t.Process.Handles().ToProcess(kernel.Handle(args.R3), t.Process)
	if src == nil {
		return kernel.ResultInvalidHandle
	}
	defer src.Release()

	obj, ok := src.Handles().Get(kernel.Handle(args.R2))
	if !ok {
		return kernel.ResultInvalidHandle
	}

	args.R1 = uint32(dst.Handles().Add(obj))

	return kernel.ResultSuccess
}

// TranslateHandle: R0 = handle; the object's class name, packed like
// a process name, in R1/R2.
func (h *HookSet) TranslateHandle(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	handle := kernel.Handle(args.R0)

	if handle == kernel.CurrentProcess {
		put64(args, nameWord("KProcess"))
		return kernel.ResultSuccess
	}

	obj, ok := t.Process.Handles().Get(handle)
	if !ok {
		return kernel.ResultInvalidHandle
	}

	var class string
	switch obj.(type) {
	case *kernel.Process:
		class = "KProcess"
	case *kernel.Thread:
		class = "KThread"
	case *kernel.Event:
		class = "KEvent"
	default:
		class = "KAutoObject"
	}

	put64(args, nameWord(class))

	return kernel.ResultSuccess
}

// ControlProcess operations.
const (
	ProcessOpGetThreadCount  uint32 = 0
	ProcessOpGetLayoutEvent  uint32 = 2
	ProcessOpSignalOnExit    uint32 = 3
	ProcessOpScheduleThreads uint32 = 5
	ProcessOpScheduleRelease uint32 = 6
)

// ControlProcess: R0 = process handle, R1 = operation, R2 = operand.
func (h *HookSet) ControlProcess(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	process := t.Process.Handles().ToProcess(kernel.Handle(args.R0), t.Process)
	if process == nil {
		return kernel.ResultInvalidHandle
	}

	defer process.Release()

	switch args.R1 {
	case ProcessOpGetThreadCount:
		args.R2 = uint32(len(process.Threads()))
		return kernel.ResultSuccess

	case ProcessOpGetLayoutEvent:
		// Arms layout-change signaling and hands the caller the event
		// to wait on.
		process.Flags.Set(kernel.SignalOnMemLayoutChanges)
		args.R2 = uint32(t.Process.Handles().Add(process.LayoutChangeEvent()))
		return kernel.ResultSuccess

	case ProcessOpSignalOnExit:
		process.Flags.Set(kernel.SignalOnExit)
		return kernel.ResultSuccess

	case ProcessOpScheduleThreads:
		process.Kernel.HoldThreads()
		return kernel.ResultSuccess

	case ProcessOpScheduleRelease:
		process.Kernel.ReleaseHeldThreads(process)
		return kernel.ResultSuccess
	}

	return kernel.ResultNotImplemented
}
