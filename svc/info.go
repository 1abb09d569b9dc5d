package svc

import (
	"context"
	"encoding/binary"

	"github.com/cooolgamer/CustomLuma3DS/kernel"
	hclog "github.com/hashicorp/go-hclog"
)

// Extended query types. Everything below ExtendedInfoBase keeps the
// factory contract and falls through to the official handler; the
// extension only defines behavior for encodings the factory ABI
// reserves.
const (
	ExtendedInfoBase uint32 = 0x10000

	// GetProcessInfo
	ProcessInfoName    uint32 = 0x10000
	ProcessInfoTitleID uint32 = 0x10001

	// GetHandleInfo
	HandleInfoRefCount uint32 = 0x10000

	// GetThreadInfo
	ThreadInfoSchedulingMask uint32 = 0x10000

	// GetSystemInfo
	SystemInfoHostMemTotal uint32 = 0x10000
	SystemInfoHostMemUsed  uint32 = 0x10001
	SystemInfoKernelVer    uint32 = 0x10002
)

func put64(args *Args, v uint64) {
	args.R1 = uint32(v)
	args.R2 = uint32(v >> 32)
}

// nameWord packs the first 8 bytes of a process name the way the
// console returns it through a 64-bit out parameter.
func nameWord(name string) uint64 {
	var buf [8]byte
	copy(buf[:], name)
	return binary.LittleEndian.Uint64(buf[:])
}

// GetProcessInfo: R0 = process handle, R1 = type; 64-bit result in
// R1/R2.
func (h *HookSet) GetProcessInfo(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	infoType := args.R1

	if infoType < ExtendedInfoBase {
		return h.Official.Handler(GetProcessInfoID)(ctx, l, t, args)
	}

	process := t.Process.Handles().ToProcess(kernel.Handle(args.R0), t.Process)
	if process == nil {
		return kernel.ResultInvalidHandle
	}

	defer process.Release()

	switch infoType {
	case ProcessInfoName:
		put64(args, nameWord(process.Name))
	case ProcessInfoTitleID:
		put64(args, process.TitleID)
	default:
		return kernel.ResultNotImplemented
	}

	return kernel.ResultSuccess
}

// GetHandleInfo: R0 = handle, R1 = type.
func (h *HookSet) GetHandleInfo(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	infoType := args.R1

	if infoType < ExtendedInfoBase {
		return h.Official.Handler(GetHandleInfoID)(ctx, l, t, args)
	}

	switch infoType {
	case HandleInfoRefCount:
		process := t.Process.Handles().ToProcess(kernel.Handle(args.R0), t.Process)
		if process == nil {
			return kernel.ResultInvalidHandle
		}

		// The taken reference is part of the observed count; report
		// the value without it.
		refs := process.RefCount() - 1
		process.Release()

		put64(args, uint64(refs))
		return kernel.ResultSuccess
	}

	return kernel.ResultNotImplemented
}

// GetThreadInfo: R0 = thread handle, R1 = type.
func (h *HookSet) GetThreadInfo(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	infoType := args.R1

	if infoType < ExtendedInfoBase {
		return h.Official.Handler(GetThreadInfoID)(ctx, l, t, args)
	}

	thread := t.Process.Handles().ToThread(kernel.Handle(args.R0))
	if thread == nil {
		return kernel.ResultInvalidHandle
	}

	switch infoType {
	case ThreadInfoSchedulingMask:
		put64(args, uint64(thread.SchedulingMask()))
		return kernel.ResultSuccess
	}

	return kernel.ResultNotImplemented
}

// GetSystemInfo: R0 = type, R1 = param.
func (h *HookSet) GetSystemInfo(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	infoType := args.R0

	if infoType < ExtendedInfoBase {
		return h.Official.Handler(GetSystemInfoID)(ctx, l, t, args)
	}

	k := t.Process.Kernel

	switch infoType {
	case SystemInfoHostMemTotal:
		total, err := h.Host.MemoryTotal()
		if err != nil {
			l.Warn("host memory query failed", "error", err)
			return kernel.ResultNotFound
		}

		put64(args, total)

	case SystemInfoHostMemUsed:
		used, err := h.Host.MemoryUsed()
		if err != nil {
			l.Warn("host memory query failed", "error", err)
			return kernel.ResultNotFound
		}

		put64(args, used)

	case SystemInfoKernelVer:
		put64(args, uint64(k.Version.Word()))

	default:
		return kernel.ResultNotImplemented
	}

	return kernel.ResultSuccess
}

// GetCFWInfo is deprecated but kept for old clients: version word in
// R1, enhanced-model flag in R2.
func (h *HookSet) GetCFWInfo(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	l.Warn("deprecated GetCFWInfo called", "pid", t.Process.Pid)

	k := t.Process.Kernel

	args.R1 = k.Version.Word()
	args.R2 = 0
	if k.NewModel {
		args.R2 = 1
	}

	return kernel.ResultSuccess
}
