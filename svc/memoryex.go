package svc

import (
	"context"

	"github.com/cooolgamer/CustomLuma3DS/kernel"
	hclog "github.com/hashicorp/go-hclog"
)

// MapProcessMemoryEx: R0 = target process handle, R1 = destination
// address, R2 = size in bytes. Unlike the factory call the size is a
// full 32-bit byte count.
func (h *HookSet) MapProcessMemoryEx(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	var (
		handle = kernel.Handle(args.R0)
		addr   = args.R1
		size   = args.R2
	)

	process := t.Process.Handles().ToProcess(handle, t.Process)
	if process == nil {
		return kernel.ResultInvalidHandle
	}

	res := process.HwInfo().MapProcessMemory(addr, size>>12)
	if !res.Failed() {
		process.NotifyLayoutChange()
	}

	process.Release()

	k := t.Process.Kernel
	k.Cache().InvalidateInstructionCache()
	k.Cache().FlushDataCache()

	return res
}

// UnmapProcessMemoryEx unmaps a byte-sized, page-aligned region of a
// target process past the legacy call's 64 MB reach.
//
// Kernels older than minor 37 lack the primitive this rides on; those
// delegate wholesale to the legacy call, which the gate guarantees is
// equivalent for sizes it can express.
func (h *HookSet) UnmapProcessMemoryEx(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	k := t.Process.Kernel

	if k.Version.Minor < UnmapExMinorThreshold {
		return h.Official.Handler(UnmapProcessMemoryID)(ctx, l, t, args)
	}

	var (
		handle = kernel.Handle(args.R0)
		addr   = args.R1
		size   = args.R2
	)

	process := t.Process.Handles().ToProcess(handle, t.Process)
	if process == nil {
		return kernel.ResultInvalidHandle
	}

	res := process.HwInfo().UnmapProcessMemory(addr, size>>12)
	if !res.Failed() {
		process.NotifyLayoutChange()
	}

	process.Release()

	// Stale translations or instructions must not be observable on
	// any core once this call returns.
	k.Cache().InvalidateInstructionCache()
	k.Cache().FlushDataCache()

	return res
}
