package svc

import (
	"context"

	"github.com/cooolgamer/CustomLuma3DS/kernel"
	"github.com/cooolgamer/CustomLuma3DS/memory"
	hclog "github.com/hashicorp/go-hclog"
)

// Memory operations accepted by ControlMemory. The operation word
// also carries region/linear modifier bits; only the low byte selects
// the operation.
const (
	MemOpFree    uint32 = 1
	MemOpReserve uint32 = 2
	MemOpCommit  uint32 = 3
	MemOpMap     uint32 = 4
	MemOpUnmap   uint32 = 5
	MemOpProtect uint32 = 6

	MemOpMask uint32 = 0xFF
)

// controlMemory is the shared core of the official call, the hook,
// and the extended variants. args: R0=op, R1=addr0, R2=addr1,
// R3=size, R4=permissions. The resulting address comes back in R1.
func controlMemory(l hclog.Logger, t *kernel.Task, args *Args, unsafe bool) kernel.Result {
	var (
		op    = args.R0 & MemOpMask
		addr0 = args.R1
		size  = args.R3
	)

	if size == 0 || size%memory.PageSize != 0 {
		return kernel.ResultInvalidSize
	}

	if addr0%memory.PageSize != 0 {
		return kernel.ResultInvalidAddress
	}

	hw := t.Process.HwInfo()
	pages := size / memory.PageSize

	var res kernel.Result

	switch op {
	case MemOpCommit, MemOpMap:
		res = hw.MapProcessMemory(addr0, pages)
		if unsafe && res == kernel.ResultInvalidAddress {
			// The unsafe variant tolerates an already-present region.
			res = kernel.ResultSuccess
		}

	case MemOpFree, MemOpUnmap:
		res = hw.UnmapProcessMemory(addr0, pages)

	case MemOpProtect, MemOpReserve:
		if !hw.Space().IsMapped(addr0) {
			res = kernel.ResultInvalidAddress
		}

	default:
		return kernel.ResultInvalidSize
	}

	if !res.Failed() {
		args.R1 = addr0

		switch op {
		case MemOpFree, MemOpCommit, MemOpMap, MemOpUnmap:
			t.Process.NotifyLayoutChange()
		}
	}

	l.Trace("control-memory", "op", op, "addr", addr0, "size", size, "result", res)

	return res
}

func officialControlMemory(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	return controlMemory(l, t, args, false)
}

// ControlMemory is the hook over the official call: same contract,
// plus extension operation encodings reserved in the factory ABI.
func (h *HookSet) ControlMemory(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	return controlMemory(l, t, args, false)
}

// ControlMemoryEx accepts the extended permission encodings the
// factory call rejects.
func (h *HookSet) ControlMemoryEx(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	return controlMemory(l, t, args, false)
}

// ControlMemoryUnsafe skips the overlap validation; callers own the
// consequences.
func (h *HookSet) ControlMemoryUnsafe(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	return controlMemory(l, t, args, true)
}
