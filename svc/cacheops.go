package svc

import (
	"context"

	"github.com/cooolgamer/CustomLuma3DS/kernel"
	hclog "github.com/hashicorp/go-hclog"
)

// fcramBase stands in for the physical window the console maps
// process memory through.
const fcramBase uint32 = 0x20000000

// ConvertVAToPA: R0 = virtual address. Physical address in R1, zero
// when unmapped.
func (h *HookSet) ConvertVAToPA(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	addr := args.R0

	if !t.Process.HwInfo().Space().IsMapped(addr) {
		args.R1 = 0
		return kernel.ResultInvalidAddress
	}

	args.R1 = fcramBase + (addr &^ 0xC0000000)

	return kernel.ResultSuccess
}

func (h *HookSet) FlushDataCacheRange(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	t.Process.Kernel.Cache().FlushDataCacheRange(args.R0, args.R1)
	return kernel.ResultSuccess
}

func (h *HookSet) FlushEntireDataCache(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	t.Process.Kernel.Cache().FlushDataCache()
	return kernel.ResultSuccess
}

func (h *HookSet) InvalidateICacheRange(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	t.Process.Kernel.Cache().InvalidateInstructionCacheRange(args.R0, args.R1)
	return kernel.ResultSuccess
}

func (h *HookSet) InvalidateEntireICache(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	t.Process.Kernel.Cache().InvalidateInstructionCache()
	return kernel.ResultSuccess
}
