package svc

import (
	"context"

	"github.com/cooolgamer/CustomLuma3DS/kernel"
	hclog "github.com/hashicorp/go-hclog"
)

// ExitProcess wraps process termination. When the process asked for
// it, the plugin subsystem is told the process is about to go away
// and every thread of the process still held by the diagnostic
// subsystem is released, so nothing stays parked after its owner is
// torn down. The official exit then runs unchanged.
func (h *HookSet) ExitProcess(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	p := t.Process
	k := p.Kernel

	if p.Flags.Test(kernel.SignalOnExit) {
		if k.Plugin().Status() == kernel.PluginRunning {
			k.Plugin().SignalExit()
		}

		k.ReleaseHeldThreads(p)
	}

	return h.Official.Handler(ExitProcessID)(ctx, l, t, args)
}
