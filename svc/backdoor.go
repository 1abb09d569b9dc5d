package svc

import (
	"context"

	"github.com/cooolgamer/CustomLuma3DS/kernel"
	"github.com/davecgh/go-spew/spew"
	hclog "github.com/hashicorp/go-hclog"
)

// CustomBackdoor operations.
const (
	BackdoorCall      uint32 = 0
	BackdoorDumpState uint32 = 1
	BackdoorSetDiag   uint32 = 2
	BackdoorGetDiag   uint32 = 3
)

// Backdoor runs a caller-supplied function at the privilege of the
// kernel. The factory call only admits privileged callers; the hook
// keeps that contract.
func (h *HookSet) Backdoor(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	if args.Fn == nil {
		return kernel.ResultInvalidAddress
	}

	return args.Fn()
}

// CustomBackdoor is the extension entry point reachable from any
// process: a privileged call plus a small set of diagnostic
// operations.
func (h *HookSet) CustomBackdoor(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	k := t.Process.Kernel

	switch args.R0 {
	case BackdoorCall:
		if args.Fn == nil {
			return kernel.ResultInvalidAddress
		}

		return args.Fn()

	case BackdoorDumpState:
		if l.IsTrace() {
			l.Trace("kernel state dump", "dump", spew.Sdump(k.Version, k.DiagnosticState(), k.NewModel))
		}

		return kernel.ResultSuccess

	case BackdoorSetDiag:
		k.SetDiagnosticState(args.R1)
		return kernel.ResultSuccess

	case BackdoorGetDiag:
		args.R1 = k.DiagnosticState()
		return kernel.ResultSuccess
	}

	return kernel.ResultNotImplemented
}

// KernelSetState hook: factory state types pass through; the
// extension types drive the diagnostic subsystem.
const (
	KernelStateDiagHold    uint32 = 0x10000
	KernelStateDiagRelease uint32 = 0x10001
)

func (h *HookSet) KernelSetState(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	stateType := args.R0

	if stateType < ExtendedInfoBase {
		return h.Official.Handler(KernelSetStateID)(ctx, l, t, args)
	}

	k := t.Process.Kernel

	switch stateType {
	case KernelStateDiagHold:
		k.SetDiagnosticState(args.R1)
		k.HoldThreads()

	case KernelStateDiagRelease:
		k.SetDiagnosticState(0)
		k.ReleaseAllThreads()

	default:
		return kernel.ResultNotImplemented
	}

	return kernel.ResultSuccess
}

// SetGpuProt and SetWifiEnabled are simple state toggles the factory
// kernel reserves to privileged processes.
func (h *HookSet) SetGpuProt(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	t.Process.Kernel.SetGpuProt(args.R0)
	return kernel.ResultSuccess
}

func (h *HookSet) SetWifiEnabled(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	t.Process.Kernel.SetWifiEnabled(args.R0 != 0)
	return kernel.ResultSuccess
}
