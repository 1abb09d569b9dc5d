package svc

import (
	"context"

	"github.com/cooolgamer/CustomLuma3DS/kernel"
	hclog "github.com/hashicorp/go-hclog"
)

// Break reasons, matching the factory ABI.
const (
	BreakPanic  uint32 = 0
	BreakAssert uint32 = 1
	BreakUser   uint32 = 2
)

// DiagnosticBreak serves Break for undebugged processes: the call is
// recorded and the process stopped without the standard trap, so the
// operator sees a classified failure instead of a silent hang. A
// debugged process never reaches this handler; the table routes it to
// the official break so the debugger gets its trap.
func (h *HookSet) DiagnosticBreak(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	p := t.Process

	reason := "panic"
	switch args.R0 {
	case BreakAssert:
		reason = "assert"
	case BreakUser:
		reason = "user"
	}

	l.Error("diagnostic break", "pid", p.Pid, "name", p.Name, "reason", reason)

	if t.Thread != nil {
		t.Thread.MarkTerminating()
	}
	p.Exit(args.R0)

	return kernel.ResultSuccess
}
