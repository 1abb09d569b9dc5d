package svc

import (
	"context"

	"github.com/cooolgamer/CustomLuma3DS/kernel"
	hclog "github.com/hashicorp/go-hclog"
)

// Dispatcher owns the three trap-handler entry points: the entry and
// return hooks and the handler resolution. It runs on whichever
// thread trapped; it has no thread of its own.
type Dispatcher struct {
	K     *kernel.Kernel
	L     hclog.Logger
	Table *Table

	// postProcess is the original post-call step. It runs exactly
	// once per call, always.
	postProcess func()
}

func NewDispatcher(k *kernel.Kernel, l hclog.Logger, table *Table, postProcess func()) *Dispatcher {
	if postProcess == nil {
		postProcess = func() {}
	}

	return &Dispatcher{
		K:           k,
		L:           l,
		Table:       table,
		postProcess: postProcess,
	}
}

// OnEntry is the syscall-entry hook. Advisory only: it notifies an
// attached debugger that cares about this identifier and never alters
// control flow.
func (d *Dispatcher) OnEntry(t *kernel.Task, f Frame) {
	id, ok := f.CallID()
	if !ok {
		return
	}

	p := t.Process
	if dbg := p.Debug(); dbg != nil && dbg.ShouldSignalSyscall(uint32(id)) {
		dbg.Signal(kernel.DebugEventOutputString, SyscallEntryMarker, uint32(id))
	}
}

// OnReturn is the syscall-return hook: the symmetric debugger
// notification, plus layout-change delivery. The flag check runs on
// every return because several different calls set it.
func (d *Dispatcher) OnReturn(t *kernel.Task, f Frame) {
	id, ok := f.CallID()
	if !ok {
		return
	}

	p := t.Process
	if dbg := p.Debug(); dbg != nil && dbg.ShouldSignalSyscall(uint32(id)) {
		dbg.Signal(kernel.DebugEventOutputString, SyscallReturnMarker, uint32(id))
	}

	if p.Flags.Consume(kernel.SignalOnMemLayoutChanges|kernel.MemLayoutChanged, kernel.MemLayoutChanged) {
		p.LayoutChangeEvent().Signal()
	}
}

// Hook resolves the handler for the trapped frame: a replacement, the
// untouched original, or nil for an undefined call.
func (d *Dispatcher) Hook(t *kernel.Task, f Frame) (Handler, bool) {
	id, ok := f.CallID()
	if !ok {
		return nil, false
	}

	return d.Table.Resolve(id, d.K.Version.Minor, t.Process.Debug() != nil)
}

// AfterCall runs after any handler completes: park the thread if the
// diagnostic subsystem wants it held, then hand off to the original
// post-processing, which must never be skipped.
func (d *Dispatcher) AfterCall(t *kernel.Task) {
	th := t.Thread
	if th != nil && !th.ShallTerminate() &&
		d.K.ThreadLockPredicate(th, d.K.DiagnosticState()&5) {
		d.K.ParkThread(th)
	}

	d.postProcess()
}

// Invoke drives one complete privileged call through the hooks the
// way the trap handler would: entry hook, resolution, execution,
// return hook, post-processing. An unresolvable identifier is an
// undefined call.
func (d *Dispatcher) Invoke(ctx context.Context, t *kernel.Task, f Frame, args *Args) (kernel.Result, bool) {
	d.OnEntry(t, f)

	h, ok := d.Hook(t, f)
	if !ok {
		id, _ := f.CallID()
		d.L.Error("undefined privileged call", "id", uint32(id), "pid", t.Process.Pid)
		d.AfterCall(t)
		return kernel.ResultNotImplemented, false
	}

	res := h(ctx, d.L, t, args)

	d.OnReturn(t, f)
	d.AfterCall(t)

	return res, true
}
