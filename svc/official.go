package svc

import (
	"context"

	"github.com/cooolgamer/CustomLuma3DS/kernel"
	hclog "github.com/hashicorp/go-hclog"
)

// OfficialSet is the handler table of the unmodified kernel,
// populated once at initialization and immutable afterwards.
// Concurrent call paths only read it.
type OfficialSet struct {
	handlers [MaxOfficial + 1]Handler

	// addrs are the handler addresses recovered from the kernel
	// image, kept for trace logging.
	addrs [MaxOfficial + 1]uint32

	frozen bool
}

// NewOfficialSet builds the factory table. Calls the extension
// interacts with are modeled faithfully; the rest are accounting
// stubs so every identifier in the supported range resolves.
func NewOfficialSet() *OfficialSet {
	s := &OfficialSet{}

	for id := ID(0); id <= MaxOfficial; id++ {
		s.handlers[id] = stubOfficial(id)
	}

	s.handlers[ControlMemoryID] = officialControlMemory
	s.handlers[ExitProcessID] = officialExitProcess
	s.handlers[BreakID] = officialBreak
	s.handlers[MapProcessMemoryID] = officialMapProcessMemory
	s.handlers[UnmapProcessMemoryID] = officialUnmapProcessMemory

	return s
}

// Freeze marks initialization done. Registration after Freeze is a
// programming error.
func (s *OfficialSet) Freeze() {
	s.frozen = true
}

// SetAddress records the image address of an official handler.
func (s *OfficialSet) SetAddress(id ID, addr uint32) {
	if s.frozen {
		panic("svc: official table mutated after freeze")
	}

	if id <= MaxOfficial {
		s.addrs[id] = addr
	}
}

func (s *OfficialSet) Address(id ID) uint32 {
	if id > MaxOfficial {
		return 0
	}

	return s.addrs[id]
}

// Handler returns the original handler for id, or nil above the
// supported range.
func (s *OfficialSet) Handler(id ID) Handler {
	if id > MaxOfficial {
		return nil
	}

	return s.handlers[id]
}

func stubOfficial(id ID) Handler {
	return func(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
		l.Trace("official-svc", "id", id.String(), "r0", args.R0, "r1", args.R1)
		return kernel.ResultSuccess
	}
}

func officialExitProcess(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	p := t.Process
	k := p.Kernel

	l.Debug("exit-process", "pid", p.Pid, "name", p.Name)

	p.Exit(args.R0)

	for _, th := range p.Threads() {
		k.RemoveThread(th)
	}

	k.Processes().Remove(p)

	return kernel.ResultSuccess
}

func officialBreak(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	p := t.Process

	// With a debugger attached the standard trap semantics apply: the
	// debugger gets an exception event and the process stays stopped.
	if d := p.Debug(); d != nil {
		d.Signal(kernel.DebugEventException, args.R0, uint32(BreakID))
		return kernel.ResultSuccess
	}

	l.Error("break without debugger", "pid", p.Pid, "reason", args.R0)
	p.Exit(args.R0)

	return kernel.ResultSuccess
}

func officialMapProcessMemory(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	var (
		handle = kernel.Handle(args.R0)
		addr   = args.R1
		size   = args.R2
	)

	process := t.Process.Handles().ToProcess(handle, t.Process)
	if process == nil {
		return kernel.ResultInvalidHandle
	}

	defer process.Release()

	res := process.HwInfo().MapProcessMemory(addr, size>>12)
	if !res.Failed() {
		process.NotifyLayoutChange()
	}

	return res
}

// officialUnmapProcessMemory is the legacy unmap: byte sizes above
// LegacyUnmapMaxSize are out of its reach.
func officialUnmapProcessMemory(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result {
	var (
		handle = kernel.Handle(args.R0)
		addr   = args.R1
		size   = args.R2
	)

	if size > LegacyUnmapMaxSize {
		return kernel.ResultInvalidSize
	}

	process := t.Process.Handles().ToProcess(handle, t.Process)
	if process == nil {
		return kernel.ResultInvalidHandle
	}

	defer process.Release()

	res := process.HwInfo().UnmapProcessMemory(addr, size>>12)
	if !res.Failed() {
		process.NotifyLayoutChange()
	}

	return res
}
