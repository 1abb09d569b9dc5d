package kernel

import (
	"context"
	"sync"
	"sync/atomic"
)

type prockey struct{}

func GetTask(ctx context.Context) (*Task, bool) {
	if v := ctx.Value(prockey{}); v != nil {
		return v.(*Task), true
	}

	return nil, false
}

func SetTask(ctx context.Context, t *Task) context.Context {
	return context.WithValue(ctx, prockey{}, t)
}

// Task is the execution context of one privileged call: the process
// that trapped and the thread it trapped on. The core borrows it for
// the duration of the call and must never hold it longer.
type Task struct {
	Process *Process
	Thread  *Thread
}

type ProcessStatus int

const (
	Init    ProcessStatus = 0
	Running ProcessStatus = 1
	Dead    ProcessStatus = 2
)

type Process struct {
	Kernel *Kernel

	Pid     uint32
	Name    string
	TitleID uint64

	// Flags are the per-process custom extension bits.
	Flags CustomFlags

	refs int32

	hw          *HwInfo
	handles     *HandleTable
	layoutEvent *Event

	mu       sync.Mutex
	debug    *Debug
	status   ProcessStatus
	exitCode uint32
	threads  []*Thread
	nextTid  uint32
}

func (p *Process) HwInfo() *HwInfo {
	return p.hw
}

func (p *Process) Handles() *HandleTable {
	return p.handles
}

// LayoutChangeEvent is the per-process event the return hook signals
// when a layout change is consumed.
func (p *Process) LayoutChangeEvent() *Event {
	return p.layoutEvent
}

// NotifyLayoutChange records that a call changed the memory layout of
// the process. The actual signal happens on syscall return, and only
// if the process armed SignalOnMemLayoutChanges.
func (p *Process) NotifyLayoutChange() {
	p.Flags.Set(MemLayoutChanged)
}

func (p *Process) AddReference() {
	atomic.AddInt32(&p.refs, 1)
}

func (p *Process) Release() {
	if atomic.AddInt32(&p.refs, -1) < 0 {
		panic("kernel: process reference over-released")
	}
}

func (p *Process) RefCount() int32 {
	return atomic.LoadInt32(&p.refs)
}

func (p *Process) AttachDebug(d *Debug) {
	p.mu.Lock()
	p.debug = d
	p.mu.Unlock()
}

func (p *Process) DetachDebug() {
	p.mu.Lock()
	p.debug = nil
	p.mu.Unlock()
}

// Debug returns the attached debugger, or nil.
func (p *Process) Debug() *Debug {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.debug
}

func (p *Process) Status() ProcessStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.status
}

func (p *Process) ExitCode() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.exitCode
}

// CreateThread adds a thread to the process and the kernel's global
// thread list.
func (p *Process) CreateThread() *Thread {
	p.mu.Lock()
	p.nextTid++
	t := newThread(p, p.nextTid)
	p.threads = append(p.threads, t)
	p.mu.Unlock()

	p.Kernel.addThread(t)

	return t
}

func (p *Process) Threads() []*Thread {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*Thread, len(p.threads))
	copy(out, p.threads)
	return out
}

// Exit marks the process dead. Thread teardown and list removal are
// the official exit path's job; the exit hook runs before this.
func (p *Process) Exit(code uint32) {
	p.mu.Lock()
	p.exitCode = code
	p.status = Dead
	threads := p.threads
	p.mu.Unlock()

	for _, t := range threads {
		t.MarkTerminating()
	}
}

type ProcessManager struct {
	mu        sync.RWMutex
	highWater uint32
	processes map[uint32]*Process
}

func NewProcessManager() *ProcessManager {
	return &ProcessManager{
		processes: make(map[uint32]*Process),
	}
}

func (pm *ProcessManager) assignPid(proc *Process) uint32 {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	for i := uint32(1); i <= pm.highWater; i++ {
		if _, ok := pm.processes[i]; !ok {
			proc.Pid = i
			pm.processes[i] = proc
			return i
		}
	}

	pm.highWater++
	pid := pm.highWater
	pm.processes[pid] = proc
	proc.Pid = pid

	return pid
}

func (pm *ProcessManager) Find(pid uint32) (*Process, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	p, ok := pm.processes[pid]
	return p, ok
}

func (pm *ProcessManager) Remove(proc *Process) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	delete(pm.processes, proc.Pid)
}
