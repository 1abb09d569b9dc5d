package kernel

import (
	"sync"

	"github.com/cooolgamer/CustomLuma3DS/pkg/waiter"
)

type DebugEventKind int

const (
	DebugEventOutputString DebugEventKind = iota
	DebugEventException
	DebugEventSyscall
)

// DebugEvent is an ephemeral record delivered to an attached debugger.
// For syscall entry/return notifications the Kind is OutputString with
// Info carrying the direction sentinel and CallID the syscall number.
type DebugEvent struct {
	Kind   DebugEventKind
	Info   uint32
	CallID uint32
}

const debugQueueDepth = 64

// Debug represents a debugger attached to one process. Signal is
// advisory and non-blocking: when the queue is full the event is
// dropped rather than stalling the call path.
type Debug struct {
	mu sync.Mutex

	// Per-syscall-id notification mask; nil means "no ids".
	syscallMask map[uint32]struct{}
	all         bool

	queue   []DebugEvent
	dropped int

	waiters waiter.Waiter
}

const (
	_ waiter.EventType = iota
	debugEventQueued
)

func NewDebug() *Debug {
	return &Debug{}
}

// WatchSyscall marks id as raising non-blocking entry/return events.
func (d *Debug) WatchSyscall(id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.syscallMask == nil {
		d.syscallMask = make(map[uint32]struct{})
	}

	d.syscallMask[id] = struct{}{}
}

func (d *Debug) WatchAllSyscalls() {
	d.mu.Lock()
	d.all = true
	d.mu.Unlock()
}

func (d *Debug) ShouldSignalSyscall(id uint32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.all {
		return true
	}

	_, ok := d.syscallMask[id]
	return ok
}

func (d *Debug) Signal(kind DebugEventKind, info, callID uint32) {
	d.mu.Lock()

	if len(d.queue) >= debugQueueDepth {
		d.dropped++
		d.mu.Unlock()
		return
	}

	d.queue = append(d.queue, DebugEvent{Kind: kind, Info: info, CallID: callID})
	d.mu.Unlock()

	d.waiters.Notify(debugEventQueued)
}

// Dequeue pops the oldest pending event.
func (d *Debug) Dequeue() (DebugEvent, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.queue) == 0 {
		return DebugEvent{}, false
	}

	ev := d.queue[0]
	d.queue = d.queue[1:]
	return ev, true
}

func (d *Debug) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.queue)
}

func (d *Debug) RegisterChannel(c chan struct{}) *waiter.Event {
	return d.waiters.RegisterChannel(debugEventQueued, c)
}

func (d *Debug) Unregister(we *waiter.Event) {
	d.waiters.Unregister(we)
}
