package kernel

import (
	"sync/atomic"

	"github.com/cooolgamer/CustomLuma3DS/pkg/ilist"
)

// SchedulingHeld marks a thread parked by the diagnostic subsystem.
const SchedulingHeld uint32 = 0x20

type Thread struct {
	// Entry links the thread into the kernel's global thread list,
	// guarded by the kernel critical section.
	ilist.Entry

	Owner *Process
	ID    uint32

	// DiagExempt threads (the diagnostic subsystem's own) are never
	// held by the lock predicate.
	DiagExempt bool

	// mask is the scheduling mask, guarded by Owner.Kernel.CritSec.
	mask uint32

	shallTerminate atomic.Bool

	wake chan struct{}
}

func newThread(owner *Process, id uint32) *Thread {
	return &Thread{
		Owner: owner,
		ID:    id,
		wake:  make(chan struct{}, 1),
	}
}

func (t *Thread) MarkTerminating() {
	t.shallTerminate.Store(true)
}

func (t *Thread) ShallTerminate() bool {
	return t.shallTerminate.Load()
}

func (t *Thread) SchedulingMask() uint32 {
	k := t.Owner.Kernel

	k.CritSec.Lock()
	defer k.CritSec.Unlock()

	return t.mask
}

// Held reports whether the diagnostic hold bit is set.
func (t *Thread) Held() bool {
	return t.SchedulingMask()&SchedulingHeld != 0
}

// clearHeldLocked clears the hold bit and wakes a parked thread.
// Caller holds the kernel critical section.
func (t *Thread) clearHeldLocked() {
	t.mask &^= SchedulingHeld

	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// ClearHeld releases a held thread. Safe to call on a thread that is
// not held.
func (t *Thread) ClearHeld() {
	k := t.Owner.Kernel

	k.CritSec.Lock()
	t.clearHeldLocked()
	k.CritSec.Unlock()
}
