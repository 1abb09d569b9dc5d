package kernel

import (
	"sync"

	"github.com/cooolgamer/CustomLuma3DS/pkg/waiter"
)

const (
	_ waiter.EventType = iota
	EventSignaled
)

// Event is a kernel event object. Signal is sticky until Clear, is
// idempotent, and never blocks the signaler.
type Event struct {
	mu       sync.Mutex
	signaled bool

	waiters waiter.Waiter
}

func NewEvent() *Event {
	return &Event{}
}

func (e *Event) Signal() {
	e.mu.Lock()
	e.signaled = true
	e.mu.Unlock()

	e.waiters.Notify(EventSignaled)
}

func (e *Event) Clear() {
	e.mu.Lock()
	e.signaled = false
	e.mu.Unlock()
}

func (e *Event) Signaled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.signaled
}

// Ready aliases Signaled for multi-object waits.
func (e *Event) Ready() bool {
	return e.Signaled()
}

// RegisterChannel subscribes c to signals. The channel receives at
// most one pending wakeup; receivers re-check Signaled.
func (e *Event) RegisterChannel(c chan struct{}) *waiter.Event {
	return e.waiters.RegisterChannel(EventSignaled, c)
}

func (e *Event) Unregister(we *waiter.Event) {
	e.waiters.Unregister(we)
}
