package kernel

import "sync"

// CustomFlag is an extension bit attached to a process beyond factory
// kernel state.
type CustomFlag uint32

const (
	// SignalOnExit asks the exit hook to signal the plugin subsystem
	// and release held threads when the process terminates.
	SignalOnExit CustomFlag = 1 << iota

	// SignalOnMemLayoutChanges arms layout-change notification.
	SignalOnMemLayoutChanges

	// MemLayoutChanged is set by layout-affecting calls and consumed,
	// edge-triggered, by the return hook.
	MemLayoutChanged
)

// CustomFlags is a typed flag set, physically a bitmask. Mutation goes
// through Set/Clear/Consume so readers never observe half-updated
// state.
type CustomFlags struct {
	mu   sync.Mutex
	bits CustomFlag
}

func (f *CustomFlags) Set(flags CustomFlag) {
	f.mu.Lock()
	f.bits |= flags
	f.mu.Unlock()
}

func (f *CustomFlags) Clear(flags CustomFlag) {
	f.mu.Lock()
	f.bits &^= flags
	f.mu.Unlock()
}

func (f *CustomFlags) Test(flags CustomFlag) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.bits&flags == flags
}

// Consume atomically clears which when all of when are set, reporting
// whether it did.
func (f *CustomFlags) Consume(when, which CustomFlag) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bits&when != when {
		return false
	}

	f.bits &^= which
	return true
}
